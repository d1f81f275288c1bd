package entities

import (
	"fmt"
	"time"
)

// VisitGroup is a batch of procedures performed in one clinical appointment
type VisitGroup struct {
	ID                 string      `json:"id"`
	VisitNumber        int         `json:"visit_number"`
	Procedures         []Procedure `json:"procedures"`
	TotalDuration      int         `json:"total_duration"`
	TotalCost          float64     `json:"total_cost"`
	RequiresPriorVisit *string     `json:"requires_prior_visit,omitempty"`
	Notes              string      `json:"notes"`

	// Written by the booking collaborator only
	AppointmentID   *string    `json:"appointment_id,omitempty"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	AppointmentTime *string    `json:"appointment_time,omitempty"`
}

// VisitID returns the identifier assigned to the n-th visit of a plan
func VisitID(visitNumber int) string {
	return fmt.Sprintf("visit-%d", visitNumber)
}

// NewVisitGroup creates an empty visit with the given ordinal
func NewVisitGroup(visitNumber int) *VisitGroup {
	return &VisitGroup{
		ID:          VisitID(visitNumber),
		VisitNumber: visitNumber,
		Procedures:  []Procedure{},
	}
}

// AddProcedure appends a procedure and keeps the totals in step
func (v *VisitGroup) AddProcedure(p Procedure) {
	v.Procedures = append(v.Procedures, p)
	v.TotalDuration += p.Duration()
	v.TotalCost += p.Cost()
}

// IsBooked reports whether the booking collaborator has attached an appointment
func (v *VisitGroup) IsBooked() bool {
	return v.AppointmentID != nil && *v.AppointmentID != ""
}

// HasAppointmentDate reports whether a confirmed appointment date is recorded
func (v *VisitGroup) HasAppointmentDate() bool {
	return v.AppointmentDate != nil && !v.AppointmentDate.IsZero()
}

// ToothNumbers returns the distinct tooth numbers in first-seen order
func (v *VisitGroup) ToothNumbers() []int {
	seen := make(map[int]struct{})
	var teeth []int
	for _, p := range v.Procedures {
		if p.ToothNumber == nil {
			continue
		}
		if _, ok := seen[*p.ToothNumber]; ok {
			continue
		}
		seen[*p.ToothNumber] = struct{}{}
		teeth = append(teeth, *p.ToothNumber)
	}
	return teeth
}

// AppointmentUpdate is the payload the booking collaborator writes back onto a visit
type AppointmentUpdate struct {
	AppointmentID   string     `json:"appointment_id"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	AppointmentTime *string    `json:"appointment_time,omitempty"`
}

// Apply copies the booking fields onto the visit
func (u AppointmentUpdate) Apply(v *VisitGroup) {
	id := u.AppointmentID
	v.AppointmentID = &id
	v.AppointmentDate = u.AppointmentDate
	v.AppointmentTime = u.AppointmentTime
}

// VisitAdvice is the advisory scheduling view of a single visit
type VisitAdvice struct {
	VisitID            string    `json:"visit_id"`
	VisitNumber        int       `json:"visit_number"`
	Schedulable        bool      `json:"schedulable"`
	Reason             string    `json:"reason,omitempty"`
	RequiresPriorVisit *string   `json:"requires_prior_visit,omitempty"`
	HealingDays        int       `json:"healing_days"`
	SuggestedDate      time.Time `json:"suggested_date"`
}
