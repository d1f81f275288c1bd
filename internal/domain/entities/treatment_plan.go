package entities

import (
	"time"
)

// PlanStatus represents the lifecycle state of a treatment plan
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// TreatmentPlan is a persisted grouping run for one patient
type TreatmentPlan struct {
	ID          string       `json:"id" db:"id"`
	PatientID   string       `json:"patient_id" db:"patient_id"`
	Status      PlanStatus   `json:"status" db:"status"`
	Constraints Constraints  `json:"constraints" db:"constraints"`
	Visits      []VisitGroup `json:"visits" db:"visits"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// PlanSummary aggregates a plan for list views
type PlanSummary struct {
	VisitCount     int     `json:"visit_count"`
	ProcedureCount int     `json:"procedure_count"`
	TotalDuration  int     `json:"total_duration"`
	TotalCost      float64 `json:"total_cost"`
	BookedVisits   int     `json:"booked_visits"`
}

// Summary computes the plan totals from its visits
func (p *TreatmentPlan) Summary() PlanSummary {
	summary := PlanSummary{VisitCount: len(p.Visits)}
	for i := range p.Visits {
		v := &p.Visits[i]
		summary.ProcedureCount += len(v.Procedures)
		summary.TotalDuration += v.TotalDuration
		summary.TotalCost += v.TotalCost
		if v.IsBooked() {
			summary.BookedVisits++
		}
	}
	return summary
}

// FindVisit returns the visit with the given ID, or nil
func (p *TreatmentPlan) FindVisit(visitID string) *VisitGroup {
	for i := range p.Visits {
		if p.Visits[i].ID == visitID {
			return &p.Visits[i]
		}
	}
	return nil
}

// ToothNumbers returns every distinct tooth touched by the plan
func (p *TreatmentPlan) ToothNumbers() []int64 {
	seen := make(map[int]struct{})
	teeth := []int64{}
	for i := range p.Visits {
		for _, tooth := range p.Visits[i].ToothNumbers() {
			if _, ok := seen[tooth]; ok {
				continue
			}
			seen[tooth] = struct{}{}
			teeth = append(teeth, int64(tooth))
		}
	}
	return teeth
}
