package planning

import (
	"fmt"
	"time"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

const (
	emergencyLeadDays    = 1
	standardLeadDays     = 3
	unknownPriorLeadDays = 7
)

// ScheduleCheck is the result of a schedulability check
type ScheduleCheck struct {
	Schedulable bool   `json:"schedulable"`
	Reason      string `json:"reason,omitempty"`
}

// Advisor answers scheduling questions about planned visits. It only reads
// the visits it is given, so callers re-run it whenever booking data changes.
type Advisor struct {
	clock Clock
}

// NewAdvisor creates an advisor; a nil clock uses the system clock
func NewAdvisor(clock Clock) *Advisor {
	if clock == nil {
		clock = SystemClock()
	}
	return &Advisor{clock: clock}
}

// IsVisitSchedulable reports whether the visit's prerequisite visit is far
// enough along for the visit itself to be booked
func (a *Advisor) IsVisitSchedulable(visit *entities.VisitGroup, allVisits []entities.VisitGroup) ScheduleCheck {
	if visit.RequiresPriorVisit == nil {
		return ScheduleCheck{Schedulable: true}
	}

	prior := findVisit(allVisits, *visit.RequiresPriorVisit)
	switch {
	case prior == nil:
		return ScheduleCheck{Reason: fmt.Sprintf("Prior visit %s must be scheduled first", *visit.RequiresPriorVisit)}
	case !prior.IsBooked():
		return ScheduleCheck{Reason: fmt.Sprintf("Visit %d must be scheduled first", prior.VisitNumber)}
	case !prior.HasAppointmentDate():
		return ScheduleCheck{Reason: fmt.Sprintf("Visit %d must be completed first", prior.VisitNumber)}
	}
	return ScheduleCheck{Schedulable: true}
}

// GetSuggestedAppointmentDate proposes a calendar date for the visit
func (a *Advisor) GetSuggestedAppointmentDate(visit *entities.VisitGroup, allVisits []entities.VisitGroup) time.Time {
	today := startOfDay(a.clock.Now())

	if visit.RequiresPriorVisit == nil {
		if CategoriesOf(visit.Procedures).Has(entities.CategoryEmergency) {
			return today.AddDate(0, 0, emergencyLeadDays)
		}
		return today.AddDate(0, 0, standardLeadDays)
	}

	prior := findVisit(allVisits, *visit.RequiresPriorVisit)
	if prior == nil || !prior.HasAppointmentDate() {
		return today.AddDate(0, 0, unknownPriorLeadDays)
	}
	return prior.AppointmentDate.AddDate(0, 0, GetHealingTimeBetweenVisits(prior, visit))
}

// Advise bundles the schedulability check and suggested date for one visit
func (a *Advisor) Advise(visit *entities.VisitGroup, allVisits []entities.VisitGroup) entities.VisitAdvice {
	check := a.IsVisitSchedulable(visit, allVisits)
	advice := entities.VisitAdvice{
		VisitID:            visit.ID,
		VisitNumber:        visit.VisitNumber,
		Schedulable:        check.Schedulable,
		Reason:             check.Reason,
		RequiresPriorVisit: visit.RequiresPriorVisit,
		SuggestedDate:      a.GetSuggestedAppointmentDate(visit, allVisits),
	}
	if visit.RequiresPriorVisit != nil {
		if prior := findVisit(allVisits, *visit.RequiresPriorVisit); prior != nil {
			advice.HealingDays = GetHealingTimeBetweenVisits(prior, visit)
		}
	}
	return advice
}

// GetHealingTimeBetweenVisits returns the minimum days between completing one visit and starting the next
func GetHealingTimeBetweenVisits(completed, next *entities.VisitGroup) int {
	return HealingDays(CategoriesOf(completed.Procedures), CategoriesOf(next.Procedures))
}

func findVisit(visits []entities.VisitGroup, id string) *entities.VisitGroup {
	for i := range visits {
		if visits[i].ID == id {
			return &visits[i]
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
