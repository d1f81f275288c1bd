package entities

import (
	"time"

	"github.com/google/uuid"
)

// PlanEventType represents the type of treatment plan event
type PlanEventType string

const (
	PlanEventTypeCreated             PlanEventType = "plan_created"
	PlanEventTypeAppointmentRecorded PlanEventType = "appointment_recorded"
	PlanEventTypeCancelled           PlanEventType = "plan_cancelled"
)

// PlanEvent is published whenever a stored treatment plan changes
type PlanEvent struct {
	ID        string        `json:"id"`
	PlanID    string        `json:"plan_id"`
	PatientID string        `json:"patient_id"`
	EventType PlanEventType `json:"event_type"`
	VisitID   string        `json:"visit_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewPlanEvent creates a new plan event
func NewPlanEvent(plan *TreatmentPlan, eventType PlanEventType, visitID string) *PlanEvent {
	return &PlanEvent{
		ID:        uuid.NewString(),
		PlanID:    plan.ID,
		PatientID: plan.PatientID,
		EventType: eventType,
		VisitID:   visitID,
		Timestamp: time.Now().UTC(),
	}
}
