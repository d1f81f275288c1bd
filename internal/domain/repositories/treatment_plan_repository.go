package repositories

import (
	"context"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// TreatmentPlanRepository defines the interface for treatment plan data operations
type TreatmentPlanRepository interface {
	// Create stores a new treatment plan
	Create(ctx context.Context, plan *entities.TreatmentPlan) error

	// GetByID retrieves a treatment plan by ID
	GetByID(ctx context.Context, id string) (*entities.TreatmentPlan, error)

	// Update replaces the status and visits of a stored plan. plan.UpdatedAt
	// must hold the value read from the store; a plan changed since then
	// yields a conflict error.
	Update(ctx context.Context, plan *entities.TreatmentPlan) error

	// ListByPatient retrieves the plans of a patient, newest first
	ListByPatient(ctx context.Context, patientID string, filter TreatmentPlanFilter) ([]*entities.TreatmentPlan, error)
}

// TreatmentPlanFilter defines filters for listing treatment plans
type TreatmentPlanFilter struct {
	Status      entities.PlanStatus
	ToothNumber *int
	Limit       int
	Offset      int
}
