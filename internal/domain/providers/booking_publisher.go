package providers

import (
	"context"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// BookingPublisher hands finished visit plans to the appointment-booking collaborator
type BookingPublisher interface {
	PublishPlan(ctx context.Context, plan *entities.TreatmentPlan) error
	Close() error
}
