package providers

import (
	"context"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to plan events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PlanEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PlanEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelPlanUpdates is the channel for all treatment plan changes
	EventChannelPlanUpdates = "visitplan:updates"

	// EventChannelPatientPrefix is the prefix for patient-specific channels
	EventChannelPatientPrefix = "patient:"
)

// GetPatientChannel returns the channel name for a specific patient
func GetPatientChannel(patientID string) string {
	return EventChannelPatientPrefix + patientID
}
