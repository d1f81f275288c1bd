package messaging

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/providers"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
	"github.com/zatekoja/visitplanner/pkg/retry"
)

const messageTypeBookingRequest = "visit_booking_request"

// Channel is the subset of *amqp.Channel the publisher needs
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// BookingVisit is one visit the booking service should place on the calendar
type BookingVisit struct {
	VisitID            string   `json:"visit_id"`
	VisitNumber        int      `json:"visit_number"`
	ProcedureIDs       []string `json:"procedure_ids"`
	TotalDuration      int      `json:"total_duration"`
	RequiresPriorVisit *string  `json:"requires_prior_visit,omitempty"`
	Notes              string   `json:"notes"`
}

// BookingRequest is the message body sent to the booking queue
type BookingRequest struct {
	PlanID      string         `json:"plan_id"`
	PatientID   string         `json:"patient_id"`
	Visits      []BookingVisit `json:"visits"`
	RequestedAt time.Time      `json:"requested_at"`
}

// RabbitMQBookingPublisher hands newly created plans to the booking service
type RabbitMQBookingPublisher struct {
	ch       Channel
	queue    string
	retryCfg retry.Config
}

// NewRabbitMQBookingPublisher declares the durable booking queue and returns a publisher
func NewRabbitMQBookingPublisher(ch Channel, queue string) (*RabbitMQBookingPublisher, error) {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to declare booking queue", err)
	}

	return &RabbitMQBookingPublisher{
		ch:       ch,
		queue:    queue,
		retryCfg: retry.PublishConfig(),
	}, nil
}

// PublishPlan sends one persistent booking request per plan
func (p *RabbitMQBookingPublisher) PublishPlan(ctx context.Context, plan *entities.TreatmentPlan) error {
	body, err := json.Marshal(NewBookingRequest(plan))
	if err != nil {
		return apperrors.NewInternalError("failed to marshal booking request", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    plan.ID,
		Timestamp:    time.Now().UTC(),
		Type:         messageTypeBookingRequest,
		Body:         body,
		Headers: amqp.Table{
			"patient_id": plan.PatientID,
		},
	}

	err = retry.Do(ctx, p.retryCfg, func() error {
		return p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	})
	if err != nil {
		return apperrors.NewExternalError("failed to publish booking request", err)
	}
	return nil
}

// Close closes the underlying channel
func (p *RabbitMQBookingPublisher) Close() error {
	return p.ch.Close()
}

// NewBookingRequest converts a plan into its queue representation
func NewBookingRequest(plan *entities.TreatmentPlan) BookingRequest {
	visits := make([]BookingVisit, 0, len(plan.Visits))
	for _, v := range plan.Visits {
		ids := make([]string, 0, len(v.Procedures))
		for _, p := range v.Procedures {
			ids = append(ids, p.ID)
		}
		visits = append(visits, BookingVisit{
			VisitID:            v.ID,
			VisitNumber:        v.VisitNumber,
			ProcedureIDs:       ids,
			TotalDuration:      v.TotalDuration,
			RequiresPriorVisit: v.RequiresPriorVisit,
			Notes:              v.Notes,
		})
	}
	return BookingRequest{
		PlanID:      plan.ID,
		PatientID:   plan.PatientID,
		Visits:      visits,
		RequestedAt: time.Now().UTC(),
	}
}

var _ providers.BookingPublisher = (*RabbitMQBookingPublisher)(nil)
