package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
	"github.com/zatekoja/visitplanner/pkg/retry"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return ret.Get(0).(amqp.Queue), ret.Error(1)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func samplePlan() *entities.TreatmentPlan {
	first := entities.NewVisitGroup(1)
	first.AddProcedure(entities.Procedure{ID: "rct", ProcedureCode: "D3330"})
	first.Notes = "Root canal therapy: crown follows after healing"
	second := entities.NewVisitGroup(2)
	second.AddProcedure(entities.Procedure{ID: "crown", ProcedureCode: "D2740"})
	prior := first.ID
	second.RequiresPriorVisit = &prior

	return &entities.TreatmentPlan{
		ID:        "plan-1",
		PatientID: "patient-1",
		Visits:    []entities.VisitGroup{*first, *second},
	}
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func TestNewRabbitMQBookingPublisher_DeclaresDurableQueue(t *testing.T) {
	ch := new(MockChannel)
	ch.On("QueueDeclare", "bookings", true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{Name: "bookings"}, nil)

	_, err := NewRabbitMQBookingPublisher(ch, "bookings")

	require.NoError(t, err)
	ch.AssertExpectations(t)
}

func TestNewRabbitMQBookingPublisher_DeclareFailure(t *testing.T) {
	ch := new(MockChannel)
	ch.On("QueueDeclare", "bookings", true, false, false, false, amqp.Table(nil)).
		Return(amqp.Queue{}, errors.New("channel closed"))

	_, err := NewRabbitMQBookingPublisher(ch, "bookings")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestPublishPlan(t *testing.T) {
	ch := new(MockChannel)
	publisher := &RabbitMQBookingPublisher{ch: ch, queue: "bookings", retryCfg: fastRetry()}

	var published amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "", "bookings", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) {
			published = args.Get(5).(amqp.Publishing)
		}).
		Return(nil).Once()

	err := publisher.PublishPlan(context.Background(), samplePlan())
	require.NoError(t, err)
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.Equal(t, "plan-1", published.MessageId)
	assert.Equal(t, "patient-1", published.Headers["patient_id"])

	var req BookingRequest
	require.NoError(t, json.Unmarshal(published.Body, &req))
	require.Len(t, req.Visits, 2)
	assert.Equal(t, []string{"rct"}, req.Visits[0].ProcedureIDs)
	require.NotNil(t, req.Visits[1].RequiresPriorVisit)
	assert.Equal(t, "visit-1", *req.Visits[1].RequiresPriorVisit)
}

func TestPublishPlan_RetriesThenFails(t *testing.T) {
	ch := new(MockChannel)
	publisher := &RabbitMQBookingPublisher{ch: ch, queue: "bookings", retryCfg: fastRetry()}

	ch.On("PublishWithContext", mock.Anything, "", "bookings", false, false, mock.Anything).
		Return(errors.New("connection reset")).Twice()

	err := publisher.PublishPlan(context.Background(), samplePlan())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	ch.AssertNumberOfCalls(t, "PublishWithContext", 2)
}
