package services_test

import (
	"context"
	"path"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/providers"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
)

type MockTreatmentPlanRepository struct {
	mock.Mock
}

func (m *MockTreatmentPlanRepository) Create(ctx context.Context, plan *entities.TreatmentPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockTreatmentPlanRepository) GetByID(ctx context.Context, id string) (*entities.TreatmentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreatmentPlan), args.Error(1)
}

func (m *MockTreatmentPlanRepository) Update(ctx context.Context, plan *entities.TreatmentPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockTreatmentPlanRepository) ListByPatient(ctx context.Context, patientID string, filter repositories.TreatmentPlanFilter) ([]*entities.TreatmentPlan, error) {
	args := m.Called(ctx, patientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TreatmentPlan), args.Error(1)
}

type MockProposedProcedureRepository struct {
	mock.Mock
}

func (m *MockProposedProcedureRepository) ListByPatient(ctx context.Context, patientID string) ([]entities.Procedure, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Procedure), args.Error(1)
}

func (m *MockProposedProcedureRepository) GetByIDs(ctx context.Context, ids []string) ([]entities.Procedure, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Procedure), args.Error(1)
}

type MockBookingPublisher struct {
	mock.Mock
}

func (m *MockBookingPublisher) PublishPlan(ctx context.Context, plan *entities.TreatmentPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockBookingPublisher) Close() error {
	return m.Called().Error(0)
}

// MockCacheProvider is an in-memory cache for testing
type MockCacheProvider struct {
	mu      sync.RWMutex
	data    map[string][]byte
	deleted []string
	err     error
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *MockCacheProvider) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// MockEventBus records published events and fans them out to local subscribers
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.PlanEvent
	published   map[string][]*entities.PlanEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.PlanEvent),
		published:   make(map[string][]*entities.PlanEvent),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.PlanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[channel] = append(m.published[channel], event)
	for _, ch := range m.subscribers[channel] {
		ch <- event
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PlanEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.PlanEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) Published(channel string) []*entities.PlanEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.PlanEvent(nil), m.published[channel]...)
}
