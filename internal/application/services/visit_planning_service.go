package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/providers"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
	"github.com/zatekoja/visitplanner/internal/infrastructure/observability"
	"github.com/zatekoja/visitplanner/internal/planning"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

const planCacheKeyspace = "visitplan"

// PlanCacheKey returns the cache key of a stored plan
func PlanCacheKey(planID string) string {
	return fmt.Sprintf("%s:%s", planCacheKeyspace, planID)
}

// CreatePlanRequest asks for a new visit plan for a patient. When Procedures is
// empty the procedures are loaded from the proposed procedure store, either by
// ProcedureIDs or, failing that, every open proposal of the patient.
type CreatePlanRequest struct {
	PatientID    string                        `json:"patient_id"`
	Procedures   []entities.Procedure          `json:"procedures,omitempty"`
	ProcedureIDs []string                      `json:"procedure_ids,omitempty"`
	Constraints  *entities.ConstraintOverrides `json:"constraints,omitempty"`
}

// VisitPlanningConfig holds service defaults
type VisitPlanningConfig struct {
	DefaultConstraints entities.Constraints
	CacheTTLSeconds    int
	Clock              planning.Clock
}

// VisitPlanningService groups proposed procedures into visits, stores the
// resulting plans and answers scheduling questions about them.
// Cache, event bus and booking publisher are optional.
type VisitPlanningService struct {
	planRepo      repositories.TreatmentPlanRepository
	procedureRepo repositories.ProposedProcedureRepository
	cache         providers.CacheProvider
	eventBus      providers.EventBus
	booking       providers.BookingPublisher
	metrics       *observability.Metrics
	advisor       *planning.Advisor
	clock         planning.Clock
	defaults      entities.Constraints
	cacheTTL      int
}

// NewVisitPlanningService creates a new visit planning service
func NewVisitPlanningService(
	planRepo repositories.TreatmentPlanRepository,
	procedureRepo repositories.ProposedProcedureRepository,
	cache providers.CacheProvider,
	eventBus providers.EventBus,
	booking providers.BookingPublisher,
	metrics *observability.Metrics,
	cfg VisitPlanningConfig,
) *VisitPlanningService {
	clock := cfg.Clock
	if clock == nil {
		clock = planning.SystemClock()
	}
	defaults := cfg.DefaultConstraints
	if defaults == (entities.Constraints{}) {
		defaults = entities.DefaultConstraints()
	}
	return &VisitPlanningService{
		planRepo:      planRepo,
		procedureRepo: procedureRepo,
		cache:         cache,
		eventBus:      eventBus,
		booking:       booking,
		metrics:       metrics,
		advisor:       planning.NewAdvisor(clock),
		clock:         clock,
		defaults:      defaults,
		cacheTTL:      cfg.CacheTTLSeconds,
	}
}

// DefaultConstraints returns the constraints applied when a request has none
func (s *VisitPlanningService) DefaultConstraints() entities.Constraints {
	return s.defaults
}

// PreviewPlan groups procedures without storing anything
func (s *VisitPlanningService) PreviewPlan(ctx context.Context, procedures []entities.Procedure, overrides *entities.ConstraintOverrides) ([]entities.VisitGroup, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.PreviewPlan")
	defer span.End()

	constraints := overrides.Merge(s.defaults)
	if err := ValidateConstraints(constraints); err != nil {
		return nil, err
	}
	if err := ValidateProcedures(procedures); err != nil {
		return nil, err
	}

	visits := planning.GroupProceduresIntoVisits(procedures, constraints)
	observability.RecordPlanBuilt(ctx, s.metrics, "preview", len(visits))
	observability.SetSpanAttributes(span,
		attribute.Int("procedures.count", len(procedures)),
		attribute.Int("visits.count", len(visits)),
	)
	return visits, nil
}

// CreatePlan builds, stores and announces a new plan
func (s *VisitPlanningService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*entities.TreatmentPlan, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.CreatePlan")
	defer span.End()

	if req.PatientID == "" {
		return nil, apperrors.NewValidationError("patient_id is required")
	}
	constraints := req.Constraints.Merge(s.defaults)
	if err := ValidateConstraints(constraints); err != nil {
		return nil, err
	}

	procedures, err := s.resolveProcedures(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if err := ValidateProcedures(procedures); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	plan := &entities.TreatmentPlan{
		ID:          uuid.NewString(),
		PatientID:   req.PatientID,
		Status:      entities.PlanStatusActive,
		Constraints: constraints,
		Visits:      planning.GroupProceduresIntoVisits(procedures, constraints),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.RecordPlanBuilt(ctx, s.metrics, "create", len(plan.Visits))
	observability.SetSpanAttributes(span,
		attribute.String("plan.id", plan.ID),
		attribute.Int("visits.count", len(plan.Visits)),
	)

	s.cachePlan(ctx, plan)
	s.publishEvent(ctx, plan, entities.PlanEventTypeCreated, "")

	if s.booking != nil {
		if err := s.booking.PublishPlan(ctx, plan); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("plan_id", plan.ID).
				Msg("failed to hand plan to booking queue")
		}
	}

	observability.LoggerFromContext(ctx).Info().
		Str("plan_id", plan.ID).
		Str("patient_id", plan.PatientID).
		Int("visits", len(plan.Visits)).
		Msg("visit plan created")

	return plan, nil
}

func (s *VisitPlanningService) resolveProcedures(ctx context.Context, req CreatePlanRequest) ([]entities.Procedure, error) {
	if len(req.Procedures) > 0 {
		return req.Procedures, nil
	}
	if s.procedureRepo == nil {
		return nil, apperrors.NewValidationError("procedures are required")
	}

	var (
		procedures []entities.Procedure
		err        error
	)
	if len(req.ProcedureIDs) > 0 {
		procedures, err = s.procedureRepo.GetByIDs(ctx, req.ProcedureIDs)
	} else {
		procedures, err = s.procedureRepo.ListByPatient(ctx, req.PatientID)
	}
	if err != nil {
		return nil, err
	}
	if len(procedures) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("no proposed procedures found for patient %s", req.PatientID))
	}
	if missing := missingProcedureIDs(req.ProcedureIDs, procedures); len(missing) > 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("proposed procedure(s) not found: %s", strings.Join(missing, ", ")))
	}
	for _, p := range procedures {
		if p.PatientID != "" && p.PatientID != req.PatientID {
			return nil, apperrors.NewValidationError(fmt.Sprintf("procedure %s belongs to another patient", p.ID))
		}
	}
	return procedures, nil
}

// missingProcedureIDs lists the requested ids the store did not return, in request order
func missingProcedureIDs(requested []string, found []entities.Procedure) []string {
	returned := make(map[string]struct{}, len(found))
	for _, p := range found {
		returned[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := returned[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// GetPlan returns a stored plan, reading through the cache
func (s *VisitPlanningService) GetPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.GetPlan")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("plan.id", planID))

	if plan, ok := s.cachedPlan(ctx, planID); ok {
		return plan, nil
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s.cachePlan(ctx, plan)
	return plan, nil
}

// ListPatientPlans returns the plans of a patient, newest first
func (s *VisitPlanningService) ListPatientPlans(ctx context.Context, patientID string, filter repositories.TreatmentPlanFilter) ([]*entities.TreatmentPlan, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.ListPatientPlans")
	defer span.End()

	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}
	plans, err := s.planRepo.ListByPatient(ctx, patientID, filter)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return plans, nil
}

// RecordAppointment writes booking details back onto one visit. Grouping is
// never re-run; only the booking fields of the visit change.
func (s *VisitPlanningService) RecordAppointment(ctx context.Context, planID, visitID string, update entities.AppointmentUpdate) (*entities.TreatmentPlan, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.RecordAppointment")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("plan.id", planID),
		attribute.String("visit.id", visitID),
	)

	if update.AppointmentID == "" {
		return nil, apperrors.NewValidationError("appointment_id is required")
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if plan.Status == entities.PlanStatusCancelled {
		return nil, apperrors.NewConflictError(fmt.Sprintf("treatment plan %s is cancelled", planID))
	}

	visit := plan.FindVisit(visitID)
	if visit == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("visit %s not found in plan %s", visitID, planID))
	}
	update.Apply(visit)

	if err := s.planRepo.Update(ctx, plan); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.invalidatePlan(ctx, planID)
	s.publishEvent(ctx, plan, entities.PlanEventTypeAppointmentRecorded, visitID)
	return plan, nil
}

// CancelPlan marks a plan cancelled; cancelling twice is a no-op
func (s *VisitPlanningService) CancelPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.CancelPlan")
	defer span.End()

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if plan.Status == entities.PlanStatusCancelled {
		return plan, nil
	}

	plan.Status = entities.PlanStatusCancelled
	if err := s.planRepo.Update(ctx, plan); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.invalidatePlan(ctx, planID)
	s.publishEvent(ctx, plan, entities.PlanEventTypeCancelled, "")
	return plan, nil
}

// AdvisePlan computes fresh scheduling advice for every visit of a plan
func (s *VisitPlanningService) AdvisePlan(ctx context.Context, planID string) ([]entities.VisitAdvice, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.AdvisePlan")
	defer span.End()

	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	advice := make([]entities.VisitAdvice, 0, len(plan.Visits))
	for i := range plan.Visits {
		advice = append(advice, s.advisor.Advise(&plan.Visits[i], plan.Visits))
	}
	return advice, nil
}

// AdviseVisit computes fresh scheduling advice for a single visit
func (s *VisitPlanningService) AdviseVisit(ctx context.Context, planID, visitID string) (*entities.VisitAdvice, error) {
	ctx, span := observability.StartSpan(ctx, "VisitPlanningService.AdviseVisit")
	defer span.End()

	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	visit := plan.FindVisit(visitID)
	if visit == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("visit %s not found in plan %s", visitID, planID))
	}

	advice := s.advisor.Advise(visit, plan.Visits)
	return &advice, nil
}

// HealingTime returns the days to wait between visits containing the given procedure codes
func (s *VisitPlanningService) HealingTime(completedCodes, nextCodes []string) (int, error) {
	if len(completedCodes) == 0 || len(nextCodes) == 0 {
		return 0, apperrors.NewValidationError("completed and next procedure codes are required")
	}
	return planning.HealingDays(
		planning.CategoriesFromCodes(completedCodes),
		planning.CategoriesFromCodes(nextCodes),
	), nil
}

func (s *VisitPlanningService) cachedPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, PlanCacheKey(planID))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("plan_id", planID).Msg("plan cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, planCacheKeyspace)
		return nil, false
	}

	var plan entities.TreatmentPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("plan_id", planID).Msg("discarding undecodable cached plan")
		observability.RecordCacheMiss(ctx, s.metrics, planCacheKeyspace)
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, planCacheKeyspace)
	return &plan, true
}

func (s *VisitPlanningService) cachePlan(ctx context.Context, plan *entities.TreatmentPlan) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(plan)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("plan_id", plan.ID).Msg("failed to encode plan for cache")
		return
	}
	if err := s.cache.Set(ctx, PlanCacheKey(plan.ID), data, s.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("plan_id", plan.ID).Msg("plan cache write failed")
	}
}

func (s *VisitPlanningService) invalidatePlan(ctx context.Context, planID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, PlanCacheKey(planID)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("plan_id", planID).Msg("plan cache invalidation failed")
	}
}

func (s *VisitPlanningService) publishEvent(ctx context.Context, plan *entities.TreatmentPlan, eventType entities.PlanEventType, visitID string) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewPlanEvent(plan, eventType, visitID)
	for _, channel := range []string{providers.EventChannelPlanUpdates, providers.GetPatientChannel(plan.PatientID)} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("channel", channel).
				Str("event_type", string(eventType)).
				Msg("failed to publish plan event")
		}
	}
}
