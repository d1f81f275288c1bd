package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/zatekoja/visitplanner/internal/application/services"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

// VisitPlanningService defines the handler dependency for visit planning
type VisitPlanningService interface {
	PreviewPlan(ctx context.Context, procedures []entities.Procedure, overrides *entities.ConstraintOverrides) ([]entities.VisitGroup, error)
	CreatePlan(ctx context.Context, req services.CreatePlanRequest) (*entities.TreatmentPlan, error)
	GetPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error)
	ListPatientPlans(ctx context.Context, patientID string, filter repositories.TreatmentPlanFilter) ([]*entities.TreatmentPlan, error)
	RecordAppointment(ctx context.Context, planID, visitID string, update entities.AppointmentUpdate) (*entities.TreatmentPlan, error)
	CancelPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error)
	AdvisePlan(ctx context.Context, planID string) ([]entities.VisitAdvice, error)
	AdviseVisit(ctx context.Context, planID, visitID string) (*entities.VisitAdvice, error)
	HealingTime(completedCodes, nextCodes []string) (int, error)
}

// VisitPlanHandler handles visit plan requests
type VisitPlanHandler struct {
	service VisitPlanningService
}

// NewVisitPlanHandler creates a new visit plan handler
func NewVisitPlanHandler(service VisitPlanningService) *VisitPlanHandler {
	return &VisitPlanHandler{service: service}
}

type previewRequest struct {
	Procedures  []entities.Procedure          `json:"procedures"`
	Constraints *entities.ConstraintOverrides `json:"constraints,omitempty"`
}

type planResponse struct {
	*entities.TreatmentPlan
	Summary entities.PlanSummary `json:"summary"`
}

func newPlanResponse(plan *entities.TreatmentPlan) planResponse {
	return planResponse{TreatmentPlan: plan, Summary: plan.Summary()}
}

// appointmentRequest accepts either an RFC 3339 timestamp or a plain date
type appointmentRequest struct {
	AppointmentID   string  `json:"appointment_id"`
	AppointmentDate string  `json:"appointment_date,omitempty"`
	AppointmentTime *string `json:"appointment_time,omitempty"`
}

func (req appointmentRequest) toUpdate() (entities.AppointmentUpdate, error) {
	update := entities.AppointmentUpdate{
		AppointmentID:   req.AppointmentID,
		AppointmentTime: req.AppointmentTime,
	}
	if req.AppointmentDate == "" {
		return update, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if date, err := time.Parse(layout, req.AppointmentDate); err == nil {
			update.AppointmentDate = &date
			return update, nil
		}
	}
	return update, apperrors.NewValidationError("appointment_date must be YYYY-MM-DD or RFC 3339")
}

type healingTimeRequest struct {
	Completed []string `json:"completed"`
	Next      []string `json:"next"`
}

// PreviewPlan handles POST /api/visit-plans/preview
func (h *VisitPlanHandler) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err, "invalid request")
		return
	}

	visits, err := h.service.PreviewPlan(r.Context(), req.Procedures, req.Constraints)
	if err != nil {
		respondWithAppError(w, r, err, "failed to group procedures")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"visits": visits,
		"count":  len(visits),
	})
}

// CreatePlan handles POST /api/visit-plans
func (h *VisitPlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err, "invalid request")
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err, "failed to create visit plan")
		return
	}

	respondWithJSON(w, http.StatusCreated, newPlanResponse(plan))
}

// GetPlan handles GET /api/visit-plans/{id}
func (h *VisitPlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to get visit plan")
		return
	}

	respondWithJSON(w, http.StatusOK, newPlanResponse(plan))
}

// ListPatientPlans handles GET /api/patients/{id}/visit-plans
func (h *VisitPlanHandler) ListPatientPlans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repositories.TreatmentPlanFilter{
		Status: entities.PlanStatus(query.Get("status")),
		Limit:  20,
	}

	if tooth := query.Get("tooth"); tooth != "" {
		n, err := strconv.Atoi(tooth)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "tooth must be a number")
			return
		}
		filter.ToothNumber = &n
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 || n > 100 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filter.Limit = n
	}
	if offset := query.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "offset must be a non-negative number")
			return
		}
		filter.Offset = n
	}

	plans, err := h.service.ListPatientPlans(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		respondWithAppError(w, r, err, "failed to list visit plans")
		return
	}

	responses := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, newPlanResponse(plan))
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"plans": responses,
		"count": len(responses),
	})
}

// RecordAppointment handles PUT /api/visit-plans/{id}/visits/{visitId}/appointment
func (h *VisitPlanHandler) RecordAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err, "invalid request")
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		respondWithAppError(w, r, err, "invalid request")
		return
	}

	plan, err := h.service.RecordAppointment(r.Context(), r.PathValue("id"), r.PathValue("visitId"), update)
	if err != nil {
		respondWithAppError(w, r, err, "failed to record appointment")
		return
	}

	respondWithJSON(w, http.StatusOK, newPlanResponse(plan))
}

// CancelPlan handles POST /api/visit-plans/{id}/cancel
func (h *VisitPlanHandler) CancelPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.CancelPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to cancel visit plan")
		return
	}

	respondWithJSON(w, http.StatusOK, newPlanResponse(plan))
}

// AdvisePlan handles GET /api/visit-plans/{id}/advice
func (h *VisitPlanHandler) AdvisePlan(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("id")
	advice, err := h.service.AdvisePlan(r.Context(), planID)
	if err != nil {
		respondWithAppError(w, r, err, "failed to compute scheduling advice")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"plan_id": planID,
		"advice":  advice,
	})
}

// AdviseVisit handles GET /api/visit-plans/{id}/visits/{visitId}/advice
func (h *VisitPlanHandler) AdviseVisit(w http.ResponseWriter, r *http.Request) {
	advice, err := h.service.AdviseVisit(r.Context(), r.PathValue("id"), r.PathValue("visitId"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to compute scheduling advice")
		return
	}

	respondWithJSON(w, http.StatusOK, advice)
}

// HealingTime handles POST /api/healing-time
func (h *VisitPlanHandler) HealingTime(w http.ResponseWriter, r *http.Request) {
	var req healingTimeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err, "invalid request")
		return
	}

	days, err := h.service.HealingTime(req.Completed, req.Next)
	if err != nil {
		respondWithAppError(w, r, err, "failed to compute healing time")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"days": days})
}
