package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/visitplanner/internal/application/services"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

type MockVisitPlanningService struct {
	mock.Mock
}

func (m *MockVisitPlanningService) PreviewPlan(ctx context.Context, procedures []entities.Procedure, overrides *entities.ConstraintOverrides) ([]entities.VisitGroup, error) {
	args := m.Called(ctx, procedures, overrides)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VisitGroup), args.Error(1)
}

func (m *MockVisitPlanningService) CreatePlan(ctx context.Context, req services.CreatePlanRequest) (*entities.TreatmentPlan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreatmentPlan), args.Error(1)
}

func (m *MockVisitPlanningService) GetPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreatmentPlan), args.Error(1)
}

func (m *MockVisitPlanningService) ListPatientPlans(ctx context.Context, patientID string, filter repositories.TreatmentPlanFilter) ([]*entities.TreatmentPlan, error) {
	args := m.Called(ctx, patientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TreatmentPlan), args.Error(1)
}

func (m *MockVisitPlanningService) RecordAppointment(ctx context.Context, planID, visitID string, update entities.AppointmentUpdate) (*entities.TreatmentPlan, error) {
	args := m.Called(ctx, planID, visitID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreatmentPlan), args.Error(1)
}

func (m *MockVisitPlanningService) CancelPlan(ctx context.Context, planID string) (*entities.TreatmentPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TreatmentPlan), args.Error(1)
}

func (m *MockVisitPlanningService) AdvisePlan(ctx context.Context, planID string) ([]entities.VisitAdvice, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VisitAdvice), args.Error(1)
}

func (m *MockVisitPlanningService) AdviseVisit(ctx context.Context, planID, visitID string) (*entities.VisitAdvice, error) {
	args := m.Called(ctx, planID, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VisitAdvice), args.Error(1)
}

func (m *MockVisitPlanningService) HealingTime(completedCodes, nextCodes []string) (int, error) {
	args := m.Called(completedCodes, nextCodes)
	return args.Int(0), args.Error(1)
}

func newTestMux(h *VisitPlanHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/visit-plans/preview", h.PreviewPlan)
	mux.HandleFunc("POST /api/visit-plans", h.CreatePlan)
	mux.HandleFunc("GET /api/visit-plans/{id}", h.GetPlan)
	mux.HandleFunc("GET /api/patients/{id}/visit-plans", h.ListPatientPlans)
	mux.HandleFunc("PUT /api/visit-plans/{id}/visits/{visitId}/appointment", h.RecordAppointment)
	mux.HandleFunc("POST /api/visit-plans/{id}/cancel", h.CancelPlan)
	mux.HandleFunc("GET /api/visit-plans/{id}/advice", h.AdvisePlan)
	mux.HandleFunc("GET /api/visit-plans/{id}/visits/{visitId}/advice", h.AdviseVisit)
	mux.HandleFunc("POST /api/healing-time", h.HealingTime)
	return mux
}

func doRequest(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func samplePlan() *entities.TreatmentPlan {
	visit := entities.NewVisitGroup(1)
	duration := 30
	visit.AddProcedure(entities.Procedure{ID: "clean", ProcedureCode: "D1110", Priority: entities.PriorityNormal, EstimatedDuration: &duration})
	return &entities.TreatmentPlan{
		ID:        "plan-1",
		PatientID: "patient-1",
		Status:    entities.PlanStatusActive,
		Visits:    []entities.VisitGroup{*visit},
	}
}

func TestVisitPlanHandler_PreviewPlan(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	svc.On("PreviewPlan", mock.Anything, mock.MatchedBy(func(procs []entities.Procedure) bool {
		return len(procs) == 1 && procs[0].ProcedureCode == "D1110"
	}), (*entities.ConstraintOverrides)(nil)).Return(samplePlan().Visits, nil)

	rr := doRequest(mux, http.MethodPost, "/api/visit-plans/preview",
		`{"procedures":[{"id":"clean","procedure_code":"D1110","priority":"normal","estimated_duration":30}]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Visits []entities.VisitGroup `json:"visits"`
		Count  int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "visit-1", body.Visits[0].ID)
	svc.AssertExpectations(t)
}

func TestVisitPlanHandler_PreviewPlan_BadBody(t *testing.T) {
	mux := newTestMux(NewVisitPlanHandler(new(MockVisitPlanningService)))

	rr := doRequest(mux, http.MethodPost, "/api/visit-plans/preview", `{"procedures":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestVisitPlanHandler_CreatePlan(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	svc.On("CreatePlan", mock.Anything, services.CreatePlanRequest{PatientID: "patient-1"}).Return(samplePlan(), nil)

	rr := doRequest(mux, http.MethodPost, "/api/visit-plans", `{"patient_id":"patient-1"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "plan-1", body["id"])
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["visit_count"])
	assert.Equal(t, float64(30), summary["total_duration"])
}

func TestVisitPlanHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", apperrors.NewNotFoundError("treatment plan with id plan-1 not found"), http.StatusNotFound, "treatment plan with id plan-1 not found"},
		{"validation", apperrors.NewValidationError("bad"), http.StatusBadRequest, "bad"},
		{"conflict", apperrors.NewConflictError("treatment plan plan-1 is cancelled"), http.StatusConflict, "treatment plan plan-1 is cancelled"},
		{"external", apperrors.NewExternalError("cache down", errors.New("dial")), http.StatusBadGateway, "failed to get visit plan"},
		{"internal", apperrors.NewInternalError("db", errors.New("secret detail")), http.StatusInternalServerError, "failed to get visit plan"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "failed to get visit plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVisitPlanningService)
			mux := newTestMux(NewVisitPlanHandler(svc))
			svc.On("GetPlan", mock.Anything, "plan-1").Return(nil, tt.err)

			rr := doRequest(mux, http.MethodGet, "/api/visit-plans/plan-1", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestVisitPlanHandler_ListPatientPlans(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	tooth := 36
	svc.On("ListPatientPlans", mock.Anything, "patient-1", repositories.TreatmentPlanFilter{
		Status:      entities.PlanStatusActive,
		ToothNumber: &tooth,
		Limit:       5,
		Offset:      10,
	}).Return([]*entities.TreatmentPlan{samplePlan()}, nil)

	rr := doRequest(mux, http.MethodGet, "/api/patients/patient-1/visit-plans?status=active&tooth=36&limit=5&offset=10", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":1`)
	svc.AssertExpectations(t)

	rr = doRequest(mux, http.MethodGet, "/api/patients/patient-1/visit-plans?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVisitPlanHandler_RecordAppointment(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	date := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	svc.On("RecordAppointment", mock.Anything, "plan-1", "visit-1", mock.MatchedBy(func(u entities.AppointmentUpdate) bool {
		return u.AppointmentID == "apt-1" && u.AppointmentDate != nil && u.AppointmentDate.Equal(date)
	})).Return(samplePlan(), nil)

	rr := doRequest(mux, http.MethodPut, "/api/visit-plans/plan-1/visits/visit-1/appointment",
		`{"appointment_id":"apt-1","appointment_date":"2026-03-12"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)

	rr = doRequest(mux, http.MethodPut, "/api/visit-plans/plan-1/visits/visit-1/appointment",
		`{"appointment_id":"apt-1","appointment_date":"12/03/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVisitPlanHandler_Advice(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	advice := entities.VisitAdvice{VisitID: "visit-2", VisitNumber: 2, Reason: "Visit 1 must be scheduled first", HealingDays: 7}
	svc.On("AdvisePlan", mock.Anything, "plan-1").Return([]entities.VisitAdvice{advice}, nil)
	svc.On("AdviseVisit", mock.Anything, "plan-1", "visit-2").Return(&advice, nil)

	rr := doRequest(mux, http.MethodGet, "/api/visit-plans/plan-1/advice", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"plan_id":"plan-1"`)
	assert.Contains(t, rr.Body.String(), "Visit 1 must be scheduled first")

	rr = doRequest(mux, http.MethodGet, "/api/visit-plans/plan-1/visits/visit-2/advice", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"schedulable":false`)
}

func TestVisitPlanHandler_CancelPlan(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	cancelled := samplePlan()
	cancelled.Status = entities.PlanStatusCancelled
	svc.On("CancelPlan", mock.Anything, "plan-1").Return(cancelled, nil)

	rr := doRequest(mux, http.MethodPost, "/api/visit-plans/plan-1/cancel", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"cancelled"`)
}

func TestVisitPlanHandler_HealingTime(t *testing.T) {
	svc := new(MockVisitPlanningService)
	mux := newTestMux(NewVisitPlanHandler(svc))

	svc.On("HealingTime", []string{"D7140"}, []string{"D6010"}).Return(90, nil)

	rr := doRequest(mux, http.MethodPost, "/api/healing-time", `{"completed":["D7140"],"next":["D6010"]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"days":90}`, rr.Body.String())
}
