package routes

import (
	"net/http"

	"github.com/zatekoja/visitplanner/internal/api/handlers"
	"github.com/zatekoja/visitplanner/internal/api/middleware"
	"github.com/zatekoja/visitplanner/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux              *http.ServeMux
	visitPlanHandler *handlers.VisitPlanHandler
	metrics          *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(visitPlanHandler *handlers.VisitPlanHandler, metrics *observability.Metrics) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		visitPlanHandler: visitPlanHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Visit plans
	r.mux.HandleFunc("POST /api/visit-plans/preview", r.visitPlanHandler.PreviewPlan)
	r.mux.HandleFunc("POST /api/visit-plans", r.visitPlanHandler.CreatePlan)
	r.mux.HandleFunc("GET /api/visit-plans/{id}", r.visitPlanHandler.GetPlan)
	r.mux.HandleFunc("POST /api/visit-plans/{id}/cancel", r.visitPlanHandler.CancelPlan)
	r.mux.HandleFunc("GET /api/patients/{id}/visit-plans", r.visitPlanHandler.ListPatientPlans)

	// Booking write-back
	r.mux.HandleFunc("PUT /api/visit-plans/{id}/visits/{visitId}/appointment", r.visitPlanHandler.RecordAppointment)

	// Scheduling advice
	r.mux.HandleFunc("GET /api/visit-plans/{id}/advice", r.visitPlanHandler.AdvisePlan)
	r.mux.HandleFunc("GET /api/visit-plans/{id}/visits/{visitId}/advice", r.visitPlanHandler.AdviseVisit)
	r.mux.HandleFunc("POST /api/healing-time", r.visitPlanHandler.HealingTime)

	// Logging sits inside observability so it sees the trace context and matched route
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
