// Package api exposes the onboarding workflow over HTTP JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/integrations/simulated"
	"candidate-onboarding/internal/onboarding/coordinator"
	"candidate-onboarding/pkg/guidance"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	coord   *coordinator.Coordinator
	catalog *guidance.Catalog
	flags   *simulated.Flags
	checks  map[string]ReadinessCheck
	log     logger.Logger
}

type Option func(*Handler)

// WithSimulationFlags enables the /simulation/flags endpoints.
func WithSimulationFlags(f *simulated.Flags) Option {
	return func(h *Handler) { h.flags = f }
}

// WithReadinessCheck adds a dependency probed by /ready.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(h *Handler) { h.checks[name] = check }
}

func NewHandler(coord *coordinator.Coordinator, catalog *guidance.Catalog, log logger.Logger, opts ...Option) *Handler {
	if catalog == nil {
		catalog = guidance.Default()
	}
	h := &Handler{
		coord:   coord,
		catalog: catalog,
		checks:  make(map[string]ReadinessCheck),
		log:     logger.Component(log, "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires every endpoint.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.recoverer)
	r.Use(h.instrument)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/candidates", h.handleCreateCandidate)

		r.Route("/candidate", func(r chi.Router) {
			r.Get("/", h.handleGetWorkflow)
			r.Delete("/", h.handleReset)
			r.Get("/gates", h.handleGates)
			r.Get("/events", h.handleEvents)
			r.Get("/guidance/{stage}/{code}", h.handleGuidance)
			r.Post("/profile-build", h.handleProfileBuild)
			r.Post("/checks/{key}/retry", h.handleRetry)

			r.Route("/readiness", func(r chi.Router) {
				r.Post("/link", h.handleDeliverLink)
				r.Post("/refresh", h.handleRefreshReadiness)
				r.Put("/lead-plan", h.handleLeadPlan)
				r.Put("/income-plan", h.handleIncomePlan)
				r.Post("/income-plan/save", h.handleSaveIncomePlan)
				r.Post("/proceed", h.handleProceedToInterview)
			})

			r.Route("/interview", func(r chi.Router) {
				r.Post("/counterpart", h.handleResolveCounterpart)
				r.Post("/task", h.handleCreateTask)
				r.Post("/notify", h.handleNotifyCounterpart)
				r.Post("/schedule", h.handleSchedule)
				r.Post("/status", h.handleInterviewStatus)
				r.Post("/outcome", h.handleOutcome)
				r.Post("/restart", h.handleRestartInterview)
				r.Post("/proceed", h.handleProceedToOnboarding)
			})

			r.Route("/onboarding", func(r chi.Router) {
				r.Post("/prefill/{source}", h.handlePrefill)
				r.Patch("/fields", h.handleUpdateFields)
				r.Post("/validate", h.handleValidate)
				r.Post("/save", h.handleSaveOnboarding)
				r.Post("/share", h.handleShare)
			})
		})

		r.Get("/simulation/flags", h.handleGetFlags)
		r.Put("/simulation/flags", h.handleSetFlags)
	})

	return r
}
