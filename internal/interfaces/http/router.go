// Package http assembles the chi route tree and the HTTP server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/interfaces/http/handlers"
	"github.com/turtacn/ClubDues/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the route tree.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	// Handlers
	PayHandler        *handlers.PayHandler
	MembershipHandler *handlers.MembershipHandler
	SubmissionHandler *handlers.SubmissionHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	PayRateLimiter middleware.RateLimiter
	Logging        middleware.LoggingConfig
	Recorder       middleware.RequestRecorder

	// Infrastructure
	Logger         logging.Logger
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the route tree: public pay link, admin API under /api/v1,
// and the operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}
	r.Use(chimw.Recoverer)

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	registerPayRoutes(r, cfg.PayHandler, cfg.PayRateLimiter)

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}
		registerMembershipRoutes(api, cfg.MembershipHandler)
		registerSubmissionRoutes(api, cfg.SubmissionHandler)
	})

	return r
}

// registerPayRoutes mounts the public pay link.  The pay code in the query
// string is the only credential.
func registerPayRoutes(r chi.Router, h *handlers.PayHandler, limiter middleware.RateLimiter) {
	if h == nil {
		return
	}
	r.Group(func(pub chi.Router) {
		if limiter != nil {
			pub.Use(middleware.RateLimit(limiter))
		}
		pub.Get("/membership_pay", h.Open)
		pub.Post("/membership_pay", h.Submit)
	})
}

// registerMembershipRoutes mounts membership endpoints under /memberships.
func registerMembershipRoutes(r chi.Router, h *handlers.MembershipHandler) {
	if h == nil {
		return
	}
	r.Route("/memberships", func(mr chi.Router) {
		mr.Get("/", h.List)
		mr.Post("/", h.Register)

		mr.Route("/{membershipID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Post("/reconcile", h.Reconcile)
			item.Post("/rollup", h.Rollup)
			item.Put("/pay-link", h.SetPayLink)
			item.Post("/pay-code", h.RotatePayCode)
			item.Get("/suggestion", h.Suggest)
			item.Get("/submissions/{submissionID}/proof", h.Proof)
		})
	})
}

// registerSubmissionRoutes mounts decision endpoints under /submissions.
func registerSubmissionRoutes(r chi.Router, h *handlers.SubmissionHandler) {
	if h == nil {
		return
	}
	r.Route("/submissions/{submissionID}", func(sr chi.Router) {
		sr.Get("/suggestion", h.Suggest)
		sr.Post("/validate", h.Validate)
		sr.Post("/reject", h.Reject)
	})
}

//Personal.AI order the ending
