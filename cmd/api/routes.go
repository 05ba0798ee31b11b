package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/door-leads/internal/infra/http/handlers"
	"github.com/xavierca1/door-leads/internal/infra/http/middleware"
	"github.com/xavierca1/door-leads/internal/infra/logger"
)

type routerDeps struct {
	Log            *logger.Logger
	AllowedOrigins []string
	Intake         *handlers.LeadHandler
	Admin          *handlers.LeadAdminHandler
	Health         *handlers.HealthHandler
	Diagnostics    *handlers.DiagnosticsHandler // nil in production
	IntakeLimiter  *middleware.IPRateLimiter
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", d.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())
	if d.Diagnostics != nil {
		r.Get("/debug/env", d.Diagnostics.Env)
	}

	r.With(d.IntakeLimiter.Limit).Post("/track-lead", d.Intake.CaptureLead)

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", d.Admin.List)
		r.Delete("/", d.Admin.Delete)
		r.Get("/stats", d.Admin.Stats)
		r.Get("/{id}", d.Admin.Get)
		r.Patch("/{id}", d.Admin.Update)
		r.Delete("/{id}", d.Admin.Delete)
	})

	return r
}
