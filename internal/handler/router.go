package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/finance-accrual/internal/middleware"
)

// NewRouter builds the operational HTTP surface: health checks and metrics.
func NewRouter(health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/health", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
