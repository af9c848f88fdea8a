package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/finance-accrual/internal/logging"
	"github.com/josh-kwaku/finance-accrual/internal/scheduler"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type passReporter interface {
	LastRuns() map[string]scheduler.Run
}

type HealthHandler struct {
	db     pinger
	passes passReporter
}

func NewHealthHandler(db pinger, passes passReporter) *HealthHandler {
	return &HealthHandler{db: db, passes: passes}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports the database reachability and the outcome of the latest
// pass of each entry point. A failed pass does not make the service unready;
// the scheduler retries it on the next tick.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	httpStatus := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("readiness check failed: database unreachable", "error", err)
		dbStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	body := map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"database": dbStatus,
		},
	}
	if h.passes != nil {
		body["passes"] = h.passes.LastRuns()
	}

	RespondJSON(w, httpStatus, body)
}
