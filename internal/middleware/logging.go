package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/finance-accrual/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func isOpsPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}

// Logging logs every request and puts a logger tagged with the request id on
// the request context. Health checks and metric scrapes are logged at debug
// level unless they fail.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger := slog.Default().With("request_id", chimw.GetReqID(r.Context()))
		ctx := logging.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if isOpsPath(r.URL.Path) && rec.status < http.StatusInternalServerError {
			level = slog.LevelDebug
		}
		logger.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
