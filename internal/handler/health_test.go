package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/finance-accrual/internal/scheduler"
)

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(ctx context.Context) error {
	return f.err
}

type fakePasses map[string]scheduler.Run

func (f fakePasses) LastRuns() map[string]scheduler.Run {
	return f
}

func TestReadiness(t *testing.T) {
	passes := fakePasses{
		"monthly": {At: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC), Duration: "12ms", Error: "connection reset"},
	}

	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "database up", wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "database down", pingErr: errors.New("dial tcp: refused"), wantStatus: http.StatusServiceUnavailable, wantBody: "down"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(NewHealthHandler(fakePinger{err: tc.pingErr}, passes))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			require.Equal(t, tc.wantStatus, rec.Code)

			var body struct {
				Status string                   `json:"status"`
				Checks map[string]string        `json:"checks"`
				Passes map[string]scheduler.Run `json:"passes"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantBody, body.Status)
			assert.Equal(t, tc.wantBody, body.Checks["database"])
			assert.Equal(t, "connection reset", body.Passes["monthly"].Error)
		})
	}
}

func TestRouter_LivenessAndMetrics(t *testing.T) {
	router := NewRouter(NewHealthHandler(fakePinger{}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
