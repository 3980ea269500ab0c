package api

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

	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	PingContextFn func(ctx context.Context) error
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.PingContextFn(ctx)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestHealth_Live(t *testing.T) {
	t.Parallel()

	health := NewHealthHandler("notification-service", nil, logger.Discard())
	health.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	rec, resp := get(t, NewRouter(health, nil, logger.Discard()), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "notification-service", resp.Service)
	assert.Equal(t, "2026-03-01T09:00:00Z", resp.Timestamp)
}

func TestHealth_Ready(t *testing.T) {
	t.Parallel()

	ok := &MockPinger{PingContextFn: func(ctx context.Context) error { return nil }}
	down := &MockPinger{PingContextFn: func(ctx context.Context) error { return errors.New("connection refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(NewHealthHandler("svc", map[string]Pinger{"database": ok}, logger.Discard()), nil, logger.Discard())

		rec, resp := get(t, router, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
	})

	t.Run("a check fails", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(NewHealthHandler("svc", map[string]Pinger{"database": down}, logger.Discard()), nil, logger.Discard())

		rec, resp := get(t, router, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["database"])
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestHealth_JobsHealth(t *testing.T) {
	t.Parallel()

	pub := &MockReminderPublisher{}
	rec, resp := get(t, newTestRouter(pub), "/api/jobs/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "jobs-api", resp.Service)
}

func TestRouter_WorkerHasNoCallbackRoutes(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHealthHandler("svc", nil, logger.Discard()), nil, logger.Discard())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/reminder-callback", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
