package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskpulse/internal/api/shared"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// Pinger is a dependency whose reachability gates readiness, such as *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service string
	checks  map[string]Pinger
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler for service. Every entry in
// checks must answer a ping for the process to report ready.
func NewHealthHandler(service string, checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger.With("component", "health"),
		now:     time.Now,
	}
}

// Live handles GET /health/live. It always answers 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "alive",
		Service:   h.service,
		Timestamp: h.timestamp(),
	})
}

// Ready handles GET /health/ready. It answers 503 when any check fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := check.PingContext(ctx)
		cancel()

		if err != nil {
			log.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "unavailable"
			ready = false
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
			Status: "not_ready",
			Checks: results,
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Checks: results,
	})
}

// JobsHealth handles GET /api/jobs/health, which the job scheduler probes
// before delivering callbacks.
func (h *HealthHandler) JobsHealth(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "jobs-api",
		Timestamp: h.timestamp(),
	})
}

func (h *HealthHandler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
