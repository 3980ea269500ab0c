package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/phrazzld/taskpulse/internal/api/middleware"
)

// NewRouter builds the HTTP routes of a process. Every process serves the
// health endpoints; only the callback process passes a CallbackHandler.
func NewRouter(health *HealthHandler, callback *CallbackHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Get("/health/live", health.Live)
	r.Get("/health/ready", health.Ready)

	if callback != nil {
		r.Route("/api/jobs", func(r chi.Router) {
			r.Post("/reminder-callback", callback.ReminderCallback)
			r.Get("/health", health.JobsHealth)
		})
		r.Post("/job/{name}", callback.ReminderCallback)
	}

	return r
}
