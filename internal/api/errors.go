package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/store"
)

var (
	// ErrInvalidRequest is returned when a request body is malformed or fails validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPublishFailed is returned when a derived event could not be handed to the bus.
	ErrPublishFailed = errors.New("failed to publish event")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// The scheduler retries callbacks that fail with a gateway error.
	case errors.Is(err, ErrPublishFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, ErrInvalidRequest):
		return "Missing or invalid required fields"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, ErrPublishFailed):
		return "Failed to publish event"
	default:
		return "An unexpected error occurred"
	}
}
