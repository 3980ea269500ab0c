package events

import (
	"context"
	"log/slog"
	"sync"
)

// EventHandler processes a single envelope.
// Returning an error leaves the event unprocessed so the bus redelivers it.
type EventHandler interface {
	HandleEvent(ctx context.Context, env *Envelope) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, env *Envelope) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, env *Envelope) error {
	return f(ctx, env)
}

// Router dispatches envelopes to the handler registered for their event type.
// Events with no registered handler are acknowledged and ignored, since
// several event types share one topic.
type Router struct {
	handlers map[string]EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewRouter creates an empty Router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		handlers: make(map[string]EventHandler),
		logger:   logger.With("component", "event_router"),
	}
}

// Handle registers handler for eventType, replacing any previous handler.
func (r *Router) Handle(eventType string, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = handler
	r.logger.Debug("registered event handler", "event_type", eventType, "handler_count", len(r.handlers))
}

// HandleEvent implements EventHandler by dispatching on env.EventType.
func (r *Router) HandleEvent(ctx context.Context, env *Envelope) error {
	r.mu.RLock()
	handler, ok := r.handlers[env.EventType]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("ignoring event with no handler",
			"event_id", env.EventID,
			"event_type", env.EventType)
		return nil
	}

	return handler.HandleEvent(ctx, env)
}
