package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// Transport delivers an envelope to a bus topic.
type Transport interface {
	Send(ctx context.Context, topic string, env *Envelope) error
}

// PublishOption customizes the metadata of a published envelope.
type PublishOption func(*Metadata)

// WithCorrelationID sets the correlation ID of the published envelope.
func WithCorrelationID(id string) PublishOption {
	return func(m *Metadata) { m.CorrelationID = id }
}

// WithTriggerType sets the trigger type of the published envelope.
func WithTriggerType(trigger string) PublishOption {
	return func(m *Metadata) { m.TriggerType = trigger }
}

// Publisher stamps envelopes with an ID, timestamp and source service and
// hands them to a Transport. Publishing is best-effort: failures are logged
// and reported through the returned outcome.Result, never panicked or retried.
type Publisher struct {
	transport     Transport
	sourceService string
	logger        *slog.Logger
}

// NewPublisher creates a Publisher that identifies itself as sourceService.
func NewPublisher(transport Transport, sourceService string, logger *slog.Logger) *Publisher {
	return &Publisher{
		transport:     transport,
		sourceService: sourceService,
		logger:        logger.With("component", "event_publisher"),
	}
}

// Publish wraps data in a new envelope and sends it to topic. The envelope is
// returned even when sending fails so callers can log its ID.
func (p *Publisher) Publish(
	ctx context.Context,
	topic, eventType, userID string,
	data interface{},
	opts ...PublishOption,
) (*Envelope, outcome.Result) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	meta := Metadata{SourceService: p.sourceService}
	for _, opt := range opts {
		opt(&meta)
	}

	env, err := NewEnvelope(eventType, userID, data, meta)
	if err != nil {
		log.Error("failed to build event envelope",
			"error", err,
			"event_type", eventType,
			"topic", topic)
		return nil, outcome.Failed("build envelope", err)
	}

	if err := p.transport.Send(ctx, topic, env); err != nil {
		log.Error("failed to publish event",
			"error", err,
			"event_id", env.EventID,
			"event_type", eventType,
			"topic", topic)
		return env, outcome.Failed("publish to "+topic, err)
	}

	log.Debug("event published",
		"event_id", env.EventID,
		"event_type", eventType,
		"topic", topic,
		"correlation_id", meta.CorrelationID)

	return env, outcome.OK()
}

// PublishTaskCreated publishes task.created on the task-events topic.
func (p *Publisher) PublishTaskCreated(
	ctx context.Context,
	userID string,
	data TaskData,
	opts ...PublishOption,
) outcome.Result {
	_, res := p.Publish(ctx, TopicTaskEvents, TypeTaskCreated, userID, data, opts...)
	return res
}

// PublishReminderScheduled publishes reminder.scheduled on the reminders topic.
func (p *Publisher) PublishReminderScheduled(
	ctx context.Context,
	userID string,
	data ReminderData,
	opts ...PublishOption,
) outcome.Result {
	_, res := p.Publish(ctx, TopicReminders, TypeReminderScheduled, userID, data, opts...)
	return res
}

// PublishReminderTriggered publishes reminder.triggered on the reminders topic.
func (p *Publisher) PublishReminderTriggered(
	ctx context.Context,
	userID string,
	data ReminderData,
	opts ...PublishOption,
) outcome.Result {
	_, res := p.Publish(ctx, TopicReminders, TypeReminderTriggered, userID, data, opts...)
	return res
}
