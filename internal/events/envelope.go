package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types carried in Envelope.EventType.
const (
	TypeTaskCreated       = "task.created"
	TypeTaskUpdated       = "task.updated"
	TypeTaskCompleted     = "task.completed"
	TypeTaskDeleted       = "task.deleted"
	TypeReminderScheduled = "reminder.scheduled"
	TypeReminderTriggered = "reminder.triggered"
)

// Bus topics.
const (
	TopicTaskEvents = "task-events"
	TopicReminders  = "reminders"
)

// TriggerScheduledJob marks events derived from a job scheduler callback.
const TriggerScheduledJob = "scheduled_job"

var (
	// ErrInvalidEnvelope is returned when a message cannot be decoded as an envelope.
	ErrInvalidEnvelope = errors.New("invalid event envelope")

	// ErrInvalidData is returned when envelope data does not match the expected payload.
	ErrInvalidData = errors.New("invalid event data")
)

// Metadata describes where an event came from.
type Metadata struct {
	// SourceService names the process that published the event.
	SourceService string `json:"source_service"`

	// CorrelationID ties derived events back to the event that caused them.
	CorrelationID string `json:"correlation_id,omitempty"`

	// TriggerType records what triggered the event, e.g. "scheduled_job".
	TriggerType string `json:"trigger_type,omitempty"`
}

// Envelope is the canonical message format on the bus.
// Envelopes are immutable once published; consumers read them and derive new ones.
type Envelope struct {
	EventID   uuid.UUID       `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	Metadata  Metadata        `json:"metadata"`
}

// NewEnvelope creates an envelope with a fresh event ID and the current UTC time.
// data is serialized to JSON; a nil data becomes an empty object.
func NewEnvelope(eventType, userID string, data interface{}, meta Metadata) (*Envelope, error) {
	if eventType == "" {
		return nil, fmt.Errorf("%w: event type is required", ErrInvalidEnvelope)
	}

	raw := json.RawMessage(`{}`)
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		raw = b
	}

	return &Envelope{
		EventID:   uuid.New(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      raw,
		Metadata:  meta,
	}, nil
}

// ParseEnvelope decodes a bus message. It fails with ErrInvalidEnvelope
// when the body is not JSON or lacks an event ID or event type.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	if env.EventID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing event_id", ErrInvalidEnvelope)
	}

	if env.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrInvalidEnvelope)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		env.Data = json.RawMessage(`{}`)
	}

	return &env, nil
}

// UnmarshalData decodes the envelope data into v.
func (e *Envelope) UnmarshalData(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, e.EventType, err)
	}
	return nil
}

// Correlation returns the ID that events derived from e should carry:
// e's own correlation ID, or its event ID when it has none.
func (e *Envelope) Correlation() string {
	if e.Metadata.CorrelationID != "" {
		return e.Metadata.CorrelationID
	}
	return e.EventID.String()
}

// UnmarshalJSON accepts timestamps with or without a zone offset.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	type alias Envelope
	aux := struct {
		*alias
		Timestamp wireTime `json:"timestamp"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Timestamp = aux.Timestamp.t
	return nil
}
