package domain

import "time"

// DeadLetter is an event that the pipeline gave up on, either because it was
// classified as permanently unprocessable or because it exhausted its
// delivery attempts.
type DeadLetter struct {
	ID int64 `json:"id"`

	// EventID is empty when the message could not be decoded as an envelope.
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Topic     string `json:"topic"`
	Consumer  string `json:"consumer"`

	// Payload is the raw message body as received from the bus.
	Payload []byte `json:"payload"`

	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
