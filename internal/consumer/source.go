package consumer

import "context"

// Message is a raw message received from the bus.
type Message struct {
	Topic string
	Body  []byte

	// Commit acknowledges the message so it is not redelivered. Nil for
	// transports where fetching already acknowledges.
	Commit func(ctx context.Context) error
}

// Source yields batches of messages from one subscription.
// An empty batch with a nil error means nothing is waiting.
type Source interface {
	Fetch(ctx context.Context) ([]Message, error)
}
