package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/phrazzld/taskpulse/internal/consumer"
)

const (
	commitTimeout = 3 * time.Second

	// lingerTimeout is how long Fetch waits for each message after the
	// first one before returning a partial batch.
	lingerTimeout = 50 * time.Millisecond
)

// messageReader is the subset of *kgo.Reader used by Subscription.
type messageReader interface {
	FetchMessage(ctx context.Context) (kgo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// SubscriptionConfig configures a Subscription.
type SubscriptionConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	// BatchSize caps the number of messages returned by one Fetch.
	BatchSize int

	// Wait bounds how long Fetch blocks when no message is available.
	Wait time.Duration
}

type pendingMessage struct {
	msg       kgo.Message
	committed bool
}

// Subscription reads one topic for one consumer group. It implements
// consumer.Source.
//
// The reader only moves forward, so messages that were fetched but never
// committed are handed out again by the next Fetch before anything new is
// read. Committing an offset also commits every earlier offset in the same
// partition, so an uncommitted message followed by a committed one is not
// redelivered after a restart.
type Subscription struct {
	reader    messageReader
	topic     string
	batchSize int
	wait      time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	inflight []*pendingMessage
}

// NewSubscription creates a group reader with manual commits.
func NewSubscription(cfg SubscriptionConfig, logger *slog.Logger) *Subscription {
	r := kgo.NewReader(kgo.ReaderConfig{
		Brokers:        splitBrokers(cfg.Brokers),
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return newSubscription(r, cfg, logger)
}

func newSubscription(r messageReader, cfg SubscriptionConfig, logger *slog.Logger) *Subscription {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Wait <= 0 {
		cfg.Wait = time.Second
	}
	return &Subscription{
		reader:    r,
		topic:     cfg.Topic,
		batchSize: cfg.BatchSize,
		wait:      cfg.Wait,
		logger: logger.With(
			"component", "kafka_subscription",
			"topic", cfg.Topic,
			"group", cfg.GroupID),
	}
}

// Fetch implements consumer.Source. It returns the uncommitted messages of
// the previous batch if there are any, otherwise up to BatchSize new
// messages. An empty batch means nothing arrived within Wait.
func (s *Subscription) Fetch(ctx context.Context) ([]consumer.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var retry []*pendingMessage
	for _, p := range s.inflight {
		if !p.committed {
			retry = append(retry, p)
		}
	}
	if len(retry) > 0 {
		s.logger.Debug("redelivering uncommitted messages", "count", len(retry))
		s.inflight = retry
		return s.wrap(retry), nil
	}

	var batch []*pendingMessage
	for len(batch) < s.batchSize {
		timeout := s.wait
		if len(batch) > 0 {
			timeout = lingerTimeout
		}

		fctx, cancel := context.WithTimeout(ctx, timeout)
		m, err := s.reader.FetchMessage(fctx)
		cancel()

		if err != nil {
			if len(batch) > 0 {
				break
			}
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			return nil, err
		}
		batch = append(batch, &pendingMessage{msg: m})
	}

	s.inflight = batch
	return s.wrap(batch), nil
}

func (s *Subscription) wrap(pending []*pendingMessage) []consumer.Message {
	out := make([]consumer.Message, 0, len(pending))
	for _, p := range pending {
		p := p
		out = append(out, consumer.Message{
			Topic:  s.topic,
			Body:   p.msg.Value,
			Commit: func(ctx context.Context) error { return s.commit(ctx, p) },
		})
	}
	return out
}

func (s *Subscription) commit(ctx context.Context, p *pendingMessage) error {
	cctx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()

	if err := s.reader.CommitMessages(cctx, p.msg); err != nil {
		return err
	}

	s.mu.Lock()
	p.committed = true
	s.mu.Unlock()
	return nil
}

// Close closes the underlying reader.
func (s *Subscription) Close() error {
	return s.reader.Close()
}
