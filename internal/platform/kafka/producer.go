package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

const defaultWriteTimeout = 3 * time.Second

// messageWriter is the subset of *kgo.Writer used by Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// Producer publishes envelopes to Kafka. It implements events.Transport.
type Producer struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewProducer creates a Producer for the given brokers. The topic is chosen
// per message, so one Producer serves every bus topic.
func NewProducer(brokers []string, timeout time.Duration, logger *slog.Logger) *Producer {
	w := &kgo.Writer{
		Addr:         kgo.TCP(splitBrokers(brokers)...),
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}
	return newProducer(w, timeout, logger)
}

func newProducer(w messageWriter, timeout time.Duration, logger *slog.Logger) *Producer {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Producer{
		writer:  w,
		timeout: timeout,
		logger:  logger.With("component", "kafka_producer"),
	}
}

// Send implements events.Transport. Messages are keyed by user so that one
// user's events stay ordered within a partition.
func (p *Producer) Send(ctx context.Context, topic string, env *events.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	key := env.UserID
	if key == "" {
		key = env.EventID.String()
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(cctx, kgo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  env.Timestamp,
		Headers: []kgo.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", topic, err)
	}

	logger.FromContextOrDefault(ctx, p.logger).Debug("wrote event to kafka",
		"topic", topic,
		"event_id", env.EventID)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// splitBrokers flattens comma-separated entries and drops blanks, so that
// both ["k1:9092", "k2:9092"] and ["k1:9092, k2:9092"] are accepted.
func splitBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, p := range strings.Split(entry, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
