package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// StatusError is returned when the sidecar answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pubsub: status=%d body=%s", e.StatusCode, e.Body)
}

// HTTPBus publishes envelopes through a pub/sub sidecar.
type HTTPBus struct {
	baseURL    string
	pubsubName string
	client     *http.Client
	logger     *slog.Logger
}

// NewHTTPBus creates a bus client for the sidecar at baseURL. timeout bounds
// every request.
func NewHTTPBus(baseURL, pubsubName string, timeout time.Duration, logger *slog.Logger) *HTTPBus {
	return &HTTPBus{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pubsubName: pubsubName,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With("component", "http_bus"),
	}
}

// Send implements events.Transport.
func (b *HTTPBus) Send(ctx context.Context, topic string, env *events.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1.0/publish/%s/%s",
		b.baseURL, url.PathEscape(b.pubsubName), url.PathEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	defer res.Body.Close()

	if err := checkStatus(res); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, b.logger).Debug("published to sidecar",
		"topic", topic,
		"event_id", env.EventID)
	return nil
}

// Subscribe returns a consumer.Source that polls topic on behalf of group.
func (b *HTTPBus) Subscribe(topic, group string) *Subscription {
	return &Subscription{
		bus:   b,
		topic: topic,
		group: group,
	}
}

// Subscription polls one topic for one consumer group. The sidecar
// acknowledges messages as it hands them out, so fetched messages carry no
// commit function.
type Subscription struct {
	bus   *HTTPBus
	topic string
	group string
}

// Fetch implements consumer.Source.
func (s *Subscription) Fetch(ctx context.Context) ([]consumer.Message, error) {
	q := url.Values{}
	q.Set("topic", s.topic)
	q.Set("group", s.group)
	endpoint := s.bus.baseURL + "/v1.0/subscribe?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build subscribe request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.bus.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll %s: %w", s.topic, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := checkStatus(res); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poll response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}

	msgs := make([]consumer.Message, 0, len(raw))
	for _, r := range raw {
		msgs = append(msgs, consumer.Message{Topic: s.topic, Body: []byte(r)})
	}
	return msgs, nil
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
}
