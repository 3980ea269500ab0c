package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/phrazzld/taskpulse/internal/notify"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/redact"
)

// HTTPConfig configures an HTTPGateway.
type HTTPConfig struct {
	URL      string
	APIKey   string
	From     string
	FromName string
	Timeout  time.Duration
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPersonalization struct {
	To      []mailAddress `json:"to"`
	Subject string        `json:"subject"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Content          []mailContent         `json:"content"`
}

// HTTPGateway sends mail through a SendGrid-compatible JSON API. Any 2xx
// response counts as delivered.
type HTTPGateway struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPGateway creates an HTTPGateway throttled by limiter.
func NewHTTPGateway(cfg HTTPConfig, limiter *rate.Limiter, logger *slog.Logger) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With("component", "http_gateway"),
	}
}

// Send implements notify.Gateway.
func (g *HTTPGateway) Send(ctx context.Context, msg notify.Message) outcome.Result {
	log := logger.FromContextOrDefault(ctx, g.logger).With("recipient", redact.Email(msg.To))

	if err := g.limiter.Wait(ctx); err != nil {
		return outcome.Failed("rate limit wait", err)
	}

	payload, err := json.Marshal(mailRequest{
		Personalizations: []mailPersonalization{{
			To:      []mailAddress{{Email: msg.To}},
			Subject: msg.Subject,
		}},
		From:    mailAddress{Email: g.cfg.From, Name: g.cfg.FromName},
		Content: []mailContent{{Type: "text/plain", Value: msg.Body}},
	})
	if err != nil {
		return outcome.Failed("marshal mail request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return outcome.Failed("build mail request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		log.Error("mail api request failed", "error", redact.Error(err))
		return outcome.Failed("send email", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		err := fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		log.Error("mail api rejected message", "error", err)
		return outcome.Failed("send email", err)
	}

	log.Debug("mail accepted", "status", res.StatusCode)
	return outcome.OK()
}
