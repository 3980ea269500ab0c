package gateway

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/notify"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/redact"
)

// LogGateway logs messages instead of delivering them and always succeeds.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a LogGateway.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger.With("component", "log_gateway")}
}

// Send implements notify.Gateway.
func (g *LogGateway) Send(ctx context.Context, msg notify.Message) outcome.Result {
	logger.FromContextOrDefault(ctx, g.logger).Info("notification not delivered, logging instead",
		"recipient", redact.Email(msg.To),
		"subject", msg.Subject,
		"body", msg.Body)
	return outcome.OK()
}
