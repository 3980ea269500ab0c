package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"golang.org/x/time/rate"

	"github.com/phrazzld/taskpulse/internal/config"
	"github.com/phrazzld/taskpulse/internal/notify"
)

// New builds the gateway selected by cfg.Driver. The http driver falls back
// to the log driver when no API key is configured.
func New(ctx context.Context, cfg config.GatewayConfig, logger *slog.Logger) (notify.Gateway, error) {
	limiter := newLimiter(cfg.RatePerSecond, cfg.Burst)

	switch cfg.Driver {
	case config.GatewayDriverLog:
		return NewLogGateway(logger), nil

	case config.GatewayDriverHTTP:
		if strings.TrimSpace(cfg.APIKey) == "" {
			logger.Warn("gateway api key not configured, notifications will only be logged")
			return NewLogGateway(logger), nil
		}
		return NewHTTPGateway(HTTPConfig{
			URL:      cfg.URL,
			APIKey:   cfg.APIKey,
			From:     cfg.From,
			FromName: cfg.FromName,
			Timeout:  cfg.Timeout,
		}, limiter, logger), nil

	case config.GatewayDriverSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewSESGateway(sesv2.NewFromConfig(awsCfg), cfg.From, limiter, logger), nil

	default:
		return nil, fmt.Errorf("unknown gateway driver %q", cfg.Driver)
	}
}

// newLimiter returns a limiter allowing rps sends per second. A non-positive
// rps disables throttling.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
