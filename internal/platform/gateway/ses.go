package gateway

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"golang.org/x/time/rate"

	"github.com/phrazzld/taskpulse/internal/notify"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/redact"
)

// sesAPI is the subset of *sesv2.Client used by SESGateway.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESGateway sends mail through AWS SES v2.
type SESGateway struct {
	client  sesAPI
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSESGateway creates an SESGateway sending from the given address.
func NewSESGateway(client sesAPI, from string, limiter *rate.Limiter, logger *slog.Logger) *SESGateway {
	return &SESGateway{
		client:  client,
		from:    from,
		limiter: limiter,
		logger:  logger.With("component", "ses_gateway"),
	}
}

// Send implements notify.Gateway.
func (g *SESGateway) Send(ctx context.Context, msg notify.Message) outcome.Result {
	log := logger.FromContextOrDefault(ctx, g.logger).With("recipient", redact.Email(msg.To))

	if err := g.limiter.Wait(ctx); err != nil {
		return outcome.Failed("rate limit wait", err)
	}

	out, err := g.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(g.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body)},
				},
			},
		},
	})
	if err != nil {
		log.Error("ses rejected message", "error", err)
		return outcome.Failed("send email", err)
	}

	log.Debug("ses accepted message", "message_id", aws.ToString(out.MessageId))
	return outcome.OK()
}
