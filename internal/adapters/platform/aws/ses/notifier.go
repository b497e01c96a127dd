package ses

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	awserrors "github.com/olusolaa/smartvault/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

const NotifierTypeSES = "ses"

const charsetUTF8 = "UTF-8"

type Config struct {
	Source       string   `mapstructure:"source" validate:"required,email"`
	Destinations []string `mapstructure:"destinations" validate:"required,min=1,dive,email"`
}

type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Notifier emails the summary directly, for accounts without an SNS
// email subscription.
type Notifier struct {
	config  Config
	client  SendEmailAPI
	limiter shared.RateLimiter
	logger  ports.Logger
}

func NewNotifier(cfg Config, client SendEmailAPI, limiter shared.RateLimiter, logger ports.Logger) (*Notifier, error) {
	if cfg.Source == "" || len(cfg.Destinations) == 0 {
		return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
			"SES notifier requires a source address and at least one destination",
			"Set notification.ses.source and notification.ses.destinations.")
	}
	if client == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "SES client cannot be nil")
	}
	return &Notifier{config: cfg, client: client, limiter: limiter, logger: logger}, nil
}

func NewNotifierFromConfig(cfg Config, awsCfg aws.Config, limiter shared.RateLimiter, logger ports.Logger) (*Notifier, error) {
	return NewNotifier(cfg, ses.NewFromConfig(awsCfg), limiter, logger)
}

func (n *Notifier) Type() string {
	return NotifierTypeSES
}

func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx, n.logger); err != nil {
			return awserrors.HandleAWSError("SES identity", n.config.Source, err, ctx)
		}
	}

	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.config.Source),
		Destination: &types.Destination{ToAddresses: n.config.Destinations},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String(charsetUTF8)},
			},
		},
	})
	if err != nil {
		return awserrors.HandleAWSError("SES identity", n.config.Source, err, ctx)
	}
	n.logger.Infof(ctx, "Sent notification email to %d recipient(s) (message id %s)", len(n.config.Destinations), aws.ToString(out.MessageId))
	return nil
}
