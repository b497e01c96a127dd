package sns

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awserrors "github.com/olusolaa/smartvault/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

const NotifierTypeSNS = "sns"

// SNS rejects subjects longer than 100 characters.
const maxSubjectLength = 100

type Config struct {
	TopicARN string `mapstructure:"topic_arn" validate:"required,startswith=arn:"`
}

type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	config  Config
	client  PublishAPI
	limiter shared.RateLimiter
	logger  ports.Logger
}

func NewNotifier(cfg Config, client PublishAPI, limiter shared.RateLimiter, logger ports.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.TopicARN) == "" {
		return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
			"SNS notifier requires a topic ARN", "Set notification.sns.topic_arn or SNS_TOPIC_ARN.")
	}
	if client == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "SNS client cannot be nil")
	}
	return &Notifier{config: cfg, client: client, limiter: limiter, logger: logger}, nil
}

// NewNotifierFromConfig builds the SDK client from an AWS config.
func NewNotifierFromConfig(cfg Config, awsCfg aws.Config, limiter shared.RateLimiter, logger ports.Logger) (*Notifier, error) {
	return NewNotifier(cfg, sns.NewFromConfig(awsCfg), limiter, logger)
}

func (n *Notifier) Type() string {
	return NotifierTypeSNS
}

func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx, n.logger); err != nil {
			return awserrors.HandleAWSError("SNS topic", n.config.TopicARN, err, ctx)
		}
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Subject:  aws.String(truncateSubject(msg.Subject)),
		Message:  aws.String(msg.Body),
	})
	if err != nil {
		return awserrors.HandleAWSError("SNS topic", n.config.TopicARN, err, ctx)
	}
	n.logger.Infof(ctx, "Published notification to %s (message id %s)", n.config.TopicARN, aws.ToString(out.MessageId))
	return nil
}

func truncateSubject(subject string) string {
	subject = strings.ReplaceAll(subject, "\n", " ")
	if len(subject) <= maxSubjectLength {
		return subject
	}
	return subject[:maxSubjectLength]
}
