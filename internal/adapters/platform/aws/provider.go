package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/ec2"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/ses"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/sns"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	"github.com/olusolaa/smartvault/internal/errors"
)

const ProviderTypeAWS = "aws"

type Config struct {
	Region       string `mapstructure:"region"`
	Profile      string `mapstructure:"profile"`
	RateLimitRPS int    `mapstructure:"rate_limit_rps" validate:"gte=0,lte=100"`
}

// SnapshotPlatform is the handler surface the provider delegates to.
type SnapshotPlatform interface {
	Identity(ctx context.Context) (domain.AccountIdentity, error)
	ListInstances(ctx context.Context, filters map[string]string) ([]domain.Instance, error)
	CreateSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.Snapshot, error)
	TagSnapshot(ctx context.Context, snapshotID string, tags map[string]string) error
	ListSnapshots(ctx context.Context, tagKey string) ([]domain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error
}

// Provider implements ports.BackupPlatform for AWS and builds the AWS-backed
// notifiers so they share its credentials and rate limiter.
type Provider struct {
	awsConfig aws.Config
	handler   SnapshotPlatform
	limiter   *limiter.Limiter
	logger    ports.Logger
}

func NewProvider(ctx context.Context, cfg Config, logger ports.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for AWS Provider")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation, "failed to load AWS configuration",
			"Check AWS credentials, profile and region settings.")
	}
	if awsCfg.Region == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no AWS region configured",
			"Set platform.aws.region or AWS_REGION.")
	}

	l := limiter.New(cfg.RateLimitRPS, logger)
	handlerLog := logger.WithFields(map[string]any{"handler": "ec2"})
	handler := ec2.NewHandler(awsCfg, handlerLog, ec2.WithRateLimiter(l))

	return newProvider(awsCfg, handler, l, logger), nil
}

func newProvider(awsCfg aws.Config, handler SnapshotPlatform, l *limiter.Limiter, logger ports.Logger) *Provider {
	return &Provider{
		awsConfig: awsCfg,
		handler:   handler,
		limiter:   l,
		logger:    logger,
	}
}

func (p *Provider) Type() string {
	return ProviderTypeAWS
}

func (p *Provider) Region() string {
	return p.awsConfig.Region
}

// rateLimiter avoids handing out a typed nil when no limiter was configured.
func (p *Provider) rateLimiter() shared.RateLimiter {
	if p.limiter == nil {
		return nil
	}
	return p.limiter
}

func (p *Provider) NewSNSNotifier(cfg sns.Config, logger ports.Logger) (ports.Notifier, error) {
	return sns.NewNotifierFromConfig(cfg, p.awsConfig, p.rateLimiter(), logger)
}

func (p *Provider) NewSESNotifier(cfg ses.Config, logger ports.Logger) (ports.Notifier, error) {
	return ses.NewNotifierFromConfig(cfg, p.awsConfig, p.rateLimiter(), logger)
}

func (p *Provider) Identity(ctx context.Context) (domain.AccountIdentity, error) {
	return p.handler.Identity(ctx)
}

func (p *Provider) ListInstances(ctx context.Context, filters map[string]string) ([]domain.Instance, error) {
	p.logger.Debugf(ctx, "Listing EC2 instances with filters %v", filters)
	return p.handler.ListInstances(ctx, filters)
}

func (p *Provider) CreateSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.Snapshot, error) {
	return p.handler.CreateSnapshot(ctx, req)
}

func (p *Provider) TagSnapshot(ctx context.Context, snapshotID string, tags map[string]string) error {
	return p.handler.TagSnapshot(ctx, snapshotID, tags)
}

func (p *Provider) ListSnapshots(ctx context.Context, tagKey string) ([]domain.Snapshot, error) {
	return p.handler.ListSnapshots(ctx, tagKey)
}

func (p *Provider) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	return p.handler.DeleteSnapshot(ctx, snapshotID)
}
