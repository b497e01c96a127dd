package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/smartvault/internal/adapters/platform/aws"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/ses"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/sns"
	"github.com/olusolaa/smartvault/internal/config"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	"github.com/olusolaa/smartvault/internal/core/service"
	"github.com/olusolaa/smartvault/internal/errors"
	"github.com/olusolaa/smartvault/internal/log"
	"github.com/olusolaa/smartvault/internal/reporting/json"
	"github.com/olusolaa/smartvault/internal/reporting/text"
)

// notifierFactory builds notifiers that share the platform's credentials.
type notifierFactory interface {
	NewSNSNotifier(cfg sns.Config, logger ports.Logger) (ports.Notifier, error)
	NewSESNotifier(cfg ses.Config, logger ports.Logger) (ports.Notifier, error)
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper) (*Application, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	overrides := applyCLIOverrides(cfg, v)

	logger, err := log.NewLogger(log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, err
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}
	for _, o := range overrides {
		logger.Debugf(ctx, "Applied command line override %s", o)
	}

	if err := config.Validate(ctx, cfg); err != nil {
		logger.Errorf(ctx, err, "Configuration validation failed")
		return nil, err
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	provLog := logger.WithFields(map[string]any{"provider": aws.ProviderTypeAWS})
	provider, err := aws.NewProvider(ctx, *cfg.Platform.AWS, provLog)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize AWS provider")
	}
	provLog.Infof(ctx, "Using AWS platform provider (Region: %s)", provider.Region())

	return buildApplication(ctx, cfg, provider, provider, logger)
}

func buildApplication(ctx context.Context, cfg *config.Config, platform ports.BackupPlatform, factory notifierFactory, logger ports.Logger) (*Application, error) {
	notifier, err := buildNotifier(ctx, cfg.Notification, factory, logger)
	if err != nil {
		return nil, err
	}
	reporter, err := buildReporter(ctx, cfg.Settings, logger)
	if err != nil {
		return nil, err
	}

	logger.Debugf(ctx, "Initializing backup engine")
	engine, err := service.NewBackupEngine(
		platform, notifier, reporter, logger.WithFields(map[string]any{"component": "engine"}),
		engineConfig(cfg),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize backup engine")
	}

	logger.Infof(ctx, "Application bootstrap complete")
	return NewApplication(engine, logger, cfg), nil
}

func buildNotifier(ctx context.Context, cfg config.NotificationConfig, factory notifierFactory, logger ports.Logger) (ports.Notifier, error) {
	notifyLog := logger.WithFields(map[string]any{"component": "notifier", "type": cfg.Type})
	switch cfg.Type {
	case sns.NotifierTypeSNS:
		if cfg.SNS == nil {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation, "SNS notifier selected without a topic",
				"Set notification.sns.topic_arn or SNS_TOPIC_ARN.")
		}
		n, err := factory.NewSNSNotifier(*cfg.SNS, notifyLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize SNS notifier")
		}
		notifyLog.Infof(ctx, "Using SNS notifier: %s", cfg.SNS.TopicARN)
		return n, nil
	case ses.NotifierTypeSES:
		if cfg.SES == nil {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation, "SES notifier selected without sender or recipients",
				"Set notification.ses.source and notification.ses.destinations.")
		}
		n, err := factory.NewSESNotifier(*cfg.SES, notifyLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize SES notifier")
		}
		notifyLog.Infof(ctx, "Using SES notifier from %s to %d recipient(s)", cfg.SES.Source, len(cfg.SES.Destinations))
		return n, nil
	case config.NotifierTypeNone:
		notifyLog.Infof(ctx, "Notifications disabled, summaries will only be logged")
		return &logNotifier{logger: notifyLog}, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported notifier type: %s", cfg.Type), "Supported: sns, ses, none")
	}
}

func buildReporter(ctx context.Context, cfg config.SettingsConfig, logger ports.Logger) (ports.Reporter, error) {
	reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": cfg.ReporterType})
	switch cfg.ReporterType {
	case text.ReporterTypeText:
		textCfg := text.Config{}
		if cfg.Reporter.Text != nil {
			textCfg = *cfg.Reporter.Text
		}
		reporter, err := text.NewReporter(textCfg, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize Text reporter")
		}
		reportLog.Infof(ctx, "Using Text reporter (Color: %t)", !textCfg.NoColor)
		return reporter, nil
	case json.ReporterTypeJSON:
		jsonCfg := json.Config{}
		if cfg.Reporter.JSON != nil {
			jsonCfg = *cfg.Reporter.JSON
		}
		reporter, err := json.NewReporter(jsonCfg, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize JSON reporter")
		}
		reportLog.Infof(ctx, "Using JSON reporter")
		return reporter, nil
	case config.ReporterTypeNone:
		return nil, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, fmt.Sprintf("unsupported reporter type: %s", cfg.ReporterType), "Supported: text, json, none")
	}
}

func engineConfig(cfg *config.Config) service.EngineConfig {
	return service.EngineConfig{
		Selector:          cfg.Backup.Selector,
		DateTagKey:        cfg.Backup.DateTagKey,
		DateLayout:        cfg.Backup.DateLayout,
		RetentionDays:     cfg.Backup.RetentionDays,
		DescriptionPrefix: cfg.Backup.DescriptionPrefix,
		AllVolumes:        cfg.Backup.AllVolumes,
		ExtraTags:         cfg.Backup.ExtraTags,
		Subject:           cfg.Notification.Subject,
		Concurrency:       cfg.Settings.Concurrency,
		DryRun:            cfg.Settings.DryRun,
	}
}

// logNotifier stands in when delivery is disabled.
type logNotifier struct {
	logger ports.Logger
}

func (n *logNotifier) Type() string {
	return config.NotifierTypeNone
}

func (n *logNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	n.logger.Infof(ctx, "%s\n%s", notification.Subject, notification.Body)
	return nil
}
