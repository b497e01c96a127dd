package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/olusolaa/smartvault/internal/adapters/platform/aws"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/ses"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/sns"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/errors"
	"github.com/olusolaa/smartvault/internal/log"
	"github.com/olusolaa/smartvault/internal/reporting/json"
	"github.com/olusolaa/smartvault/internal/reporting/text"
	"github.com/olusolaa/smartvault/pkg/convert"
)

const (
	ReporterTypeNone = "none"
	NotifierTypeNone = "none"
)

type Config struct {
	Settings     SettingsConfig     `mapstructure:"settings"`
	Backup       BackupConfig       `mapstructure:"backup"`
	Platform     PlatformConfig     `mapstructure:"platform"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type SettingsConfig struct {
	LogLevel     log.Level       `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    log.Format      `mapstructure:"log_format" validate:"oneof=text json"`
	Concurrency  int             `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	DryRun       bool            `mapstructure:"dry_run"`
	ReporterType string          `mapstructure:"reporter" validate:"oneof=text json none"`
	Reporter     ReporterConfigs `mapstructure:"reporter_config"`
	// Timeout bounds a whole run. Zero means no limit beyond the caller's.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type ReporterConfigs struct {
	Text *text.Config `mapstructure:"text"`
	JSON *json.Config `mapstructure:"json"`
}

type BackupConfig struct {
	// Selector and ExtraTags are written as "Key=Value" pairs so tag key
	// case survives viper, which lowercases map keys.
	Selector          map[string]string `mapstructure:"selector" validate:"required,min=1"`
	DateTagKey        string            `mapstructure:"date_tag_key" validate:"required"`
	DateLayout        string            `mapstructure:"date_layout" validate:"required"`
	RetentionDays     int               `mapstructure:"retention_days" validate:"gte=1"`
	DescriptionPrefix string            `mapstructure:"description_prefix"`
	AllVolumes        bool              `mapstructure:"all_volumes"`
	ExtraTags         map[string]string `mapstructure:"extra_tags"`
}

type PlatformConfig struct {
	AWS *aws.Config `mapstructure:"aws" validate:"required"`
}

type NotificationConfig struct {
	Type    string      `mapstructure:"type" validate:"oneof=sns ses none"`
	Subject string      `mapstructure:"subject" validate:"required,max=100"`
	SNS     *sns.Config `mapstructure:"sns" validate:"required_if=Type sns"`
	SES     *ses.Config `mapstructure:"ses" validate:"required_if=Type ses"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:     log.LevelInfo,
			LogFormat:    log.FormatText,
			Concurrency:  4,
			ReporterType: text.ReporterTypeText,
			Reporter: ReporterConfigs{
				Text: &text.Config{NoColor: false},
				JSON: &json.Config{},
			},
			Timeout: 10 * time.Minute,
		},
		Backup: BackupConfig{
			Selector:          domain.DefaultSelector(),
			DateTagKey:        domain.TagCreatedOn,
			DateLayout:        domain.DefaultDateLayout,
			RetentionDays:     domain.DefaultRetentionDays,
			DescriptionPrefix: domain.DefaultDescriptionPrefix,
		},
		Platform: PlatformConfig{
			AWS: &aws.Config{},
		},
		Notification: NotificationConfig{
			Type:    sns.NotifierTypeSNS,
			Subject: domain.DefaultSubject,
		},
	}
}

// SetDefaults registers every key with viper so AutomaticEnv can see it
// during Unmarshal, and binds the environment names used by the scheduled
// function deployment.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("settings.log_level", string(def.Settings.LogLevel))
	v.SetDefault("settings.log_format", string(def.Settings.LogFormat))
	v.SetDefault("settings.concurrency", def.Settings.Concurrency)
	v.SetDefault("settings.dry_run", def.Settings.DryRun)
	v.SetDefault("settings.reporter", def.Settings.ReporterType)
	v.SetDefault("settings.reporter_config.text.no_color", false)
	v.SetDefault("settings.reporter_config.json.compact", false)
	v.SetDefault("settings.timeout", def.Settings.Timeout.String())

	v.SetDefault("backup.selector", convert.FormatTags(def.Backup.Selector))
	v.SetDefault("backup.date_tag_key", def.Backup.DateTagKey)
	v.SetDefault("backup.date_layout", def.Backup.DateLayout)
	v.SetDefault("backup.retention_days", def.Backup.RetentionDays)
	v.SetDefault("backup.description_prefix", def.Backup.DescriptionPrefix)
	v.SetDefault("backup.all_volumes", false)

	v.SetDefault("platform.aws.region", "")
	v.SetDefault("platform.aws.profile", "")
	v.SetDefault("platform.aws.rate_limit_rps", 0)

	v.SetDefault("notification.type", def.Notification.Type)
	v.SetDefault("notification.subject", def.Notification.Subject)

	_ = v.BindEnv("notification.sns.topic_arn", "SMARTVAULT_NOTIFICATION_SNS_TOPIC_ARN", "SNS_TOPIC_ARN")
	_ = v.BindEnv("backup.retention_days", "SMARTVAULT_BACKUP_RETENTION_DAYS", "RETENTION_DAYS")
	_ = v.BindEnv("platform.aws.region", "SMARTVAULT_PLATFORM_AWS_REGION", "AWS_REGION")
}

// Load decodes viper's merged view into a Config. It does not validate.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	// Decoding merges into existing maps; the defaults come from viper instead.
	cfg.Backup.Selector = nil
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		StringToTagMapHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigParseError, "failed to unmarshal configuration",
			"Check the types of values in your configuration file and environment.")
	}

	if cfg.Notification.SNS != nil && cfg.Notification.SNS.TopicARN == "" && cfg.Notification.Type != sns.NotifierTypeSNS {
		cfg.Notification.SNS = nil
	}
	return cfg, nil
}

func Validate(ctx context.Context, cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}
	var details strings.Builder
	details.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file, environment or flags.")
}

// StringToTagMapHookFunc decodes a "Key=Value" string or list of such
// strings into a map[string]string.
func StringToTagMapHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(map[string]string{})
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != target {
			return data, nil
		}
		return convert.ToTagMap(data)
	}
}
