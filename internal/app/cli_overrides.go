package app

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/sns"
	"github.com/olusolaa/smartvault/internal/config"
	"github.com/olusolaa/smartvault/pkg/convert"
)

// Viper keys for flags that patch the decoded config rather than binding
// to a config key directly.
const (
	SelectorOverrideKey = "selector"
	TopicARNOverrideKey = "topic_arn"
)

// applyCLIOverrides returns a description of each override it applied.
func applyCLIOverrides(cfg *config.Config, v *viper.Viper) []string {
	var applied []string

	if selector := parseSelectorOverride(v.GetString(SelectorOverrideKey)); selector != nil {
		cfg.Backup.Selector = selector
		applied = append(applied, "selector="+convert.FormatTags(selector))
	}

	if arn := strings.TrimSpace(v.GetString(TopicARNOverrideKey)); arn != "" {
		if cfg.Notification.SNS == nil {
			cfg.Notification.SNS = &sns.Config{}
		}
		cfg.Notification.SNS.TopicARN = arn
		applied = append(applied, "topic_arn="+arn)
	}

	return applied
}

func parseSelectorOverride(override string) map[string]string {
	if strings.TrimSpace(override) == "" {
		return nil
	}
	parsed := convert.ParseTags(override)
	if len(parsed) == 0 {
		return nil
	}
	return parsed
}
