package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/smartvault/internal/app"
	"github.com/olusolaa/smartvault/internal/config"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

var (
	cfgFile          string
	logLevel         string
	logFormat        string
	dryRun           bool
	retentionDays    int
	selectorOverride string
	topicARN         string
)

var rootCmd = &cobra.Command{
	Use:   "smartvault",
	Short: "Snapshots tagged EC2 volumes and expires old snapshots.",
	Long: `SmartVault snapshots the EBS volumes of every EC2 instance carrying the
backup tag, stamps each snapshot with its creation date, deletes snapshots
older than the retention window and sends one summary notification.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		application, bootstrapErr := bootstrap(cmd.Context(), viper.GetViper())
		if bootstrapErr != nil {
			printBootstrapError(bootstrapErr)
			return bootstrapErr
		}

		_, runErr := application.Run(cmd.Context())
		if runErr != nil {
			userMsg, suggestion, _ := apperrors.GetUserFacingMessage(runErr)
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
			if suggestion != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
			}
			return runErr
		}

		return nil
	},
}

func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .smartvault.yaml in . or $HOME)")
	flags.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	flags.BoolVar(&dryRun, "dry-run", false, "Report what would be snapshotted and deleted without changing anything")
	flags.IntVar(&retentionDays, "retention-days", 0, "Override the snapshot retention window in days")
	flags.StringVar(&selectorOverride, "selector", "", "Override the instance tag selector (e.g., 'Backup=true;Env=prod')")
	flags.StringVar(&topicARN, "topic-arn", "", "Override the SNS topic that receives the summary")

	bindFlag("settings.log_level", "log-level")
	bindFlag("settings.log_format", "log-format")
	bindFlag("settings.dry_run", "dry-run")
	bindFlag("backup.retention_days", "retention-days")
	bindFlag(app.SelectorOverrideKey, "selector")
	bindFlag(app.TopicARNOverrideKey, "topic-arn")

	viper.SetEnvPrefix("SMARTVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())
}

// bindFlag binds only flags the user actually set, so unset flags never
// shadow config file or environment values with their zero defaults.
func bindFlag(key, name string) {
	flag := rootCmd.PersistentFlags().Lookup(name)
	cobra.OnInitialize(func() {
		if flag.Changed {
			_ = viper.BindPFlag(key, flag)
		}
	})
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".smartvault")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using configuration file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}

	return nil
}

func printBootstrapError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: Application initialization failed: %v\n", err)
	if appErr := (*apperrors.AppError)(nil); errors.As(err, &appErr) {
		if appErr.IsUserFacing {
			fmt.Fprintf(os.Stderr, "Error Details: %s\n", appErr.Message)
			if appErr.SuggestedAction != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", appErr.SuggestedAction)
			}
		}
	}
}
