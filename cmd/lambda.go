package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve the backup run as an AWS Lambda handler.",
	Long: `Starts the Lambda runtime loop. Each scheduled invocation runs one backup
cycle and returns the created and deleted snapshot ids. Configuration comes
from the environment (SNS_TOPIC_ARN, RETENTION_DAYS, SMARTVAULT_*).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context(), viper.GetViper())
		if err != nil {
			printBootstrapError(err)
			return err
		}
		lambda.StartWithOptions(application.HandleScheduledEvent, lambda.WithContext(cmd.Context()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
