package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

type Option func(*Reporter)

// WithWriter redirects the report away from stdout.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.writer = w }
}

func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	if logger == nil {
		return nil, apperrors.New(apperrors.CodeConfigValidation, "logger cannot be nil for text reporter")
	}
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if f, ok := r.writer.(*os.File); cfg.NoColor || !ok || !isTerminal(f) {
		color.NoColor = true
	}
	return r, nil
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, summary domain.BackupSummary) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	title := "Backup Run Report"
	if summary.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(tw, title)
	fmt.Fprintln(tw, "=================")
	fmt.Fprintf(tw, "Date:\t%s\n", summary.Date)
	if summary.Identity.AccountID != "" {
		fmt.Fprintf(tw, "Account:\t%s\n", summary.Identity.AccountID)
	}
	if summary.Identity.Region != "" {
		fmt.Fprintf(tw, "Region:\t%s\n", summary.Identity.Region)
	}
	fmt.Fprintf(tw, "Retention:\t%d days\n", summary.RetentionDays)

	if summary.NoInstances {
		fmt.Fprintln(tw, "\nNo instances matched the backup selector.")
		return nil
	}

	fmt.Fprintln(tw, "")
	fmt.Fprintln(tw, "Status\tKind\tIdentifier\tDetails")
	fmt.Fprintln(tw, "------\t----\t----------\t-------")

	for _, c := range summary.Created {
		id := c.SnapshotID
		if id == "" {
			id = "<planned>"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\tvolume %s of %s\n", green("[CREATED]"), domain.KindSnapshot, id, c.VolumeID, c.InstanceID)
	}
	for _, id := range summary.Deleted {
		fmt.Fprintf(tw, "%s\t%s\t%s\tolder than %d days\n", cyan("[DELETED]"), domain.KindSnapshot, id, summary.RetentionDays)
	}
	for _, s := range summary.Skipped {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", yellow("[SKIPPED]"), s.Kind, s.ID, s.Reason)
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", red("[FAILED]"), f.Kind, f.ID, failureDetails(f))
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Created:\t%s\n", green(len(summary.Created)))
	fmt.Fprintf(tw, "Deleted:\t%s\n", cyan(len(summary.Deleted)))
	fmt.Fprintf(tw, "Skipped:\t%s\n", yellow(len(summary.Skipped)))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(len(summary.Failures)))

	return nil
}

func failureDetails(f domain.Failure) string {
	details := fmt.Sprintf("%s failed: %v", f.Operation, f.Err)
	if msg, suggestion, ok := apperrors.GetUserFacingMessage(f.Err); ok && suggestion != "" {
		details += fmt.Sprintf(" (%s %s)", msg, suggestion)
	}
	return details
}
