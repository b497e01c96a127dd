package json

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

const ReporterTypeJSON = "json"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Compact bool `mapstructure:"compact"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

type Option func(*Reporter)

func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.writer = w }
}

func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	if logger == nil {
		return nil, apperrors.New(apperrors.CodeConfigValidation, "logger cannot be nil for JSON reporter")
	}
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type jsonReport struct {
	RunAt         time.Time          `json:"run_at"`
	Date          string             `json:"date"`
	AccountID     string             `json:"account_id,omitempty"`
	Region        string             `json:"region,omitempty"`
	Selector      map[string]string  `json:"selector"`
	RetentionDays int                `json:"retention_days"`
	DryRun        bool               `json:"dry_run"`
	NoInstances   bool               `json:"no_instances"`
	Summary       jsonSummary        `json:"summary"`
	Created       []jsonCreated      `json:"created"`
	Deleted       []string           `json:"deleted"`
	Skipped       []jsonSkippedItem  `json:"skipped,omitempty"`
	Failures      []jsonFailureEntry `json:"failures,omitempty"`
}

type jsonSummary struct {
	Created  int `json:"created"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Failures int `json:"failures"`
}

type jsonCreated struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	InstanceID string `json:"instance_id"`
	VolumeID   string `json:"volume_id"`
}

type jsonSkippedItem struct {
	Kind   domain.ResourceKind `json:"kind"`
	ID     string              `json:"id"`
	Reason string              `json:"reason"`
}

type jsonFailureEntry struct {
	Operation    domain.Operation    `json:"operation"`
	Kind         domain.ResourceKind `json:"kind"`
	ID           string              `json:"id"`
	ErrorCode    string              `json:"error_code,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, summary domain.BackupSummary) error {
	if ctx.Err() != nil {
		r.logger.Warnf(ctx, "JSON report generation cancelled.")
		return ctx.Err()
	}

	report := jsonReport{
		RunAt:         summary.RunAt,
		Date:          summary.Date,
		AccountID:     summary.Identity.AccountID,
		Region:        summary.Identity.Region,
		Selector:      summary.Selector,
		RetentionDays: summary.RetentionDays,
		DryRun:        summary.DryRun,
		NoInstances:   summary.NoInstances,
		Summary: jsonSummary{
			Created:  len(summary.Created),
			Deleted:  len(summary.Deleted),
			Skipped:  len(summary.Skipped),
			Failures: len(summary.Failures),
		},
		Created: make([]jsonCreated, 0, len(summary.Created)),
		Deleted: make([]string, 0, len(summary.Deleted)),
	}
	for _, c := range summary.Created {
		report.Created = append(report.Created, jsonCreated(c))
	}
	report.Deleted = append(report.Deleted, summary.Deleted...)
	for _, s := range summary.Skipped {
		report.Skipped = append(report.Skipped, jsonSkippedItem(s))
	}
	for _, f := range summary.Failures {
		entry := jsonFailureEntry{Operation: f.Operation, Kind: f.Kind, ID: f.ID}
		if f.Err != nil {
			entry.ErrorMessage = f.Err.Error()
			if code := apperrors.GetCode(f.Err); code != apperrors.CodeUnknown {
				entry.ErrorCode = string(code)
			}
		}
		report.Failures = append(report.Failures, entry)
	}

	encoder := jsonAPI.NewEncoder(r.writer)
	if !r.config.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return apperrors.Wrap(err, apperrors.CodeReportError, fmt.Sprintf("failed to encode JSON report: %v", err))
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
