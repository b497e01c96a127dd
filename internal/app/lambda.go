package app

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/olusolaa/smartvault/internal/errors"
)

const noInstancesMessage = "No instances to back up."

// LambdaResult is the payload returned to the scheduler that invoked the
// function.
type LambdaResult struct {
	Message string   `json:"message,omitempty"`
	Created []string `json:"created"`
	Deleted []string `json:"deleted"`
	// Planned lists the volumes a dry run would have snapshotted.
	Planned []string `json:"planned,omitempty"`
	Failed  int      `json:"failed,omitempty"`
}

// HandleScheduledEvent runs one backup cycle for an EventBridge schedule
// invocation. Per-snapshot failures are reported through Failed and the
// summary notification, not as an invocation error: an asynchronous
// invocation that errors is retried, and a retry snapshots every instance
// again. Aborted runs and notification failures are still returned.
func (a *Application) HandleScheduledEvent(ctx context.Context, event events.CloudWatchEvent) (LambdaResult, error) {
	if event.ID != "" {
		a.Logger.Infof(ctx, "Invoked by %s event %s at %s", event.Source, event.ID, event.Time.Format(time.RFC3339))
	}

	summary, err := a.Run(ctx)
	result := LambdaResult{
		Created: summary.CreatedIDs(),
		Deleted: append([]string{}, summary.Deleted...),
		Failed:  len(summary.Failures),
	}
	if summary.DryRun {
		result.Planned = summary.PlannedVolumeIDs()
	}
	if summary.NoInstances {
		result.Message = noInstancesMessage
	}
	if errors.Is(err, errors.CodePartialFailure) {
		a.Logger.Errorf(ctx, err, "Backup run finished with %d failure(s)", result.Failed)
		return result, nil
	}
	return result, err
}
