package text

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/smartvault/internal/core/domain"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
	"github.com/olusolaa/smartvault/mocks"
)

func newTestReporter(t *testing.T) (*Reporter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	r, err := NewReporter(Config{NoColor: true}, mocks.NewPermissiveLogger(), WithWriter(buf))
	require.NoError(t, err)
	return r, buf
}

func TestNewReporter_RequiresLogger(t *testing.T) {
	_, err := NewReporter(Config{}, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}

func TestReport_ListsEveryOutcome(t *testing.T) {
	r, buf := newTestReporter(t)
	summary := domain.BackupSummary{
		Date:          "2026-03-15",
		Identity:      domain.AccountIdentity{AccountID: "111122223333", Region: "us-east-1"},
		RetentionDays: 7,
		Created:       []domain.CreatedSnapshot{{SnapshotID: "snap-1", InstanceID: "i-1", VolumeID: "vol-1"}},
		Deleted:       []string{"snap-old"},
		Skipped:       []domain.SkippedItem{{Kind: domain.KindInstance, ID: "i-2", Reason: "no EBS volume attached"}},
		Failures: []domain.Failure{{
			Operation: domain.OpDeleteSnapshot, Kind: domain.KindSnapshot, ID: "snap-x",
			Err: apperrors.NewUserFacing(apperrors.CodePlatformAuthError, "access denied", "Grant ec2:DeleteSnapshot."),
		}},
	}

	require.NoError(t, r.Report(context.Background(), summary))

	out := buf.String()
	assert.Contains(t, out, "Backup Run Report")
	assert.Contains(t, out, "111122223333")
	assert.Regexp(t, `\[CREATED\]\s+Snapshot\s+snap-1\s+volume vol-1 of i-1`, out)
	assert.Regexp(t, `\[DELETED\]\s+Snapshot\s+snap-old\s+older than 7 days`, out)
	assert.Regexp(t, `\[SKIPPED\]\s+Instance\s+i-2\s+no EBS volume attached`, out)
	assert.Regexp(t, `\[FAILED\]\s+Snapshot\s+snap-x\s+DeleteSnapshot failed`, out)
	assert.Contains(t, out, "Grant ec2:DeleteSnapshot.")
	assert.Regexp(t, `Failed:\s+1`, out)
}

func TestReport_NoInstances(t *testing.T) {
	r, buf := newTestReporter(t)

	require.NoError(t, r.Report(context.Background(), domain.BackupSummary{Date: "2026-03-15", NoInstances: true}))

	assert.Contains(t, buf.String(), "No instances matched the backup selector.")
	assert.NotContains(t, buf.String(), "Summary:")
}

func TestReport_DryRunPlannedSnapshots(t *testing.T) {
	r, buf := newTestReporter(t)

	require.NoError(t, r.Report(context.Background(), domain.BackupSummary{
		DryRun:  true,
		Created: []domain.CreatedSnapshot{{InstanceID: "i-1", VolumeID: "vol-1"}},
	}))

	assert.Contains(t, buf.String(), "(dry run)")
	assert.Contains(t, buf.String(), "<planned>")
}

func TestReport_CancelledContext(t *testing.T) {
	r, buf := newTestReporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Report(ctx, domain.BackupSummary{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestFailureDetails_PlainError(t *testing.T) {
	got := failureDetails(domain.Failure{Operation: domain.OpCreateSnapshot, Err: fmt.Errorf("quota")})
	assert.Equal(t, "CreateSnapshot failed: quota", got)
}
