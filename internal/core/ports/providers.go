package ports

import (
	"context"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

// BackupPlatform is the cloud side of a backup run: instance inventory,
// snapshot lifecycle and tagging.
type BackupPlatform interface {
	Type() string
	Identity(ctx context.Context) (domain.AccountIdentity, error)
	ListInstances(ctx context.Context, filters map[string]string) ([]domain.Instance, error)
	CreateSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.Snapshot, error)
	TagSnapshot(ctx context.Context, snapshotID string, tags map[string]string) error
	// ListSnapshots returns snapshots owned by the caller that carry tagKey.
	ListSnapshots(ctx context.Context, tagKey string) ([]domain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error
}
