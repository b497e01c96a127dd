package domain

import "time"

type SkippedItem struct {
	Kind   ResourceKind
	ID     string
	Reason string
}

type Failure struct {
	Operation Operation
	Kind      ResourceKind
	ID        string
	Err       error
}

func (f Failure) Error() string {
	if f.Err == nil {
		return string(f.Operation) + " " + f.ID
	}
	return string(f.Operation) + " " + f.ID + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

type CreatedSnapshot struct {
	SnapshotID string
	InstanceID string
	VolumeID   string
}

// BackupSummary is the outcome of a single backup run.
type BackupSummary struct {
	RunAt         time.Time
	Date          string
	Identity      AccountIdentity
	Selector      map[string]string
	RetentionDays int
	DryRun        bool
	NoInstances   bool

	Created  []CreatedSnapshot
	Deleted  []string
	Skipped  []SkippedItem
	Failures []Failure
}

// CreatedIDs lists the ids of snapshots that exist. Dry-run entries carry
// no snapshot id and are left out.
func (s BackupSummary) CreatedIDs() []string {
	ids := make([]string, 0, len(s.Created))
	for _, c := range s.Created {
		if c.SnapshotID != "" {
			ids = append(ids, c.SnapshotID)
		}
	}
	return ids
}

// PlannedVolumeIDs lists the volumes a dry run would have snapshotted.
func (s BackupSummary) PlannedVolumeIDs() []string {
	var ids []string
	for _, c := range s.Created {
		if c.SnapshotID == "" {
			ids = append(ids, c.VolumeID)
		}
	}
	return ids
}

func (s BackupSummary) HasFailures() bool {
	return len(s.Failures) > 0
}
