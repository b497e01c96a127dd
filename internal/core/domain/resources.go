package domain

import "time"

// Instance is a compute instance selected for backup.
type Instance struct {
	ID    string
	Name  string
	State string
	Tags  map[string]string
	// VolumeIDs lists attached EBS volumes, root device first.
	VolumeIDs []string
}

type Snapshot struct {
	ID         string
	VolumeID   string
	InstanceID string
	State      string
	StartTime  time.Time
	Tags       map[string]string
}

type SnapshotRequest struct {
	InstanceID  string
	VolumeID    string
	Description string
}

type AccountIdentity struct {
	AccountID string
	Region    string
}

type Notification struct {
	Subject string
	Body    string
}
