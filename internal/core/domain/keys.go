package domain

const (
	// Tag keys
	TagName      = "Name"
	TagBackup    = "Backup"
	TagCreatedOn = "CreatedOn"
	// TagSourceInstance records which instance a snapshot was taken from.
	TagSourceInstance = "SourceInstanceId"
	TagPrefix         = "tag:" // Prefix for selecting by tag in generic filters

	DefaultSelectorValue     = "true"
	DefaultDateLayout        = "2006-01-02"
	DefaultRetentionDays     = 7
	DefaultDescriptionPrefix = "SmartVault snapshot of"
	DefaultSubject           = "SmartVault Backup Notification"

	// Generic filter keys understood by platform providers
	FilterInstanceID    = "instance_id"
	FilterInstanceState = "instance_state"
)

// DefaultSelector matches instances tagged Backup=true.
func DefaultSelector() map[string]string {
	return map[string]string{TagBackup: DefaultSelectorValue}
}
