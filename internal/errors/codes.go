package errors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeConfigValidation  Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError   Code = "CONFIG_READ_ERROR"
	CodeConfigParseError  Code = "CONFIG_PARSE_ERROR"
	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"
	CodeResourceInUse     Code = "RESOURCE_IN_USE"
	CodeThrottled         Code = "THROTTLED"
	CodeTimeout           Code = "TIMEOUT_ERROR"

	// Backup run specific codes
	CodeInventoryError    Code = "INVENTORY_ERROR"
	CodeSnapshotError     Code = "SNAPSHOT_ERROR"
	CodeTaggingError      Code = "TAGGING_ERROR"
	CodeRetentionError    Code = "RETENTION_ERROR"
	CodeNotificationError Code = "NOTIFICATION_ERROR"
	CodePartialFailure    Code = "PARTIAL_FAILURE"
	CodeReportError       Code = "REPORT_ERROR"
)

func (c Code) String() string {
	return string(c)
}
