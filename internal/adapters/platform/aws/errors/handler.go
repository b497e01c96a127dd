package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/olusolaa/smartvault/internal/errors"
)

var (
	authErrorCodes = map[string]struct{}{
		"AuthFailure":           {},
		"UnauthorizedOperation": {},
		"AccessDenied":          {},
		"AccessDeniedException": {},
		"AuthorizationError":    {}, // SNS
		"InvalidClientTokenId":  {},
		"ExpiredToken":          {},
	}

	// Not-found is decided by code only: a delete reported as not found is
	// treated as already done.
	notFoundErrorCodes = map[string]struct{}{
		"InvalidInstanceID.NotFound": {},
		"InvalidVolume.NotFound":     {},
		"InvalidSnapshot.NotFound":   {},
		"NotFound":                   {}, // SNS topic
		"ResourceNotFoundException":  {},
		"NotFoundException":          {},
	}

	inUseErrorCodes = map[string]struct{}{
		"InvalidSnapshot.InUse":  {},
		"IncorrectState":         {},
		"IncorrectInstanceState": {},
	}

	throttleErrorCodes = map[string]struct{}{
		"RequestLimitExceeded":                  {},
		"Throttling":                            {},
		"ThrottlingException":                   {},
		"SnapshotCreationPerVolumeRateExceeded": {},
	}
)

// HandleAWSError maps an AWS SDK error onto an application error code.
// resourceType names what was being accessed (e.g. "EBS snapshot", "SNS topic")
// and resourceID identifies it.
func HandleAWSError(resourceType string, resourceID string, err error, ctx context.Context) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if stderrs.Is(err, context.DeadlineExceeded) || (ctx != nil && stderrs.Is(ctx.Err(), context.DeadlineExceeded)) {
		return errors.Wrap(err, errors.CodeTimeout,
			fmt.Sprintf("timed out during AWS %s API call", resourceType))
	}
	if stderrs.Is(err, context.Canceled) || (ctx != nil && ctx.Err() != nil) {
		return errors.Wrap(err, errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	code := errorCode(err)
	errMsg := err.Error()

	switch {
	case inSet(authErrorCodes, code) || containsAny(errMsg, "AuthFailure", "UnauthorizedOperation", "AccessDenied"):
		return errors.Wrap(err, errors.CodePlatformAuthError,
			fmt.Sprintf("AWS authentication error accessing %s %s", resourceType, resourceID))
	case inSet(inUseErrorCodes, code) || strings.Contains(errMsg, "is currently in use by"):
		return errors.Wrap(err, errors.CodeResourceInUse,
			fmt.Sprintf("%s '%s' is in use", resourceType, resourceID))
	case inSet(notFoundErrorCodes, code):
		return errors.Wrap(err, errors.CodeResourceNotFound,
			fmt.Sprintf("%s '%s' not found", resourceType, resourceID))
	case inSet(throttleErrorCodes, code):
		return errors.Wrap(err, errors.CodeThrottled,
			fmt.Sprintf("AWS throttled requests for %s '%s'", resourceType, resourceID))
	}

	return errors.Wrap(err, errors.CodePlatformAPIError,
		fmt.Sprintf("failed to access %s '%s'", resourceType, resourceID))
}

// errorCode extracts the service error code, or "" for non-API errors.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	var coded interface{ ErrorCode() string }
	if stderrs.As(err, &coded) && coded != nil {
		return coded.ErrorCode()
	}
	return ""
}

func inSet(set map[string]struct{}, code string) bool {
	if code == "" {
		return false
	}
	_, ok := set[code]
	return ok
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DefaultErrorHandler implements shared.ErrorHandler on top of HandleAWSError.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(service, operation string, err error, ctx context.Context) error {
	return HandleAWSError(service, operation, err, ctx)
}
