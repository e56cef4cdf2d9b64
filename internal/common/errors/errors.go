// Package errors provides the standardized error model for onboarding checks.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Check failure codes. Guidance entries are keyed by these values.
const (
	ErrCodeIdentityCheckFailed    ErrorCode = "IDENTITY_CHECK_FAILED"
	ErrCodeIdentityInvalid        ErrorCode = "IDENTITY_INVALID"
	ErrCodeEligibilityCheckFailed ErrorCode = "ELIGIBILITY_CHECK_FAILED"
	ErrCodeNotEligible            ErrorCode = "NOT_ELIGIBLE"
	ErrCodeProfileLookupFailed    ErrorCode = "PROFILE_LOOKUP_FAILED"
	ErrCodeDocumentLookupFailed   ErrorCode = "DOCUMENT_LOOKUP_FAILED"

	ErrCodeReadinessContactMissing ErrorCode = "READINESS_CONTACT_MISSING"
	ErrCodeReadinessDeliveryFailed ErrorCode = "READINESS_DELIVERY_FAILED"

	ErrCodeCounterpartMappingFailed ErrorCode = "COUNTERPART_MAPPING_FAILED"
	ErrCodeCounterpartNotifyFailed  ErrorCode = "COUNTERPART_NOTIFY_FAILED"
	ErrCodeInterviewTaskFailed      ErrorCode = "INTERVIEW_TASK_FAILED"
	ErrCodeInterviewScheduleFailed  ErrorCode = "INTERVIEW_SCHEDULE_FAILED"
	ErrCodeInterviewStatusFailed    ErrorCode = "INTERVIEW_STATUS_FAILED"
	ErrCodeInterviewOutcomeFailed   ErrorCode = "INTERVIEW_OUTCOME_FAILED"

	ErrCodePrefillFailed        ErrorCode = "PREFILL_FAILED"
	ErrCodeFormShareFailed      ErrorCode = "FORM_SHARE_FAILED"
	ErrCodeUnsupportedChannel   ErrorCode = "UNSUPPORTED_CHANNEL"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeStageLocked          ErrorCode = "STAGE_LOCKED"
	ErrCodeCandidateMissing     ErrorCode = "CANDIDATE_MISSING"
	ErrCodeSnapshotIncompatible ErrorCode = "SNAPSHOT_INCOMPATIBLE"

	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Check Failure Constructors
// ==========================

// NewCheckFailure builds the failure marker a collaborator returns.
// Retryable failures are SYSTEM failures, the rest are DATA failures.
func NewCheckFailure(code ErrorCode, message string, retryable bool) *StandardError {
	return newError(code, message, "", retryable)
}

// NewIdentityCheckFailedError creates a retryable identity gateway error.
func NewIdentityCheckFailedError(details string) *StandardError {
	return newError(ErrCodeIdentityCheckFailed, "Identity verification failed", details, true)
}

// NewNotEligibleError creates a terminal eligibility outcome.
func NewNotEligibleError(details string) *StandardError {
	return newError(ErrCodeNotEligible, "Candidate is not eligible", details, false)
}

// NewReadinessContactMissingError creates a terminal delivery error that needs the operator to add contact details.
func NewReadinessContactMissingError(channel string) *StandardError {
	return newError(ErrCodeReadinessContactMissing, "Readiness link needs both SMS and email",
		fmt.Sprintf("missing: %s", channel), false)
}

// NewUnsupportedChannelError creates a terminal share error.
func NewUnsupportedChannelError(channel string) *StandardError {
	return newError(ErrCodeUnsupportedChannel, "Share channel is not supported",
		fmt.Sprintf("channel: %s", channel), false)
}

// NewSnapshotIncompatibleError creates a non-retryable snapshot load error.
func NewSnapshotIncompatibleError(details string) *StandardError {
	return newError(ErrCodeSnapshotIncompatible, "Snapshot does not match the current schema", details, false)
}

// ==========================
// 3. Local Errors
// ==========================

// NewValidationError creates a local input error. It never reaches the integration registry.
func NewValidationError(field, details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false).
		WithMetadata("field", field)
}

// NewStageLockedError reports an action attempted while its gate is closed.
func NewStageLockedError(details string) *StandardError {
	return newError(ErrCodeStageLocked, "Action is not available at this stage", details, false)
}

// NewCandidateMissingError reports an action attempted before a candidate exists.
func NewCandidateMissingError() *StandardError {
	return newError(ErrCodeCandidateMissing, "No candidate in progress", "", false)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

// ==========================
// 4. Utility Functions
// ==========================

// GetErrorCategory returns the functional area of an error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "IDENTITY") || strings.Contains(codeStr, "ELIGIB"):
		return "PROFILE"
	case strings.Contains(codeStr, "LOOKUP"):
		return "PROFILE"
	case strings.Contains(codeStr, "READINESS"):
		return "READINESS"
	case strings.Contains(codeStr, "COUNTERPART") || strings.Contains(codeStr, "INTERVIEW"):
		return "INTERVIEW"
	case strings.Contains(codeStr, "PREFILL") || strings.Contains(codeStr, "SHARE") || strings.Contains(codeStr, "CHANNEL"):
		return "ONBOARDING"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
