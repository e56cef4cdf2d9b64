package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Category is the failure taxonomy used by the orchestration engine.
type Category string

const (
	CategoryValidation Category = "VALIDATION"
	CategorySystem     Category = "SYSTEM"
	CategoryData       Category = "DATA"
)

var localCodes = map[ErrorCode]bool{
	ErrCodeValidationFailed: true,
	ErrCodeStageLocked:      true,
	ErrCodeCandidateMissing: true,
}

// IsLocal reports whether the error was raised before any collaborator was called.
func IsLocal(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return localCodes[stdErr.Code]
	}
	return false
}

// Normalize always returns a StandardError. Foreign errors become retryable
// external-service errors so a surprise from a collaborator is treated as transient.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// FromPanic converts a recovered panic value into a SYSTEM failure.
func FromPanic(v interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   fmt.Sprintf("panic: %v", v),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CategoryOf classifies err. Non-standard errors are SYSTEM.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return CategorySystem
	}
	switch {
	case localCodes[stdErr.Code]:
		return CategoryValidation
	case stdErr.Retryable:
		return CategorySystem
	default:
		return CategoryData
	}
}

// IsRetryable reports whether err is eligible for automatic retry.
func IsRetryable(err error) bool {
	return CategoryOf(err) == CategorySystem
}

// CodeOf returns the StandardError code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}
