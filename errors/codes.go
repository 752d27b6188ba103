package errors

import (
	"context"
	"errors"
)

// ErrorCode represents the outcome kind of a failed operation.
// Codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeNotFound indicates a requested blob or container does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidInput indicates the provided input is invalid or was rejected.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeRequestFailed indicates the remote service returned an error status.
	CodeRequestFailed ErrorCode = "REQUEST_FAILED"

	// CodeCanceled indicates the caller canceled the operation or its deadline passed.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeInternal indicates an internal failure occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// KindOf maps an error to its outcome kind. A nil error has no kind and
// yields the empty code.
func KindOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidConfiguration):
		return CodeInvalidConfig
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrRequestFailed):
		return CodeRequestFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	case errors.Is(err, ErrInternal):
		return CodeInternal
	default:
		return CodeUnknown
	}
}
