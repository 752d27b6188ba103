// Package errors provides error types and handling for Azure Blob Storage operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a blob storage operation error with context about the operation that failed.
// It wraps the underlying Azure SDK error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "download", "move")
	Op string

	// Container is the blob container name (if applicable)
	Container string

	// Blob is the blob name (if applicable)
	Blob string

	// Err is the underlying error from the Azure SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Container != "" && e.Blob != "" {
		return fmt.Sprintf("blobstore.%s %s/%s: %v", e.Op, e.Container, e.Blob, e.Err)
	}
	if e.Container != "" {
		return fmt.Sprintf("blobstore.%s container %s: %v", e.Op, e.Container, e.Err)
	}
	if e.Blob != "" {
		return fmt.Sprintf("blobstore.%s blob %s: %v", e.Op, e.Blob, e.Err)
	}
	return fmt.Sprintf("blobstore.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the outcome kind of the wrapped error.
func (e *Error) Code() ErrorCode {
	return KindOf(e.Err)
}

// WithContainer adds container context to an existing error.
func (e *Error) WithContainer(container string) *Error {
	e.Container = container
	return e
}

// WithBlob adds blob name context to an existing error.
func (e *Error) WithBlob(blob string) *Error {
	e.Blob = blob
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%w: %s", e.Err, message)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewContainerError creates a new Error with container context.
func NewContainerError(op, container string, err error) *Error {
	return &Error{
		Op:        op,
		Container: container,
		Err:       err,
	}
}

// NewBlobError creates a new Error with container and blob context.
func NewBlobError(op, container, blob string, err error) *Error {
	return &Error{
		Op:        op,
		Container: container,
		Blob:      blob,
		Err:       err,
	}
}

// Sentinel errors for the outcome kinds surfaced to callers.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfiguration indicates a missing or malformed connection string or option
	ErrInvalidConfiguration = errors.New("blobstore: invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid or the
	// remote service rejected the request
	ErrInvalidInput = errors.New("blobstore: invalid input")

	// ErrNotFound indicates that the requested blob or container does not exist
	ErrNotFound = errors.New("blobstore: not found")

	// ErrRequestFailed indicates the remote service answered with a non-success status
	ErrRequestFailed = errors.New("blobstore: request failed")

	// ErrInternal indicates a failure without a remote status (transport, local I/O)
	ErrInternal = errors.New("blobstore: internal error")
)

// IsNotFound checks if an error indicates that a blob or container was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidConfiguration checks if an error indicates a configuration problem.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsRequestFailed checks if an error indicates a remote request failure.
func IsRequestFailed(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// IsInternal checks if an error indicates an internal failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
