package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Classify maps a raw SDK failure onto the outcome taxonomy.
//
// A response with status 404 maps to ErrNotFound. Any other status maps to
// ErrRequestFailed with the status, service error code and upstream message
// attached. Failures without a status map to ErrInternal. Context
// cancellation and deadline errors are returned unchanged.
//
// The cause stays in the chain, so errors.As still finds the
// *azcore.ResponseError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if KindOf(err) != CodeUnknown {
		return err
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("%w: status %d (%s): %w", ErrRequestFailed, respErr.StatusCode, respErr.ErrorCode, err)
	}

	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// StatusCode extracts the HTTP status code carried by an SDK response error.
func StatusCode(err error) (int, bool) {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode, true
	}
	return 0, false
}

// ServiceCode extracts the storage service error code (e.g. "BlobNotFound").
func ServiceCode(err error) string {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode
	}
	return ""
}

// IsStatusNotFound reports whether err carries an HTTP 404 from the service.
func IsStatusNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}
