package bkper

import (
	"errors"
	"fmt"
)

// DecodeError is returned when a successful response body does not decode
// into the requested type.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("bkper: decode response (HTTP %d): %v", e.StatusCode, e.Err)
}

// Unwrap returns the JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
