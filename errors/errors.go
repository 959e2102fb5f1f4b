package errors

import (
	"fmt"
	"net/http"
)

// AppError is a validation, configuration or fake-service error. Errors
// that come back from the Bkper API are *httpclient.HTTPError instead.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is used when the error is served by bkpertest.
	HTTPStatus int   `json:"-"`
	Cause      error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail entry and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Validation reports input that was rejected before anything was sent.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// MissingField reports an empty required argument such as a book id.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "missing required field: "+field, http.StatusBadRequest).
		WithDetail("field", field)
}

// InvalidConfig reports a configuration section the client cannot use.
func InvalidConfig(key, reason string) *AppError {
	return New(ErrCodeInvalidConfig, key+": "+reason, 0).WithDetail("key", key)
}

// NotFound reports a missing resource. id may be empty.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, resource+" not found", http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// Unauthorized reports a request without a usable credential.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "authentication required"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "internal error", http.StatusInternalServerError).WithCause(cause)
}
