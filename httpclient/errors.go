package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, reset, DNS).
	ErrCodeConnection
	// ErrCodeAuth indicates an authentication/authorization failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates the service rejected the request (other 4xx).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
	// ErrCodeCanceled indicates the caller canceled the request context.
	ErrCodeCanceled
	// ErrCodeUnexpectedStatus indicates a status outside 2xx, 4xx and 5xx.
	ErrCodeUnexpectedStatus
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeUnexpectedStatus:
		return "unexpected_status"
	default:
		return "unknown"
	}
}

// HTTPError is returned when the service answered with a non-2xx status.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Code classifies the status.
	Code ErrorCode
	// Message is taken from the error body when present, else the status text.
	Message string
	// Body is the raw response body.
	Body []byte
	// Headers are the response headers.
	Headers http.Header
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// DecodeBody decodes the JSON error body into v.
func (e *HTTPError) DecodeBody(v any) error {
	return json.Unmarshal(e.Body, v)
}

// TransportError is returned when no HTTP response was received.
type TransportError struct {
	// Code is ErrCodeTimeout, ErrCodeCanceled or ErrCodeConnection.
	Code ErrorCode
	// Method and URL identify the failed call.
	Method string
	URL    string
	// Err is the underlying network error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("httpclient: %s: %s %s: %v", e.Code, e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	return e.Code == ErrCodeTimeout
}

// ClassifyStatusCode converts a response status into an *HTTPError.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte, headers http.Header) *HTTPError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var code ErrorCode
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		code = ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		code = ErrCodeValidation
	case statusCode >= 500 && statusCode < 600:
		code = ErrCodeServer
	default:
		code = ErrCodeUnexpectedStatus
	}
	return &HTTPError{
		StatusCode: statusCode,
		Code:       code,
		Message:    errorMessage(statusCode, body),
		Body:       body,
		Headers:    headers,
	}
}

// errorMessage pulls a human-readable message out of common error body
// shapes: {"error":{"message":..}}, {"error":".."}, {"message":".."}.
func errorMessage(statusCode int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "error", "message"} {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// AsHTTPError returns the *HTTPError in err's chain, if any.
func AsHTTPError(err error) (*HTTPError, bool) {
	var e *HTTPError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0 if none.
func StatusCode(err error) int {
	if e, ok := AsHTTPError(err); ok {
		return e.StatusCode
	}
	return 0
}

func hasCode(err error, code ErrorCode) bool {
	e, ok := AsHTTPError(err)
	return ok && e.Code == code
}

// IsAuth checks if an error is an authentication error (401/403).
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimit checks if an error is a rate-limit error.
func IsRateLimit(err error) bool { return hasCode(err, ErrCodeRateLimit) }

// IsValidation checks if the service rejected the request with another 4xx.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsServerError checks if an error is a server error.
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsTransport checks if the call failed before any HTTP response arrived.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsTimeout checks if an error is a transport timeout.
func IsTimeout(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsCanceled checks if the caller canceled the request before a response arrived.
func IsCanceled(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Code == ErrCodeCanceled
}

// IsUnexpectedStatus checks if the service answered with a 1xx, 3xx or
// out-of-range status.
func IsUnexpectedStatus(err error) bool { return hasCode(err, ErrCodeUnexpectedStatus) }

// IsConnection checks if an error is a connection failure.
func IsConnection(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}
