package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeInvalidInput marks a request or argument rejected before sending.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField marks an empty required argument.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidConfig marks an unusable client configuration.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)
