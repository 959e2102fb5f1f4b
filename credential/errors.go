package credential

import (
	"errors"
	"fmt"
)

// Credential sources reported by ResolutionError.
const (
	SourceOAuth  = "oauth"
	SourceAPIKey = "api_key"
)

// ErrNoToken is returned by token sources that answered without an access token.
var ErrNoToken = errors.New("credential: token source returned no access token")

// ResolutionError means a credential could not be obtained. No request was
// sent.
type ResolutionError struct {
	// Source is SourceOAuth or SourceAPIKey.
	Source string
	// Err is the provider's error.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("credential: resolve %s: %v", e.Source, e.Err)
}

// Unwrap returns the provider's error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err wraps a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
