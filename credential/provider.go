package credential

import (
	"context"
	"os"
)

// Provider produces the current value of a credential.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Func adapts an ordinary function to a Provider.
type Func func(ctx context.Context) (string, error)

// Token calls f.
func (f Func) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static is a fixed credential, typically an API key. It never fails.
type Static string

// Token returns the key unchanged.
func (s Static) Token(context.Context) (string, error) {
	return string(s), nil
}

// FromEnv reads the named environment variable on every call. An unset
// variable yields "", which the client treats as unauthenticated.
func FromEnv(name string) Provider {
	return Func(func(context.Context) (string, error) {
		return os.Getenv(name), nil
	})
}

// Set pairs the two credentials a Bkper call may carry. Either may be nil.
type Set struct {
	APIKey Provider
	OAuth  Provider
}

// Resolved holds the values obtained for a single call.
type Resolved struct {
	APIKey string
	Token  string
}

// Empty reports whether neither credential is present.
func (r Resolved) Empty() bool {
	return r.APIKey == "" && r.Token == ""
}

// Resolve asks each provider once, OAuth first. The first failure is
// returned as a *ResolutionError.
func (s Set) Resolve(ctx context.Context) (Resolved, error) {
	var r Resolved
	if s.OAuth != nil {
		tok, err := s.OAuth.Token(ctx)
		if err != nil {
			return Resolved{}, &ResolutionError{Source: SourceOAuth, Err: err}
		}
		r.Token = tok
	}
	if s.APIKey != nil {
		key, err := s.APIKey.Token(ctx)
		if err != nil {
			return Resolved{}, &ResolutionError{Source: SourceAPIKey, Err: err}
		}
		r.APIKey = key
	}
	return r, nil
}
