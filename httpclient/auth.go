package httpclient

import (
	"net/http"
	"strings"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthAPIKey uses API key authentication (header or query parameter).
	AuthAPIKey
	// AuthCustom uses a custom authentication function.
	AuthCustom
	// AuthMulti applies several auth configs in order.
	AuthMulti
)

// String returns the auth scheme name used in logs.
func (t AuthType) String() string {
	switch t {
	case AuthBearer:
		return "bearer"
	case AuthAPIKey:
		return "api_key"
	case AuthCustom:
		return "custom"
	case AuthMulti:
		return "multi"
	default:
		return "none"
	}
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Key is the API key value (AuthAPIKey).
	Key string
	// In specifies where to place the API key: "header" (default) or "query" (AuthAPIKey).
	In string
	// Name is the header or query parameter name (AuthAPIKey). Defaults to "X-API-Key".
	Name string
	// Apply is a custom function to modify the request (AuthCustom).
	Apply func(*http.Request)
	// All holds the configs applied by AuthMulti.
	All []*AuthConfig
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// APIKeyAuthHeader creates an API key auth config with a custom header name.
func APIKeyAuthHeader(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: headerName}
}

// APIKeyAuthQuery creates an API key auth config sent via query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// MultiAuth combines auth configs; nil entries are skipped. Returns nil when
// nothing remains, so the request goes out unauthenticated.
func MultiAuth(auths ...*AuthConfig) *AuthConfig {
	kept := make([]*AuthConfig, 0, len(auths))
	for _, a := range auths {
		if a != nil {
			kept = append(kept, a)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AuthConfig{Type: AuthMulti, All: kept}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			q := req.URL.Query()
			q.Set(name, a.Key)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(name, a.Key)
		}
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	case AuthMulti:
		for _, sub := range a.All {
			sub.apply(req)
		}
	}
}

// Scheme describes the auth for logs without exposing secrets,
// e.g. "bearer+api_key".
func (a *AuthConfig) Scheme() string {
	if a == nil {
		return AuthNone.String()
	}
	if a.Type != AuthMulti {
		return a.Type.String()
	}
	parts := make([]string, 0, len(a.All))
	for _, sub := range a.All {
		parts = append(parts, sub.Scheme())
	}
	return strings.Join(parts, "+")
}
