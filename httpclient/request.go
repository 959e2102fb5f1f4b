package httpclient

import (
	"net/http"

	"github.com/kbukum/bkper/validation"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE).
	Method string `json:"method" validate:"required,httpmethod"`
	// Path is appended to the adapter's BaseURL. Can be a full URL if BaseURL is empty.
	Path string `json:"path" validate:"required"`
	// Headers are request-specific headers (merged with adapter defaults).
	Headers map[string]string `json:"-" validate:"-"`
	// Query are URL query parameters.
	Query map[string]string `json:"-" validate:"-"`
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded.
	Body any `json:"-" validate:"-"`
	// Auth overrides the adapter-level auth for this request.
	Auth *AuthConfig `json:"-" validate:"-"`
}

// Validate checks the request before it is sent.
func (r Request) Validate() error {
	return validation.Validate(r)
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the raw response headers.
	Headers http.Header
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
