package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/kbukum/bkper/errors"
	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/observability"
	"github.com/kbukum/bkper/resilience"
)

// HeaderRequestID carries the per-call correlation ID.
const HeaderRequestID = "X-Request-Id"

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDoer replaces the underlying HTTP client, e.g. with a test double.
func WithDoer(d Doer) Option {
	return func(a *Adapter) {
		if d != nil {
			a.doer = d
		}
	}
}

// WithLogger sets the adapter logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// Adapter is an HTTP adapter with built-in auth, TLS, and client-side rate
// limiting. Each Do performs exactly one send; failures are never retried.
type Adapter struct {
	httpClient *http.Client
	doer       Doer
	config     Config
	rl         *resilience.RateLimiter
	log        *logger.Logger
	metrics    *observability.Metrics
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}
	a.doer = a.httpClient

	if cfg.RateLimiter != nil {
		a.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.GetGlobalLogger()
	}
	a.log = a.log.WithComponent(cfg.Name)

	return a, nil
}

// Do validates req, applies auth and default headers, and sends it once.
// A non-2xx answer returns both the *Response and an *HTTPError. A failure
// before any response arrives returns a *TransportError.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if a.rl != nil {
		if err := a.rl.Wait(ctx); err != nil {
			return nil, fmt.Errorf("httpclient: rate limiter: %w", err)
		}
	}

	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
	requestID := httpReq.Header.Get(HeaderRequestID)
	span.SetAttributes(
		attribute.String(observability.AttrHTTPMethod, httpReq.Method),
		attribute.String(observability.AttrHTTPPath, httpReq.URL.Path),
		attribute.String(observability.AttrRequestID, requestID),
		attribute.String(observability.AttrAuthScheme, a.auth(req).Scheme()),
	)
	observability.InjectHeaders(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	a.metrics.RecordRequestStart(ctx)
	resp, err := a.send(ctx, httpReq)
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	a.metrics.RecordRequestEnd(ctx, httpReq.Method, status, time.Since(start))

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	observability.EndSpan(span, statusCode, err)

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldMethod, httpReq.Method,
		logger.FieldPath, httpReq.URL.Path,
		logger.FieldStatus, statusCode,
		logger.FieldRequestID, requestID,
		logger.FieldAuthScheme, a.auth(req).Scheme(),
	), time.Since(start))
	if err != nil {
		fields[logger.FieldError] = err.Error()
		a.log.Debug("request failed", fields)
	} else {
		a.log.Debug("request completed", fields)
	}

	return resp, err
}

func (a *Adapter) send(ctx context.Context, httpReq *http.Request) (*Response, error) {
	resp, err := a.doer.Do(httpReq)
	if err != nil {
		return nil, newTransportError(ctx, httpReq, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(ctx, httpReq, fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}
	if classErr := ClassifyStatusCode(resp.StatusCode, body, resp.Header); classErr != nil {
		return result, classErr
	}
	return result, nil
}

func newTransportError(ctx context.Context, httpReq *http.Request, err error) *TransportError {
	code := ErrCodeConnection
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		code = ErrCodeCanceled
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		code = ErrCodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		code = ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		code = ErrCodeCanceled
	}
	return &TransportError{
		Code:   code,
		Method: httpReq.Method,
		URL:    redactURL(httpReq),
		Err:    err,
	}
}

// redactURL drops the query so query-placed API keys never reach errors or logs.
func redactURL(r *http.Request) string {
	u := *r.URL
	u.RawQuery = ""
	return u.String()
}

// auth returns the request-level auth if set, else the adapter default.
func (a *Adapter) auth(req Request) *AuthConfig {
	if req.Auth != nil {
		return req.Auth
	}
	return a.config.Auth
}

// ResolveURL joins path onto the base URL unless path is already absolute.
func (a *Adapter) ResolveURL(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, apperrors.Validation("request body is not JSON-encodable").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, a.ResolveURL(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if a.config.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.config.UserAgent)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		id := logger.RequestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		httpReq.Header.Set(HeaderRequestID, id)
	}

	a.auth(req).apply(httpReq)

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// HTTPClient returns the *http.Client built from the adapter config, for
// side calls such as token exchanges that must share its timeout, TLS and
// proxy settings. It ignores any Doer set with WithDoer.
func (a *Adapter) HTTPClient() *http.Client {
	return a.httpClient
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Close releases idle connections held by the adapter.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}
