package bkper

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/bkper/credential"
	"github.com/kbukum/bkper/httpclient"
	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/observability"
)

// Request is a typed call against one API resource. Build it with
// NewRequest, adjust it with the setters, then call Fetch. A Request may be
// fetched more than once; each Fetch resolves credentials afresh.
type Request[T any] struct {
	client  *Client
	method  string
	path    string
	body    any
	params  map[string]string
	headers map[string]string
}

// NewRequest starts a GET request for path, relative to the client's base URL.
func NewRequest[T any](c *Client, path string) *Request[T] {
	return &Request[T]{
		client: c,
		method: http.MethodGet,
		path:   path,
	}
}

// SetMethod sets the HTTP method.
func (r *Request[T]) SetMethod(method string) *Request[T] {
	r.method = strings.ToUpper(method)
	return r
}

// SetBody sets a value to be sent as JSON.
func (r *Request[T]) SetBody(body any) *Request[T] {
	r.body = body
	return r
}

// AddParam sets a query parameter.
func (r *Request[T]) AddParam(key, value string) *Request[T] {
	if r.params == nil {
		r.params = make(map[string]string)
	}
	r.params[key] = value
	return r
}

// SetHeader sets a request header.
func (r *Request[T]) SetHeader(key, value string) *Request[T] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Method returns the HTTP method.
func (r *Request[T]) Method() string { return r.method }

// Path returns the resource path.
func (r *Request[T]) Path() string { return r.path }

// Fetch sends the request and decodes a 2xx body into T. An empty body
// yields the zero T.
func (r *Request[T]) Fetch(ctx context.Context) (T, error) {
	var out T
	_, err := r.exec(ctx, func(resp *httpclient.Response) error {
		if len(bytes.TrimSpace(resp.Body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Do sends the request and returns the raw response. On a non-2xx status it
// returns the response together with an *httpclient.HTTPError.
func (r *Request[T]) Do(ctx context.Context) (*httpclient.Response, error) {
	return r.exec(ctx, nil)
}

// exec runs one call under the fetch span. decode, when set, runs on a 2xx
// response before the span ends.
func (r *Request[T]) exec(ctx context.Context, decode func(*httpclient.Response) error) (*httpclient.Response, error) {
	c := r.client
	ctx, span := observability.StartSpan(ctx, observability.SpanFetch)

	headers := maps.Clone(r.headers)
	id := requestID(headers)
	if id == "" {
		id = uuid.NewString()
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		headers[httpclient.HeaderRequestID] = id
	}
	ctx = logger.ContextWithRequestID(ctx, id)
	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = logger.ContextWithTraceID(ctx, sc.TraceID().String())
	}
	log := c.log.WithContext(ctx)

	span.SetAttributes(
		attribute.String(observability.AttrHTTPMethod, r.method),
		attribute.String(observability.AttrHTTPPath, r.path),
		attribute.String(observability.AttrRequestID, id),
	)

	creds, err := c.creds.Resolve(ctx)
	if err != nil {
		c.metrics.RecordError(ctx, "auth_resolution")
		span.SetAttributes(attribute.String(observability.AttrErrorKind, "auth_resolution"))
		observability.EndSpan(span, 0, err)
		log.Warn("credential resolution failed", logger.Fields(
			logger.FieldMethod, r.method,
			logger.FieldPath, r.path,
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  r.method,
		Path:    r.path,
		Headers: headers,
		Query:   maps.Clone(r.params),
		Body:    r.body,
		Auth:    c.auth(creds),
	})
	if err == nil && decode != nil {
		err = decode(resp)
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		kind := errorKind(err)
		c.metrics.RecordError(ctx, kind)
		span.SetAttributes(attribute.String(observability.AttrErrorKind, kind))
		log.Warn("request failed", logger.Fields(
			logger.FieldMethod, r.method,
			logger.FieldPath, r.path,
			logger.FieldStatus, status,
			logger.FieldError, err.Error(),
		))
	}
	observability.EndSpan(span, status, err)
	return resp, err
}

// requestID returns a caller-set X-Request-Id, matching the name
// case-insensitively.
func requestID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == httpclient.HeaderRequestID {
			return v
		}
	}
	return ""
}

func errorKind(err error) string {
	switch {
	case IsDecodeError(err):
		return "decode"
	case credential.IsResolutionError(err):
		return "auth_resolution"
	case httpclient.IsTransport(err):
		return "transport"
	case httpclient.StatusCode(err) != 0:
		return "http"
	default:
		return "invalid_request"
	}
}
