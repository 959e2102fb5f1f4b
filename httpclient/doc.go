// Package httpclient is the transport used by the bkper request pipeline.
//
// An Adapter sends one Request per Do call: it joins the path with the base
// URL, encodes the body, applies default headers and credentials, and
// classifies the outcome. Do never retries.
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://app.bkper.com/_ah/api/bkper/v5",
//	    Timeout: 30 * time.Second,
//	})
//
//	resp, err := a.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "books/123",
//	    Auth:   httpclient.BearerAuth(token),
//	})
//
// Errors fall into two families. *TransportError means no HTTP response was
// received (DNS, refused or reset connection, timeout). *HTTPError means the
// service answered with a non-2xx status; it carries the status code and
// raw body. Invalid requests fail with an *errors.AppError before anything
// is sent.
package httpclient
