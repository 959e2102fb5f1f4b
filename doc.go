// Package bkper is a client for the Bkper REST API.
//
// Every call goes through the same pipeline: the client asks its credential
// providers for an OAuth token and an API key, attaches whatever they
// return, sends exactly one HTTP request and turns the answer into either a
// decoded value or a typed error.
//
//	cfg, err := config.Load()
//	client, err := bkper.New(cfg)
//	book, err := client.GetBook(ctx, "agtzfmJrcGVyLWhyZHITCxIGTGVkZ2VyGICAgICAgIAKDA")
//
// Any endpoint can be reached with the typed request builder:
//
//	accounts, err := bkper.NewRequest[AccountList](client, "books/"+id+"/accounts").
//	    AddParam("query", "group:'Assets'").
//	    Fetch(ctx)
//
// Errors:
//
//   - *credential.ResolutionError: a provider failed; nothing was sent.
//   - *httpclient.TransportError: no HTTP response (DNS, reset, timeout).
//   - *httpclient.HTTPError: the API answered with a non-2xx status.
//   - *DecodeError: a 2xx body did not match the expected type.
//
// Calls are never retried.
package bkper
