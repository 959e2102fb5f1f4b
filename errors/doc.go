// Package errors provides the structured application error used for
// client-side failures (invalid input, bad configuration) and for the
// error bodies written by the fake service in bkpertest.
package errors
