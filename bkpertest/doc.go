// Package bkpertest runs an in-memory fake of the Bkper API for tests.
//
//	srv := bkpertest.NewServer(t,
//	    bkpertest.WithBooks(bkpertest.Book{ID: "b1", Name: "Ledger"}),
//	)
//	client, _ := bkper.New(&config.Config{BaseURL: srv.URL, APIKey: "k"})
//
// The server records every request it receives and can be told to answer a
// path with a fixed status and body.
package bkpertest
