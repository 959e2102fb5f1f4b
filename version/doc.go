// Package version carries the client's build version and derives the
// User-Agent sent with every API call.
//
// Version and commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/bkper/version.Version=1.0.0"
package version
