// Package logger provides structured logging for bkper clients using
// zerolog.
//
// It supports JSON and console output, log level configuration, rotated
// file output, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "/var/log/bkper/client.log"
//
// # Usage
//
//	log := logger.New(&cfg, "bkper").WithComponent("books")
//	log.Info("book loaded", logger.Fields("book_id", id))
package logger
