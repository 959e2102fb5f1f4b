// Command bkper reads books, transactions and the current user from the
// Bkper API and prints them as JSON.
//
//	bkper [flags] book <id>
//	bkper [flags] books
//	bkper [flags] user
//	bkper [flags] transactions <book-id> [--query q] [--limit n] [--cursor c]
//	bkper version
//
// Exit codes: 1 not found or other failure, 2 authentication, 3 network.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kbukum/bkper"
	"github.com/kbukum/bkper/config"
	"github.com/kbukum/bkper/credential"
	"github.com/kbukum/bkper/httpclient"
	"github.com/kbukum/bkper/logger"
	"github.com/kbukum/bkper/observability"
	"github.com/kbukum/bkper/version"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitAuth      = 2
	exitTransport = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bkper", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath string
		envFile    string
		logLevel   string
		query      string
		limit      int
		cursor     string
	)
	fs.StringVar(&configPath, "config", "", "Path to config.yml")
	fs.StringVar(&envFile, "env-file", "", "Path to a .env file")
	fs.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&query, "query", "", "Transaction query (transactions only)")
	fs.IntVar(&limit, "limit", 0, "Page size (transactions only)")
	fs.StringVar(&cursor, "cursor", "", "Page cursor (transactions only)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: bkper [flags] book <id> | books | user | transactions <book-id> | version")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitFailure
	}
	if rest[0] == "version" {
		fmt.Fprintln(stdout, version.Get())
		return exitOK
	}

	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "bkper: config: %v\n", err)
		return exitFailure
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if cfg.Logging.Output == "stdout" {
		// stdout carries the JSON result.
		cfg.Logging.Output = "stderr"
	}
	logger.Init(cfg.Logging, config.ServiceName)
	log := logger.WithComponent("cli")

	var clientOpts []bkper.Option
	if cfg.Telemetry.Enabled {
		metrics, shutdown, err := initTelemetry(ctx, cfg.Telemetry)
		if err != nil {
			log.Warn("telemetry disabled", logger.ErrorFields("telemetry.init", err))
		} else {
			defer shutdown()
			clientOpts = append(clientOpts, bkper.WithMetrics(metrics))
		}
	}

	client, err := bkper.New(cfg, clientOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "bkper: %v\n", err)
		return exitFailure
	}

	result, err := dispatch(ctx, client, rest, query, limit, cursor)
	if err != nil {
		fmt.Fprintf(stderr, "bkper: %s\n", describe(err))
		return exitCode(err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "bkper: %v\n", err)
		return exitFailure
	}
	return exitOK
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, c *bkper.Client, args []string, query string, limit int, cursor string) (any, error) {
	switch args[0] {
	case "book":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: bkper book <id>", errUsage)
		}
		return c.GetBook(ctx, args[1])
	case "books":
		return c.ListBooks(ctx)
	case "user":
		return c.GetUser(ctx)
	case "transactions":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: bkper transactions <book-id>", errUsage)
		}
		return c.ListTransactions(ctx, args[1], query, limit, cursor)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func describe(err error) string {
	switch {
	case httpclient.IsNotFound(err):
		return "not found"
	case httpclient.IsAuth(err):
		return "not authorized: " + err.Error()
	default:
		return err.Error()
	}
}

func exitCode(err error) int {
	switch {
	case credential.IsResolutionError(err), httpclient.IsAuth(err):
		return exitAuth
	case httpclient.IsTransport(err):
		return exitTransport
	default:
		return exitFailure
	}
}

func initTelemetry(ctx context.Context, cfg config.TelemetryConfig) (*observability.Metrics, func(), error) {
	tcfg := observability.DefaultTracerConfig(config.ServiceName)
	tcfg.Endpoint = cfg.Endpoint
	tcfg.Insecure = cfg.Insecure
	tcfg.SampleRate = cfg.SampleRate
	tp, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, nil, err
	}

	mcfg := observability.DefaultMeterConfig(config.ServiceName)
	mcfg.Endpoint = cfg.Endpoint
	mcfg.Insecure = cfg.Insecure
	mp, err := observability.InitMeter(ctx, &mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(config.ServiceName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	return metrics, func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(sctx)
		_ = mp.Shutdown(sctx)
	}, nil
}
