package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/catalog-migrator/internal/infrastructure/config"
	"github.com/erp/catalog-migrator/internal/infrastructure/logger"
	"github.com/erp/catalog-migrator/internal/infrastructure/telemetry"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse flags
	var (
		configPath string
		logLevel   string
	)

	flag.StringVar(&configPath, "config", "", "Path to config.toml (default: ./config.toml or /etc/catalog-migrator/config.toml)")
	flag.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return exitUsage
	}
	command, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		return exitUsage
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runID := uuid.NewString()

	// Initialize telemetry
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		RunID:             runID,
	}, log)
	if err != nil {
		log.Error("Failed to initialize logger provider", zap.Error(err))
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Logger provider shutdown failed: %v\n", err)
		}
	}()
	if lp.IsEnabled() {
		log = logger.Tee(log, lp.Core(cfg.Telemetry.ServiceName, log.Level()))
	}
	ctx, log = logger.WithRunID(ctx, log, runID)

	log.Info("Starting catalog migrator",
		zap.String("command", args[0]),
		zap.String("env", cfg.App.Env),
		zap.String("source", cfg.Source.Driver),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		RunID:             runID,
	}, log)
	if err != nil {
		log.Error("Failed to initialize tracer provider", zap.Error(err))
		return exitFailure
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		RunID:             runID,
	}, log)
	if err != nil {
		log.Error("Failed to initialize meter provider", zap.Error(err))
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewMigrationMetrics(mp.Meter("catalog-migrator"))
	if err != nil {
		log.Error("Failed to register migration metrics", zap.Error(err))
		return exitFailure
	}

	a := &app{cfg: cfg, log: log, metrics: metrics}
	if err := command(ctx, a); err != nil {
		log.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		return exitFailure
	}
	return exitOK
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrator [flags] <command>

Commands:
  run          Migrate the legacy catalog into the storefront
  skeleton     Write the category override skeleton for product type assignment
  wipe         Delete every product listed in the configured channel
  serve-media  Serve the local media directory over HTTP

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  Every setting can be overridden with MIGRATOR_<SECTION>_<KEY>, e.g.
  MIGRATOR_SOURCE_PASSWORD or MIGRATOR_SALEOR_EMAIL.
`)
}
