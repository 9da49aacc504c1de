package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthboard-sync/internal/backfill"
	"healthboard-sync/internal/config"
	"healthboard-sync/internal/database"
	"healthboard-sync/internal/diacloud"
	"healthboard-sync/internal/handlers"
	"healthboard-sync/internal/metrics"
	"healthboard-sync/internal/middleware"
)

func main() {
	// Define CLI flags
	runBackfillFlag := flag.Bool("backfill", false, "Run a historical backfill instead of the server")
	fromDays := flag.Int("from", 0, "Backfill range start in days ago (must be greater than -to)")
	toDays := flag.Int("to", 0, "Backfill range end in days ago")
	dryRun := flag.Bool("dry-run", false, "Fetch and report but write nothing")
	skipGlucose := flag.Bool("skip-glucose", false, "Skip the glucose stream")
	skipInsulin := flag.Bool("skip-insulin", false, "Skip the insulin stream")
	skipActivity := flag.Bool("skip-activity", false, "Skip the activity stream")

	flag.Parse()

	if *runBackfillFlag {
		runBackfill(backfill.Options{
			FromDays:     *fromDays,
			ToDays:       *toDays,
			DryRun:       *dryRun,
			SkipGlucose:  *skipGlucose,
			SkipInsulin:  *skipInsulin,
			SkipActivity: *skipActivity,
		})
		return
	}

	// Otherwise, start the server
	runServer()
}

func runBackfill(opts backfill.Options) {
	// Human-readable logging for interactive runs
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if (opts.FromDays > 0 || opts.ToDays > 0) && opts.FromDays <= opts.ToDays {
		fmt.Fprintf(os.Stderr, "Error: -from (%d) must be greater than -to (%d)\n", opts.FromDays, opts.ToDays)
		os.Exit(1)
	}

	creds, err := config.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load credentials: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	client := diacloud.NewClient(cfg.DiacloudBaseURL, slog.Default())
	orchestrator := backfill.NewOrchestrator(db, client, creds, opts)

	// Let an interrupt finish the current window, then stop
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stats, err := orchestrator.Run(ctx)
	if err != nil {
		color.Red("✗ Backfill failed: %v", err)
		if stats != nil {
			printBackfillSummary(stats)
		}
		os.Exit(1)
	}

	if stats.DryRun {
		color.Yellow("✓ Dry run complete, nothing was written")
	} else {
		color.Green("✓ Backfill complete")
	}
	printBackfillSummary(stats)
}

func printBackfillSummary(stats *backfill.RunStats) {
	fmt.Printf("\nRun ID: %s\n\n", stats.RunID)
	fmt.Printf("%-10s %8s %8s %10s\n", "Stream", "Windows", "Records", "Statements")
	for _, row := range []struct {
		name string
		s    backfill.StreamStats
	}{
		{"glucose", stats.Glucose},
		{"insulin", stats.Insulin},
		{"activity", stats.Activity},
	} {
		fmt.Printf("%-10s %8d %8d %10d\n", row.name, row.s.Windows, row.s.Records, row.s.Statements)
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting healthboard-sync server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database opened successfully")

	syncHandler := handlers.NewSyncHandler(db, cfg)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.Handle("/sync", middleware.WrapHandler(metrics.EndpointSync, syncHandler.HandleSync))
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, syncHandler.HandleHealth))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
