package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/shiprate/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shiprate",
	Short:   "Shiprate - Sendcloud rate evaluation and shipment booking service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	// Build the rate cache, the carrier client, and the service registry
	cache, closeCache, err := initRateCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	client := initCarrierClient(cfg, logger)
	registry := initServiceRegistry(cfg, client, cache, logger)
	booker := initBooker(client, logger)

	logger.Info("Starting Shiprate",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Strings("services", registry.Codes()),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, registry, booker, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
