package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/storage/backends"
	"github.com/abcretail/storefront/internal/telemetry"
	"github.com/abcretail/storefront/internal/worker"
)

const serviceName = "fulfillment-worker"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Server.Version, cfg.Telemetry)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	storageSvc, closeStorage := backends.Resolve(cfg.Storage, logger)
	defer func() { _ = closeStorage() }()

	if err := worker.RequireForwarding(storageSvc); err != nil {
		logger.Error("refusing to consume orders", "error", err)
		os.Exit(1)
	}

	source, closeSource, err := worker.NewSource(cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open order queue", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeSource() }()

	handler := worker.NewFulfillmentHandler(storageSvc, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting fulfillment worker", "queue_backend", cfg.Storage.QueueBackend, "storage", storageSvc.Name())

	if err := worker.Run(ctx, source, handler); err != nil {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumer stopped")
}
