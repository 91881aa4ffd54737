package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/abcretail/storefront/internal/admin"
	"github.com/abcretail/storefront/internal/bootstrap"
	"github.com/abcretail/storefront/internal/cart"
	"github.com/abcretail/storefront/internal/catalog"
	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/customers"
	"github.com/abcretail/storefront/internal/orders"
	"github.com/abcretail/storefront/internal/storage/backends"
	"github.com/abcretail/storefront/internal/store"
	"github.com/abcretail/storefront/internal/telemetry"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Server.Version, cfg.Telemetry)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(ctx) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.Server.Version)
	if err != nil {
		logger.Error("failed to initialize meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
	}

	orderMetrics, err := telemetry.NewOrderMetrics()
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}

	st, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	storageSvc, closeStorage := backends.Resolve(cfg.Storage, logger)
	defer func() { _ = closeStorage() }()

	provisionCtx, cancelProvision := context.WithTimeout(ctx, 30*time.Second)
	if err := bootstrap.Provision(provisionCtx, storageSvc, logger); err != nil {
		logger.Warn("storage provisioning incomplete, continuing", "error", err)
	}
	cancelProvision()

	orderService := orders.NewService(st, storageSvc, orderMetrics, logger)

	mux := newMux(handlers{
		catalog:   catalog.NewHandler(catalog.NewService(st, storageSvc, logger), logger),
		cart:      cart.NewHandler(cart.NewService(st, logger), logger),
		orders:    orders.NewHandler(orderService, logger),
		customers: customers.NewHandler(customers.NewService(storageSvc, logger), logger),
		admin:     admin.NewHandler(admin.NewService(storageSvc, logger), logger),
		metrics:   metricsHandler,
		storage:   storageSvc.Name(),
	})

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: otelhttp.NewHandler(mux, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting storefront", "port", cfg.Server.Port, "storage", storageSvc.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// openStore connects to Postgres and applies migrations, or falls back to the
// in-memory store when no database is configured.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	if err := store.Migrate(cfg.URL); err != nil {
		return nil, nil, err
	}

	db, err := telemetry.OpenPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}

	return store.NewPostgres(db), func() { _ = db.Close() }, nil
}
