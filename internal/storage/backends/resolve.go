// Package backends turns storage configuration into the one storage.Service the
// process uses.
package backends

import (
	"fmt"
	"log/slog"

	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/messaging"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/storage/azure"
)

const (
	BackendAzure  = "azure"
	BackendMemory = "memory"
	BackendKafka  = "kafka"
)

// Resolve builds the storage service for cfg. Missing or invalid configuration
// never fails the process: it is logged and the no-op service is returned. The
// returned close function releases backend connections.
func Resolve(cfg config.StorageConfig, logger *slog.Logger) (storage.Service, func() error) {
	noClose := func() error { return nil }

	switch cfg.Backend {
	case BackendMemory:
		live, err := storage.NewLive(BackendMemory, storage.NewMemoryBackends().Backends(), logger)
		if err != nil {
			return fallback(logger, err), noClose
		}
		logger.Info("using in-memory storage backends")
		return live, noClose
	case BackendAzure, "":
	default:
		return fallback(logger, fmt.Errorf("%w: unknown storage backend %q", storage.ErrConfigurationInvalid, cfg.Backend)), noClose
	}

	if err := storage.ValidateConnectionString(cfg.ConnectionString); err != nil {
		return fallback(logger, err), noClose
	}

	clients, err := azure.NewClients(cfg.ConnectionString)
	if err != nil {
		return fallback(logger, fmt.Errorf("%w: %w", storage.ErrConfigurationInvalid, err)), noClose
	}

	name := BackendAzure
	handles := clients.Backends()
	closeFn := noClose

	switch cfg.QueueBackend {
	case BackendKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return fallback(logger, fmt.Errorf("%w: kafka queue backend selected without brokers", storage.ErrConfigurationInvalid)), noClose
		}
		queues := messaging.NewQueues(cfg.KafkaBrokers,
			messaging.WithConsumerGroup(storage.OrderQueue, messaging.FulfillmentGroup),
		)
		handles.Queues = queues
		closeFn = queues.Close
		name = BackendAzure + "+" + BackendKafka
	case BackendAzure, "":
	default:
		return fallback(logger, fmt.Errorf("%w: unknown queue backend %q", storage.ErrConfigurationInvalid, cfg.QueueBackend)), noClose
	}

	live, err := storage.NewLive(name, handles, logger)
	if err != nil {
		_ = closeFn()
		return fallback(logger, err), noClose
	}

	logger.Info("using live storage backends", "backend", name)
	return live, closeFn
}

func fallback(logger *slog.Logger, err error) storage.Service {
	logger.Warn("storage backends not configured, falling back to no-op storage", "error", err)
	return storage.NewNoop(logger)
}
