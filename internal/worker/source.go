package worker

import (
	"fmt"
	"log/slog"

	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/messaging"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/storage/azure"
)

// ConsumerGroup is the Kafka consumer group shared by fulfillment workers.
const ConsumerGroup = messaging.FulfillmentGroup

// RequireForwarding rejects a storage service that would accept forwarded
// events without delivering them. Consuming into it acknowledges events that
// never reach the processing queue.
func RequireForwarding(svc storage.Service) error {
	if _, ok := svc.(*storage.Noop); ok {
		return fmt.Errorf("%w: fulfillment needs live storage, resolved %q", storage.ErrConfigurationInvalid, svc.Name())
	}
	return nil
}

// NewSource opens the order queue for reading with the same queue backend the
// storefront publishes to. It applies the checks storage resolution applies, so
// a source is only returned when events can also be forwarded. The returned
// close function releases it.
func NewSource(cfg config.StorageConfig, logger *slog.Logger) (Source, func() error, error) {
	if cfg.Backend != "" && cfg.Backend != "azure" {
		return nil, nil, fmt.Errorf("%w: fulfillment requires the azure storage backend, got %q", storage.ErrConfigurationInvalid, cfg.Backend)
	}

	if err := storage.ValidateConnectionString(cfg.ConnectionString); err != nil {
		return nil, nil, err
	}

	switch cfg.QueueBackend {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, fmt.Errorf("%w: kafka queue backend selected without brokers", storage.ErrConfigurationInvalid)
		}
		consumer := messaging.NewConsumer(cfg.KafkaBrokers, storage.OrderQueue, ConsumerGroup, messaging.WithLogger(logger))
		return consumer, consumer.Close, nil
	case "azure", "":
	default:
		return nil, nil, fmt.Errorf("%w: unknown queue backend %q", storage.ErrConfigurationInvalid, cfg.QueueBackend)
	}

	clients, err := azure.NewClients(cfg.ConnectionString)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", storage.ErrConfigurationInvalid, err)
	}

	poller := azure.NewPoller(clients.Queues, storage.OrderQueue, logger)
	return poller, func() error { return nil }, nil
}
