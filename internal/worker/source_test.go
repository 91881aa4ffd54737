package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/messaging"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/storage/azure"
	"github.com/abcretail/storefront/internal/storage/backends"
)

const validConnectionString = "DefaultEndpointsProtocol=https;AccountName=abcretail;AccountKey=c2VjcmV0a2V5;EndpointSuffix=core.windows.net"

func TestNewSource(t *testing.T) {
	logger := discardLogger()

	t.Run("kafka", func(t *testing.T) {
		src, closeFn, err := NewSource(config.StorageConfig{
			QueueBackend:     "kafka",
			KafkaBrokers:     []string{"localhost:9092"},
			ConnectionString: validConnectionString,
		}, logger)
		require.NoError(t, err)
		defer func() { _ = closeFn() }()
		assert.IsType(t, &messaging.Consumer{}, src)
	})

	t.Run("kafka without brokers", func(t *testing.T) {
		_, _, err := NewSource(config.StorageConfig{QueueBackend: "kafka", ConnectionString: validConnectionString}, logger)
		assert.ErrorIs(t, err, storage.ErrConfigurationInvalid)
	})

	t.Run("azure", func(t *testing.T) {
		src, closeFn, err := NewSource(config.StorageConfig{QueueBackend: "azure", ConnectionString: validConnectionString}, logger)
		require.NoError(t, err)
		defer func() { _ = closeFn() }()
		assert.IsType(t, &azure.Poller{}, src)
	})

	t.Run("unknown queue backend", func(t *testing.T) {
		_, _, err := NewSource(config.StorageConfig{QueueBackend: "sqs", ConnectionString: validConnectionString}, logger)
		assert.ErrorIs(t, err, storage.ErrConfigurationInvalid)
	})

	t.Run("memory storage backend", func(t *testing.T) {
		_, _, err := NewSource(config.StorageConfig{Backend: "memory", QueueBackend: "kafka", KafkaBrokers: []string{"localhost:9092"}}, logger)
		assert.ErrorIs(t, err, storage.ErrConfigurationInvalid)
	})

	// Storage resolution falls back to no-op for these; the source must refuse
	// them too instead of acknowledging events it cannot forward.
	for name, cs := range map[string]string{
		"empty":       "",
		"placeholder": "<fill me>",
	} {
		for _, queueBackend := range []string{"azure", "kafka"} {
			t.Run(queueBackend+" with "+name+" connection string", func(t *testing.T) {
				cfg := config.StorageConfig{
					Backend:          "azure",
					QueueBackend:     queueBackend,
					KafkaBrokers:     []string{"localhost:9092"},
					ConnectionString: cs,
				}

				svc, closeStorage := backends.Resolve(cfg, logger)
				defer func() { _ = closeStorage() }()
				require.Equal(t, "noop", svc.Name())

				_, _, err := NewSource(cfg, logger)
				assert.ErrorIs(t, err, storage.ErrConfigurationInvalid)
			})
		}
	}
}

func TestRequireForwarding(t *testing.T) {
	logger := discardLogger()

	err := RequireForwarding(storage.NewNoop(logger))
	assert.ErrorIs(t, err, storage.ErrConfigurationInvalid)

	live, err := storage.NewLive("memory", storage.NewMemoryBackends().Backends(), logger)
	require.NoError(t, err)
	assert.NoError(t, RequireForwarding(live))
}
