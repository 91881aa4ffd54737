package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("STORAGE_CONNECTION_STRING", "")
		t.Setenv("KAFKA_BROKERS", "")

		cfg := Load()

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "azure", cfg.Storage.Backend)
		assert.Equal(t, "azure", cfg.Storage.QueueBackend)
		assert.Empty(t, cfg.Database.URL)
		assert.Empty(t, cfg.Storage.KafkaBrokers)
		assert.False(t, cfg.Telemetry.TracingEnabled)
		assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("STORAGE_BACKEND", "Memory")
		t.Setenv("QUEUE_BACKEND", "KAFKA")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
		t.Setenv("TRACING_ENABLED", "true")
		t.Setenv("TRACE_SAMPLE_RATIO", "0.25")

		cfg := Load()

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Storage.Backend)
		assert.Equal(t, "kafka", cfg.Storage.QueueBackend)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Storage.KafkaBrokers)
		assert.True(t, cfg.Telemetry.TracingEnabled)
		assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	})
}
