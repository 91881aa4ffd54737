package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port    string
	Version string
}

type DatabaseConfig struct {
	// URL is a postgres connection string. Empty selects the in-memory store.
	URL string
}

type StorageConfig struct {
	// Backend is "azure" or "memory".
	Backend          string
	ConnectionString string
	// QueueBackend is "azure" or "kafka". Only consulted for the azure backend.
	QueueBackend string
	KafkaBrokers []string
}

type TelemetryConfig struct {
	TracingEnabled bool
	OTLPEndpoint   string
	// SampleRatio is the fraction of root spans kept, between 0 and 1.
	SampleRatio float64
}

// Load reads configuration from the environment, after loading an optional .env
// file from the working directory.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVICE_VERSION", "0.1.0")
	v.SetDefault("STORAGE_BACKEND", "azure")
	v.SetDefault("QUEUE_BACKEND", "azure")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("TRACE_SAMPLE_RATIO", 1.0)

	return Config{
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			Version: v.GetString("SERVICE_VERSION"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		Storage: StorageConfig{
			Backend:          strings.ToLower(v.GetString("STORAGE_BACKEND")),
			ConnectionString: v.GetString("STORAGE_CONNECTION_STRING"),
			QueueBackend:     strings.ToLower(v.GetString("QUEUE_BACKEND")),
			KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: v.GetBool("TRACING_ENABLED"),
			OTLPEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SampleRatio:    v.GetFloat64("TRACE_SAMPLE_RATIO"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
