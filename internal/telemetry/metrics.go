package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(serviceResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// OrderMetrics counts order workflow outcomes.
type OrderMetrics struct {
	placed          otelmetric.Int64Counter
	publishFailures otelmetric.Int64Counter
}

func NewOrderMetrics() (*OrderMetrics, error) {
	meter := otel.Meter("storefront/orders")

	placed, err := meter.Int64Counter("orders.placed",
		otelmetric.WithDescription("Orders committed by checkout"),
	)
	if err != nil {
		return nil, err
	}

	publishFailures, err := meter.Int64Counter("orders.publish_failures",
		otelmetric.WithDescription("Committed orders whose placement event could not be enqueued"),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{placed: placed, publishFailures: publishFailures}, nil
}

func (m *OrderMetrics) OrderPlaced(ctx context.Context) {
	m.placed.Add(ctx, 1)
}

func (m *OrderMetrics) PublishFailed(ctx context.Context, queue string) {
	m.publishFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("queue", queue)))
}
