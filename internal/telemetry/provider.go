package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/abcretail/storefront/internal/config"
	"github.com/abcretail/storefront/internal/identity"
)

// InitTracerProvider exports spans over OTLP gRPC and installs the W3C trace
// context and baggage propagators, which also carry context through queue
// message headers. Root spans are sampled at cfg.SampleRatio; children follow
// their parent.
func InitTracerProvider(ctx context.Context, serviceName, serviceVersion string, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(serviceResource(serviceName, serviceVersion)),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func serviceResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
		semconv.ServiceNamespace("storefront"),
	)
}

// WithHTTPRoute tags the request span with the matched ServeMux pattern, which
// otelhttp cannot see because routing happens after it, and with the caller's
// user id when the request carries one.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span := oteltrace.SpanFromContext(r.Context())
		if r.Pattern != "" {
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		if userID, ok := identity.UserID(r); ok {
			span.SetAttributes(attribute.String("enduser.id", userID))
		}
		h(w, r)
	}
}
