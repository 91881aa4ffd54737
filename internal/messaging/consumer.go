package messaging

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// FulfillmentGroup is the consumer group fulfillment workers join on the order
// queue. Queues reports order-queue depth as this group's lag.
const FulfillmentGroup = "fulfillment-worker"

var consumerTracer = otel.Tracer("messaging/consumer")

// PayloadHandler processes one queue payload. Returning an error leaves the
// payload unacknowledged.
type PayloadHandler func(ctx context.Context, payload []byte) error

// Consumer reads one queue as part of a consumer group. Offsets are committed
// only after the handler returns nil, so delivery is at-least-once.
type Consumer struct {
	reader *kafka.Reader
	queue  string
	group  string
	logger *slog.Logger
}

type ConsumerOption func(*consumerSettings)

type consumerSettings struct {
	startOffset int64
	logger      *slog.Logger
}

// WithStartOffset selects where a group without committed offsets begins.
func WithStartOffset(offset int64) ConsumerOption {
	return func(s *consumerSettings) { s.startOffset = offset }
}

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(s *consumerSettings) { s.logger = logger }
}

func NewConsumer(brokers []string, queue, group string, opts ...ConsumerOption) *Consumer {
	settings := consumerSettings{
		startOffset: kafka.FirstOffset,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       queue,
			GroupID:     group,
			StartOffset: settings.startOffset,
		}),
		queue:  queue,
		group:  group,
		logger: settings.logger,
	}
}

// Consume hands every payload to handler until ctx ends, the handler fails or a
// commit fails. A failed payload is not committed and is redelivered to the
// group after a restart.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.deliver(ctx, msg, handler); err != nil {
			c.logger.Error("stopping consumer, payload left uncommitted",
				"error", err, "queue", c.queue, "partition", msg.Partition, "offset", msg.Offset)
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset", "error", err, "queue", c.queue, "offset", msg.Offset)
			return err
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg kafka.Message, handler PayloadHandler) error {
	parent := extractTrace(ctx, msg)

	ctx, span := consumerTracer.Start(parent, "process "+c.queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.queue),
			semconv.MessagingKafkaConsumerGroup(c.group),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			attribute.Int("storefront.payload_bytes", len(msg.Value)),
		),
	)
	defer span.End()

	if err := handler(ctx, msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
