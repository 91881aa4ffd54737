// Package messaging provides a Kafka-backed queue for the storage facade and the
// consumer used by the fulfillment worker. Queue names map one-to-one to topics.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/abcretail/storefront/internal/storage"
)

var producerTracer = otel.Tracer("messaging/producer")

type Queues struct {
	brokers           []string
	writer            *kafka.Writer
	dialer            *kafka.Dialer
	client            *kafka.Client
	groups            map[string]string
	partitions        int
	replicationFactor int
}

type QueuesOption func(*Queues)

func WithTopicLayout(partitions, replicationFactor int) QueuesOption {
	return func(q *Queues) {
		q.partitions = partitions
		q.replicationFactor = replicationFactor
	}
}

// WithConsumerGroup reports the depth of queue as the lag of group instead of
// every retained message.
func WithConsumerGroup(queue, group string) QueuesOption {
	return func(q *Queues) {
		q.groups[queue] = group
	}
}

func NewQueues(brokers []string, opts ...QueuesOption) *Queues {
	q := &Queues{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 100 * time.Millisecond,
		},
		dialer:            &kafka.Dialer{Timeout: 10 * time.Second},
		client:            &kafka.Client{Addr: kafka.TCP(brokers...), Timeout: 10 * time.Second},
		groups:            make(map[string]string),
		partitions:        1,
		replicationFactor: 1,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// CreateQueue creates the topic when it does not exist yet.
func (q *Queues) CreateQueue(ctx context.Context, queue string) error {
	conn, err := q.dialController(ctx)
	if err != nil {
		return storage.Unavailable(err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             queue,
		NumPartitions:     q.partitions,
		ReplicationFactor: q.replicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return classify(err)
	}

	return nil
}

func (q *Queues) Enqueue(ctx context.Context, queue, payload string) error {
	msg := kafka.Message{
		Topic: queue,
		Value: []byte(payload),
	}

	ctx, span := producerTracer.Start(ctx, "send "+queue,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(queue),
		),
	)
	defer span.End()

	injectTrace(ctx, &msg)

	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classify(err)
	}

	return nil
}

// ApproximateDepth counts the messages still waiting on queue. For a queue with
// a registered consumer group that is the group's lag; otherwise it is every
// message the topic retains.
func (q *Queues) ApproximateDepth(ctx context.Context, queue string) (int, error) {
	conn, err := q.dialer.DialContext(ctx, "tcp", q.brokers[0])
	if err != nil {
		return 0, storage.Unavailable(err)
	}
	defer func() { _ = conn.Close() }()

	partitions, err := conn.ReadPartitions(queue)
	if err != nil {
		return 0, classify(err)
	}

	committed, err := q.committedOffsets(ctx, queue, partitions)
	if err != nil {
		return 0, err
	}

	var depth int64
	for _, p := range partitions {
		leader, err := q.dialer.DialLeader(ctx, "tcp", brokerAddr(p.Leader), queue, p.ID)
		if err != nil {
			return 0, storage.Unavailable(err)
		}

		first, last, err := leader.ReadOffsets()
		_ = leader.Close()
		if err != nil {
			return 0, classify(err)
		}

		offset, ok := committed[p.ID]
		if !ok {
			offset = noCommittedOffset
		}
		depth += pending(first, last, offset)
	}

	return int(depth), nil
}

const noCommittedOffset int64 = -1

// committedOffsets returns the registered group's next offset per partition.
// Queues without a group, and partitions the group never committed, are absent.
func (q *Queues) committedOffsets(ctx context.Context, queue string, partitions []kafka.Partition) (map[int]int64, error) {
	group, ok := q.groups[queue]
	if !ok {
		return nil, nil
	}

	ids := make([]int, 0, len(partitions))
	for _, p := range partitions {
		ids = append(ids, p.ID)
	}

	resp, err := q.client.OffsetFetch(ctx, &kafka.OffsetFetchRequest{
		GroupID: group,
		Topics:  map[string][]int{queue: ids},
	})
	if err != nil {
		return nil, classify(err)
	}
	if resp.Error != nil {
		return nil, classify(resp.Error)
	}

	offsets := make(map[int]int64, len(ids))
	for _, p := range resp.Topics[queue] {
		if p.Error != nil {
			return nil, classify(p.Error)
		}
		offsets[p.Partition] = p.CommittedOffset
	}
	return offsets, nil
}

// pending is the number of messages in [first, last) a consumer positioned at
// committed has yet to read. A negative committed offset means the group has
// not committed and will start from the first retained message.
func pending(first, last, committed int64) int64 {
	start := max(first, committed)
	if start >= last {
		return 0
	}
	return last - start
}

func (q *Queues) Close() error {
	return q.writer.Close()
}

func (q *Queues) dialController(ctx context.Context) (*kafka.Conn, error) {
	if len(q.brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	conn, err := q.dialer.DialContext(ctx, "tcp", q.brokers[0])
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return nil, fmt.Errorf("lookup controller: %w", err)
	}

	return q.dialer.DialContext(ctx, "tcp", brokerAddr(controller))
}

func brokerAddr(b kafka.Broker) string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// classify tags kafka protocol errors that will not succeed on retry as
// rejections; everything else is treated as the broker being unreachable.
func classify(err error) error {
	var kerr kafka.Error
	if errors.As(err, &kerr) && !kerr.Temporary() {
		return storage.Rejected(err)
	}
	return storage.Unavailable(err)
}
