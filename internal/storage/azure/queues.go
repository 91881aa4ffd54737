package azure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

const queueAlreadyExists = "QueueAlreadyExists"

type QueueStore struct {
	client *azqueue.ServiceClient
}

func NewQueueStore(client *azqueue.ServiceClient) *QueueStore {
	return &QueueStore{client: client}
}

func (s *QueueStore) CreateQueue(ctx context.Context, queue string) error {
	_, err := s.client.NewQueueClient(queue).Create(ctx, nil)
	if err != nil && !hasErrorCode(err, queueAlreadyExists) {
		return classify(err)
	}
	return nil
}

// Enqueue sends payload with the service's default visibility and time-to-live.
func (s *QueueStore) Enqueue(ctx context.Context, queue, payload string) error {
	_, err := s.client.NewQueueClient(queue).EnqueueMessage(ctx, payload, nil)
	return classify(err)
}

func (s *QueueStore) ApproximateDepth(ctx context.Context, queue string) (int, error) {
	resp, err := s.client.NewQueueClient(queue).GetProperties(ctx, nil)
	if err != nil {
		return 0, classify(err)
	}
	if resp.ApproximateMessagesCount == nil {
		return 0, nil
	}
	return int(*resp.ApproximateMessagesCount), nil
}

// Poller receives messages from one queue. A message is deleted only after the
// handler succeeds; failed messages reappear once their visibility timeout ends.
type Poller struct {
	client            *azqueue.QueueClient
	queue             string
	batchSize         int32
	visibilityTimeout int32
	idleWait          time.Duration
	logger            *slog.Logger
}

func NewPoller(client *azqueue.ServiceClient, queue string, logger *slog.Logger) *Poller {
	return &Poller{
		client:            client.NewQueueClient(queue),
		queue:             queue,
		batchSize:         16,
		visibilityTimeout: 60,
		idleWait:          2 * time.Second,
		logger:            logger,
	}
}

func (p *Poller) Consume(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error {
	for {
		resp, err := p.client.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
			NumberOfMessages:  &p.batchSize,
			VisibilityTimeout: &p.visibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return classify(err)
		}

		if len(resp.Messages) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.idleWait):
			}
			continue
		}

		for _, msg := range resp.Messages {
			if msg.MessageID == nil || msg.PopReceipt == nil || msg.MessageText == nil {
				continue
			}

			if err := handler(ctx, []byte(*msg.MessageText)); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				p.logger.Error("failed to handle queue message", "error", err, "queue", p.queue, "message_id", *msg.MessageID)
				continue
			}

			if _, err := p.client.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
				p.logger.Error("failed to delete queue message", "error", err, "queue", p.queue, "message_id", *msg.MessageID)
			}
		}
	}
}
