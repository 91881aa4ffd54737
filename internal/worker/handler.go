// Package worker runs the fulfillment side of order placement.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
)

var ErrInvalidEvent = errors.New("invalid order placed event")

// Source delivers queue payloads to a handler. A payload is acknowledged only
// when the handler returns nil.
type Source interface {
	Consume(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error
}

// FulfillmentHandler validates order-placed events and hands them to the
// processing queue.
type FulfillmentHandler struct {
	storage storage.Facade
	logger  *slog.Logger
}

func NewFulfillmentHandler(facade storage.Facade, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{storage: facade, logger: logger}
}

// Handle forwards one order-placed payload. Malformed payloads are logged and
// dropped since redelivering them cannot succeed. A failed forward returns an
// error so the message is redelivered.
func (h *FulfillmentHandler) Handle(ctx context.Context, payload []byte) error {
	event, err := decodeEvent(payload)
	if err != nil {
		h.logger.Error("dropping invalid order placed event", "error", err)
		return nil
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	forwarded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	if err := h.storage.EnqueueMessage(ctx, storage.ProcessingQueue, string(forwarded)); err != nil {
		h.logger.Error("failed to forward order to processing", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("forward order %s: %w", event.OrderID, err)
	}

	h.logger.Info("order forwarded to processing", "order_id", event.OrderID, "queue", storage.ProcessingQueue)
	return nil
}

func decodeEvent(payload []byte) (domain.OrderPlacedEvent, error) {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	if event.OrderID == "" {
		return event, fmt.Errorf("%w: missing order_id", ErrInvalidEvent)
	}
	if len(event.Items) == 0 {
		return event, fmt.Errorf("%w: order %s has no items", ErrInvalidEvent, event.OrderID)
	}

	total := decimal.Zero
	for _, item := range event.Items {
		if item.Quantity < 1 {
			return event, fmt.Errorf("%w: order %s has item %s with quantity %d", ErrInvalidEvent, event.OrderID, item.ProductID, item.Quantity)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !total.Equal(event.Total) {
		return event, fmt.Errorf("%w: order %s total %s does not match items %s", ErrInvalidEvent, event.OrderID, event.Total, total)
	}

	return event, nil
}

// Run feeds every payload from src to h until ctx is cancelled or the source
// fails.
func Run(ctx context.Context, src Source, h *FulfillmentHandler) error {
	err := src.Consume(ctx, h.Handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
