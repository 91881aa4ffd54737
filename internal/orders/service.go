// Package orders converts carts into orders and serves order queries.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/store"
)

var (
	// ErrTransactionFailed wraps any failure of the cart-to-order conversion.
	// Nothing from the failed attempt is persisted and no event is published.
	ErrTransactionFailed = errors.New("order transaction failed")
	ErrInvalidStatus     = errors.New("order status must not be empty")
)

type Metrics interface {
	OrderPlaced(ctx context.Context)
	PublishFailed(ctx context.Context, queue string)
}

type nopMetrics struct{}

func (nopMetrics) OrderPlaced(context.Context)           {}
func (nopMetrics) PublishFailed(context.Context, string) {}

// Placement is the outcome of a checkout attempt.
type Placement struct {
	Order *domain.Order
	// CartEmpty reports that there was nothing to convert. Order is nil.
	CartEmpty bool
	// Published reports whether the order-placed event was accepted by the
	// queue. A committed order stays committed when this is false.
	Published bool
}

type Service struct {
	store   store.Store
	facade  storage.Facade
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(st store.Store, facade storage.Facade, metrics Metrics, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		store:   st,
		facade:  facade,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder converts the user's cart into a Pending order in one transaction
// and then publishes an order-placed event. The publish is best-effort: its
// failure is logged and counted but does not fail the checkout.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (Placement, error) {
	var placed *domain.Order

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		items, err := tx.CartItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		order := &domain.Order{
			UserID:    userID,
			CreatedAt: s.now(),
			Status:    domain.OrderStatusPending,
			Items:     make([]domain.OrderItem, 0, len(items)),
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			if item.Product == nil {
				return fmt.Errorf("cart item %s has no product", item.ID)
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.Price,
			})
			ids = append(ids, item.ID)
		}
		order.Total = order.ComputeTotal()

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.DeleteCartItems(ctx, userID, ids); err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		s.logger.Error("failed to place order", "error", err, "user_id", userID)
		return Placement{}, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	if placed == nil {
		return Placement{CartEmpty: true}, nil
	}

	s.metrics.OrderPlaced(ctx)
	s.logger.Info("order placed", "order_id", placed.ID, "user_id", userID, "total", placed.Total.StringFixed(2))

	return Placement{Order: placed, Published: s.publish(ctx, placed)}, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) bool {
	payload, err := json.Marshal(domain.NewOrderPlacedEvent(order))
	if err == nil {
		err = s.facade.EnqueueMessage(ctx, storage.OrderQueue, string(payload))
	}
	if err != nil {
		s.metrics.PublishFailed(ctx, storage.OrderQueue)
		s.logger.Error("failed to publish order placed event",
			"error", err, "order_id", order.ID, "queue", storage.OrderQueue)
		return false
	}
	return true
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// GetForUser returns the order only when it belongs to userID.
func (s *Service) GetForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, store.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.store.ListOrders(ctx)
}

// UpdateStatus sets a free-form status chosen by an administrator.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrInvalidStatus
	}
	return s.store.UpdateOrderStatus(ctx, id, status)
}
