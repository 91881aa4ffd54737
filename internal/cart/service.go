// Package cart manages each user's shopping cart.
package cart

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/store"
)

// View is a cart with its running total at current product prices.
type View struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	items, err := s.store.ListCartItems(ctx, userID)
	if err != nil {
		return View{}, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return View{Items: items, Total: total}, nil
}

// Add puts quantity units of a product in the cart, merging with an existing
// line for the same product. Quantities below one count as one.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	item, err := s.store.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item added", "user_id", userID, "product_id", productID, "quantity", item.Quantity)
	return item, nil
}

func (s *Service) Update(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	return s.store.UpdateCartItem(ctx, userID, itemID, quantity)
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	return s.store.RemoveCartItem(ctx, userID, itemID)
}
