// Package store persists the relational side of the storefront: products,
// cart items and orders.
package store

import (
	"context"
	"errors"

	"github.com/abcretail/storefront/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Tx is the set of operations available inside one atomic unit of work.
type Tx interface {
	// CartItems returns the user's cart with a product snapshot per item. The
	// rows stay locked until the transaction ends.
	CartItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	// InsertOrder stores order and its items, assigning ids when missing.
	InsertOrder(ctx context.Context, order *domain.Order) error
	DeleteCartItems(ctx context.Context, userID string, ids []string) error
}

type Store interface {
	// InTx runs fn inside a transaction. It commits when fn returns nil and
	// discards every change otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// AddCartItem adds quantity of a product to the user's cart. Adding a
	// product that is already in the cart increases its quantity.
	AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error)
	UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	ListCartItems(ctx context.Context, userID string) ([]domain.CartItem, error)

	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

func clampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}
