package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abcretail/storefront/internal/domain"
)

// Memory keeps everything in process. It backs local runs without a database
// and the service tests. One mutex serializes all access, so a transaction sees
// no concurrent writes.
type Memory struct {
	mu       sync.Mutex
	products []domain.Product
	cart     []domain.CartItem
	orders   []domain.Order
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.orders = append(m.orders, tx.orders...)
	if len(tx.deleted) > 0 {
		m.cart = slices.DeleteFunc(m.cart, func(item domain.CartItem) bool {
			_, ok := tx.deleted[item.ID]
			return ok
		})
	}
	return nil
}

// memTx stages writes until InTx commits them.
type memTx struct {
	m       *Memory
	orders  []domain.Order
	deleted map[string]struct{}
}

func (t *memTx) CartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.m.cartItemsLocked(userID), nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	t.orders = append(t.orders, copyOrder(*order))
	return nil
}

func (t *memTx) DeleteCartItems(ctx context.Context, userID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.deleted == nil {
		t.deleted = make(map[string]struct{}, len(ids))
	}
	for _, item := range t.m.cart {
		if item.UserID == userID && slices.Contains(ids, item.ID) {
			t.deleted[item.ID] = struct{}{}
		}
	}
	return nil
}

func (m *Memory) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = m.now()
	}
	m.products = append(m.products, *product)
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.productLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (m *Memory) productLocked(id string) (domain.Product, bool) {
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (m *Memory) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	products := slices.Clone(m.products)
	slices.Reverse(products)
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (m *Memory) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.productLocked(productID); !ok {
		return nil, ErrNotFound
	}

	quantity = clampQuantity(quantity)
	for i := range m.cart {
		if m.cart[i].UserID == userID && m.cart[i].ProductID == productID {
			m.cart[i].Quantity += quantity
			item := m.cart[i]
			return &item, nil
		}
	}

	item := domain.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   m.now(),
	}
	m.cart = append(m.cart, item)
	return &item, nil
}

func (m *Memory) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.cart {
		if m.cart[i].ID == itemID && m.cart[i].UserID == userID {
			m.cart[i].Quantity = clampQuantity(quantity)
			item := m.cart[i]
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.cart)
	m.cart = slices.DeleteFunc(m.cart, func(item domain.CartItem) bool {
		return item.ID == itemID && item.UserID == userID
	})
	if len(m.cart) == before {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) ListCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cartItemsLocked(userID), nil
}

func (m *Memory) cartItemsLocked(userID string) []domain.CartItem {
	items := []domain.CartItem{}
	for _, item := range m.cart {
		if item.UserID != userID {
			continue
		}
		if product, ok := m.productLocked(item.ProductID); ok {
			item.Product = &product
		}
		items = append(items, item)
	}
	return items
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.ID == id {
			o := copyOrder(order)
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.listOrders(ctx, func(o domain.Order) bool { return o.UserID == userID })
}

func (m *Memory) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.listOrders(ctx, func(domain.Order) bool { return true })
}

func (m *Memory) listOrders(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	orders := []domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if keep(m.orders[i]) {
			orders = append(orders, copyOrder(m.orders[i]))
		}
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			o := copyOrder(m.orders[i])
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o
}
