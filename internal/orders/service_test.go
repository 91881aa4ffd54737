package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/store"
)

type countingMetrics struct {
	placed          atomic.Int64
	publishFailures atomic.Int64
}

func (m *countingMetrics) OrderPlaced(context.Context)           { m.placed.Add(1) }
func (m *countingMetrics) PublishFailed(context.Context, string) { m.publishFailures.Add(1) }

type fixture struct {
	store   *store.Memory
	mem     *storage.MemoryBackends
	metrics *countingMetrics
	service *Service
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := storage.NewMemoryBackends()
	live, err := storage.NewLive("memory", mem.Backends(), discardLogger())
	require.NoError(t, err)

	st := store.NewMemory()
	metrics := &countingMetrics{}
	return &fixture{
		store:   st,
		mem:     mem,
		metrics: metrics,
		service: NewService(st, live, metrics, discardLogger()),
	}
}

func (f *fixture) addToCart(t *testing.T, userID, price string, quantity int) *domain.Product {
	t.Helper()

	p := &domain.Product{Name: "Widget", Price: decimal.RequireFromString(price)}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	_, err := f.store.AddCartItem(context.Background(), userID, p.ID, quantity)
	require.NoError(t, err)
	return p
}

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("converts the cart and publishes", func(t *testing.T) {
		f := newFixture(t)
		product := f.addToCart(t, "user-1", "19.99", 2)

		placement, err := f.service.PlaceOrder(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, placement.Order)
		assert.False(t, placement.CartEmpty)
		assert.True(t, placement.Published)

		order := placement.Order
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, "39.98", order.Total.StringFixed(2))
		require.Len(t, order.Items, 1)
		assert.Equal(t, product.ID, order.Items[0].ProductID)
		assert.Equal(t, 2, order.Items[0].Quantity)

		cart, err := f.store.ListCartItems(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, cart)

		messages := f.mem.Messages(storage.OrderQueue)
		require.Len(t, messages, 1)

		var event domain.OrderPlacedEvent
		require.NoError(t, json.Unmarshal([]byte(messages[0]), &event))
		assert.Equal(t, order.ID, event.OrderID)
		assert.Equal(t, "user-1", event.UserID)
		assert.True(t, event.Total.Equal(order.Total))
		require.Len(t, event.Items, 1)
		assert.True(t, event.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))

		assert.Equal(t, int64(1), f.metrics.placed.Load())
		assert.Zero(t, f.metrics.publishFailures.Load())
	})

	t.Run("several lines at different prices", func(t *testing.T) {
		f := newFixture(t)
		widget := f.addToCart(t, "user-1", "19.99", 2)
		gadget := f.addToCart(t, "user-1", "5.00", 3)
		f.addToCart(t, "user-2", "100.00", 1)

		placement, err := f.service.PlaceOrder(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, placement.Order)

		order := placement.Order
		assert.Equal(t, "54.98", order.Total.StringFixed(2))
		require.Len(t, order.Items, 2)

		items := map[string]domain.OrderItem{}
		sum := decimal.Zero
		for _, item := range order.Items {
			items[item.ProductID] = item
			sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		assert.True(t, sum.Equal(order.Total))
		require.Contains(t, items, widget.ID)
		require.Contains(t, items, gadget.ID)
		assert.Equal(t, 2, items[widget.ID].Quantity)
		assert.True(t, items[widget.ID].UnitPrice.Equal(decimal.RequireFromString("19.99")))
		assert.Equal(t, 3, items[gadget.ID].Quantity)
		assert.True(t, items[gadget.ID].UnitPrice.Equal(decimal.RequireFromString("5.00")))

		cart, err := f.store.ListCartItems(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, cart)

		other, err := f.store.ListCartItems(ctx, "user-2")
		require.NoError(t, err)
		assert.Len(t, other, 1)

		messages := f.mem.Messages(storage.OrderQueue)
		require.Len(t, messages, 1)

		var event domain.OrderPlacedEvent
		require.NoError(t, json.Unmarshal([]byte(messages[0]), &event))
		assert.True(t, event.Total.Equal(decimal.RequireFromString("54.98")))
		require.Len(t, event.Items, 2)

		eventItems := map[string]domain.OrderPlacedItem{}
		for _, item := range event.Items {
			eventItems[item.ProductID] = item
		}
		assert.Equal(t, 2, eventItems[widget.ID].Quantity)
		assert.True(t, eventItems[widget.ID].UnitPrice.Equal(decimal.RequireFromString("19.99")))
		assert.Equal(t, 3, eventItems[gadget.ID].Quantity)
		assert.True(t, eventItems[gadget.ID].UnitPrice.Equal(decimal.RequireFromString("5.00")))
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)

		placement, err := f.service.PlaceOrder(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, placement.CartEmpty)
		assert.Nil(t, placement.Order)

		orders, err := f.store.ListOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.Empty(t, f.mem.Messages(storage.OrderQueue))
	})

	t.Run("publish failure keeps the order", func(t *testing.T) {
		f := newFixture(t)
		f.addToCart(t, "user-1", "5.00", 1)
		f.mem.FailOn(storage.OpEnqueue, storage.Unavailable(errors.New("queue down")))

		placement, err := f.service.PlaceOrder(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, placement.Order)
		assert.False(t, placement.Published)

		stored, err := f.store.GetOrder(ctx, placement.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, stored.Status)

		cart, err := f.store.ListCartItems(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, cart)

		assert.Equal(t, int64(1), f.metrics.publishFailures.Load())
	})

	t.Run("transaction failure persists nothing", func(t *testing.T) {
		f := newFixture(t)
		f.addToCart(t, "user-1", "5.00", 1)

		boom := errors.New("disk full")
		svc := NewService(failingStore{Memory: f.store, err: boom}, storage.NewNoop(discardLogger()), f.metrics, discardLogger())

		_, err := svc.PlaceOrder(ctx, "user-1")
		require.ErrorIs(t, err, ErrTransactionFailed)
		require.ErrorIs(t, err, boom)

		orders, err := f.store.ListOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders)

		cart, err := f.store.ListCartItems(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, cart, 1)
		assert.Zero(t, f.metrics.placed.Load())
	})

	t.Run("no-op storage still places the order", func(t *testing.T) {
		st := store.NewMemory()
		svc := NewService(st, storage.NewNoop(discardLogger()), nil, discardLogger())

		p := &domain.Product{Name: "Widget", Price: decimal.RequireFromString("1.50")}
		require.NoError(t, st.CreateProduct(ctx, p))
		_, err := st.AddCartItem(ctx, "user-1", p.ID, 3)
		require.NoError(t, err)

		placement, err := svc.PlaceOrder(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, placement.Order)
		assert.True(t, placement.Published)
		assert.Equal(t, "4.50", placement.Order.Total.StringFixed(2))
	})

	t.Run("concurrent checkouts place one order", func(t *testing.T) {
		f := newFixture(t)
		f.addToCart(t, "user-1", "10.00", 1)

		var (
			wg        sync.WaitGroup
			placedCnt atomic.Int64
			emptyCnt  atomic.Int64
		)
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				placement, err := f.service.PlaceOrder(ctx, "user-1")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if placement.CartEmpty {
					emptyCnt.Add(1)
				} else {
					placedCnt.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), placedCnt.Load())
		assert.Equal(t, int64(1), emptyCnt.Load())
		assert.Len(t, f.mem.Messages(storage.OrderQueue), 1)
	})
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addToCart(t, "user-1", "3.00", 1)

	placement, err := f.service.PlaceOrder(ctx, "user-1")
	require.NoError(t, err)
	id := placement.Order.ID

	t.Run("owner can read the order", func(t *testing.T) {
		order, err := f.service.GetForUser(ctx, "user-1", id)
		require.NoError(t, err)
		assert.Equal(t, id, order.ID)
	})

	t.Run("other users cannot", func(t *testing.T) {
		_, err := f.service.GetForUser(ctx, "user-2", id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("status update", func(t *testing.T) {
		order, err := f.service.UpdateStatus(ctx, id, " Shipped ")
		require.NoError(t, err)
		assert.Equal(t, "Shipped", order.Status)

		_, err = f.service.UpdateStatus(ctx, id, "  ")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

// failingStore makes every order insert fail inside the transaction.
type failingStore struct {
	*store.Memory
	err error
}

func (s failingStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Memory.InTx(ctx, func(tx store.Tx) error {
		return fn(failingTx{Tx: tx, err: s.err})
	})
}

type failingTx struct {
	store.Tx
	err error
}

func (t failingTx) InsertOrder(context.Context, *domain.Order) error { return t.err }
