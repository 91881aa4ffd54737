package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/abcretail/storefront/internal/domain"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Postgres) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) CartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return listCartItems(ctx, t.tx, userID, true)
}

func (t *pgTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.UserID, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID

		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (t *pgTx) DeleteCartItems(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	return nil
}

func (p *Postgres) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, image_url, blob_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, product.ID, product.Name, product.Description, product.Price, product.ImageURL, product.BlobName, product.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (p *Postgres) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product := &domain.Product{}

	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, image_url, blob_name, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.ImageURL, &product.BlobName, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (p *Postgres) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, description, price, image_url, blob_name, created_at
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price,
			&product.ImageURL, &product.BlobName, &product.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (p *Postgres) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{
		UserID:    userID,
		ProductID: productID,
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at
	`, uuid.New().String(), userID, productID, clampQuantity(quantity), time.Now().UTC()).
		Scan(&item.ID, &item.Quantity, &item.AddedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

func (p *Postgres) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	item := &domain.CartItem{ID: itemID, UserID: userID}

	err := p.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = $1
		WHERE id = $2 AND user_id = $3
		RETURNING product_id, quantity, added_at
	`, clampQuantity(quantity), itemID, userID).Scan(&item.ProductID, &item.Quantity, &item.AddedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return item, nil
}

func (p *Postgres) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	result, err := p.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return listCartItems(ctx, p.db, userID, false)
}

func listCartItems(ctx context.Context, q querier, userID string, lock bool) ([]domain.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.added_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.blob_name, p.created_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at, c.id`
	if lock {
		query += `
		FOR UPDATE OF c`
	}

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		product := &domain.Product{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt,
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.ImageURL, &product.BlobName, &product.CreatedAt); err != nil {
			return nil, err
		}
		item.Product = product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := map[string]*domain.Order{order.ID: order}
	if err := p.loadOrderItems(ctx, []string{order.ID}, orders); err != nil {
		return nil, err
	}

	return order, nil
}

func (p *Postgres) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return p.listOrders(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (p *Postgres) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return p.listOrders(ctx, `
		SELECT id, user_id, status, total, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (p *Postgres) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order := &domain.Order{Items: []domain.OrderItem{}}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	if err := p.loadOrderItems(ctx, orderIDs, orderMap); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// loadOrderItems fetches the items of every order in ids with one query.
func (p *Postgres) loadOrderItems(ctx context.Context, ids []string, orders map[string]*domain.Order) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		order := orders[item.OrderID]
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	result, err := p.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return p.GetOrder(ctx, id)
}
