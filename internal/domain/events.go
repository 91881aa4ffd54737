package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedEvent struct {
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []OrderPlacedItem `json:"items"`
}

func NewOrderPlacedEvent(order *Order) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
		Items:     items,
	}
}
