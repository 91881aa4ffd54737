package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MinPrice = decimal.RequireFromString("0.01")
	MaxPrice = decimal.RequireFromString("999999")
)

var ErrInvalidPrice = errors.New("price must be between 0.01 and 999999")

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	BlobName    string          `json:"blob_name,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ValidatePrice reports whether price falls inside the catalog's accepted range.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThan(MinPrice) || price.GreaterThan(MaxPrice) {
		return ErrInvalidPrice
	}
	return nil
}
