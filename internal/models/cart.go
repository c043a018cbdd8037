package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a cart. Owner is a user or a session.
type CartItem struct {
	ID        int       `json:"id"`
	Owner     Identity  `json:"-"`
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineTotal is the current price of the line.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
