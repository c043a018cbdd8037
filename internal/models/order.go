package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable snapshot of a completed checkout.
type Order struct {
	ID          int             `json:"id"`
	UserID      *int            `json:"user_id,omitempty"`
	SessionID   *string         `json:"session_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem keeps the product name and price as they were at purchase time.
type OrderItem struct {
	ID           int             `json:"id"`
	OrderID      int             `json:"order_id"`
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SetOwner records the identity columns of the order.
func (o *Order) SetOwner(owner Identity) {
	if id, ok := owner.UserID(); ok {
		o.UserID = &id
		return
	}
	if sid, ok := owner.SessionID(); ok {
		o.SessionID = &sid
	}
}
