package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity in the storefront catalog.
type Product struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty"`
	Image             string          `json:"image,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
}

// Deleted reports whether the product has been soft deleted.
func (p Product) Deleted() bool {
	return p.DeletedAt != nil
}
