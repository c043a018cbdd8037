// Package inventory owns the stock rules shared by the cart and checkout:
// the low-stock threshold policy and the stock decrement primitive.
package inventory

import (
	"context"
	"fmt"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// DefaultLowStockThreshold applies when neither the product nor the
// configuration sets a threshold.
const DefaultLowStockThreshold = 5

// StockWriter is the transactional surface the ledger mutates.
type StockWriter interface {
	// DecrementStock subtracts amount from the product and returns the row as
	// it is after the update.
	DecrementStock(ctx context.Context, productID, amount int) (models.Product, error)
	LogMovement(ctx context.Context, productID, delta int, reason string) error
}

type Ledger struct {
	defaultThreshold int
}

func NewLedger(defaultThreshold int) *Ledger {
	if defaultThreshold < 0 {
		defaultThreshold = DefaultLowStockThreshold
	}
	return &Ledger{defaultThreshold: defaultThreshold}
}

// DefaultThreshold is the configured global threshold.
func (l *Ledger) DefaultThreshold() int {
	return l.defaultThreshold
}

// Threshold returns the product's own threshold, or the global default when unset.
func (l *Ledger) Threshold(p models.Product) int {
	if p.LowStockThreshold != nil {
		return *p.LowStockThreshold
	}
	return l.defaultThreshold
}

func (l *Ledger) IsLowStock(p models.Product) bool {
	return p.StockQuantity < l.Threshold(p)
}

// DecrementStock removes amount units from the product and records the sale
// movement. It does not validate availability: callers check stock under the
// same transaction before calling it.
func (l *Ledger) DecrementStock(ctx context.Context, w StockWriter, productID, amount int) (models.Product, error) {
	p, err := w.DecrementStock(ctx, productID, amount)
	if err != nil {
		return models.Product{}, fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	if err := w.LogMovement(ctx, productID, -amount, models.MovementSale); err != nil {
		return models.Product{}, fmt.Errorf("log movement of product %d: %w", productID, err)
	}
	return p, nil
}
