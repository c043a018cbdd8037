package inventory

import (
	"errors"
	"fmt"

	"github.com/rogerio-castellano/storefront/internal/models"
)

var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError is a user-facing stock condition. Its message is meant to be
// shown as is; Available holds the quantity the message refers to.
type StockError struct {
	Err       error
	ProductID int
	Available int
	msg       string
}

func (e *StockError) Error() string { return e.msg }

func (e *StockError) Unwrap() error { return e.Err }

// NewStockError builds a StockError around one of the stock sentinels.
func NewStockError(err error, productID, available int, msg string) *StockError {
	return &StockError{Err: err, ProductID: productID, Available: available, msg: msg}
}

func OutOfStock(p models.Product) *StockError {
	return NewStockError(ErrOutOfStock, p.ID, 0, "Sorry, this product is out of stock.")
}

// Insufficient reports that only the product's current stock is available.
func Insufficient(p models.Product) *StockError {
	return NewStockError(ErrInsufficientStock, p.ID, p.StockQuantity,
		fmt.Sprintf("Only %d items available in stock.", p.StockQuantity))
}

// InsufficientFor names the product, as reported by checkout.
func InsufficientFor(p models.Product) *StockError {
	return NewStockError(ErrInsufficientStock, p.ID, p.StockQuantity,
		fmt.Sprintf("Not enough stock for %s. Only %d available.", p.Name, p.StockQuantity))
}
