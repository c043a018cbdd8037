package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// CheckoutStore gives the checkout engine a cart snapshot and a single
// atomic unit of work over products, orders, movements and cart items.
type CheckoutStore interface {
	LoadCart(ctx context.Context, owner models.Identity) ([]models.CartItem, error)
	// WithinTx runs fn in one transaction. A non-nil error from fn rolls
	// back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

// CheckoutTx is the set of writes a checkout performs. LockProducts must be
// called before reading stock so concurrent checkouts of the same product
// serialize their check-then-decrement.
type CheckoutTx interface {
	// LockProducts locks and returns the rows of the given products.
	// Missing products are absent from the map.
	LockProducts(ctx context.Context, ids []int) (map[int]models.Product, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	// DecrementStock lowers stock without re-validating it.
	DecrementStock(ctx context.Context, productID, amount int) (models.Product, error)
	LogMovement(ctx context.Context, productID, delta int, reason string) error
	// RemovePurchased takes the bought quantities off the given cart lines.
	// A line that grew after the cart was loaded keeps the difference.
	RemovePurchased(ctx context.Context, lines []models.CartItem) error
}
