package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// CartRepository stores cart lines. Lines are unique per (owner, product).
type CartRepository interface {
	// AddQuantity atomically adds quantity to the owner's line for the
	// product, creating it if needed, as long as the resulting quantity does
	// not exceed limit. When the limit would be exceeded nothing changes,
	// added is false and the returned item carries the current quantity
	// (zero when no line exists).
	AddQuantity(ctx context.Context, owner models.Identity, productID, quantity, limit int) (item models.CartItem, added bool, err error)
	GetByID(ctx context.Context, id int) (models.CartItem, error)
	SetQuantity(ctx context.Context, id, quantity int) error
	Delete(ctx context.Context, id int) error
	// ListByOwner returns the owner's lines with their product joined, oldest first.
	ListByOwner(ctx context.Context, owner models.Identity) ([]models.CartItem, error)
}
