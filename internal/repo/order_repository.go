package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// OrderRepository reads committed orders. Orders are written only by a
// checkout transaction and never updated afterwards.
type OrderRepository interface {
	GetByID(ctx context.Context, id int) (models.Order, error)
	// Recent returns the newest orders with their items.
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}
