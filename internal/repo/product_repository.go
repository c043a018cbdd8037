package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// ProductRepository defines the interface for product data operations.
// GetByID returns soft-deleted products too; callers decide whether they count.
type ProductRepository interface {
	Create(ctx context.Context, product models.Product) (models.Product, error)
	GetByID(ctx context.Context, id int) (models.Product, error)
	GetByName(ctx context.Context, name string) (models.Product, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id int) error
	Restore(ctx context.Context, id int) error
	Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error)
	AdjustQuantity(ctx context.Context, id int, delta int) (models.Product, error)
	SetImage(ctx context.Context, id int, image string) (models.Product, error)
}
