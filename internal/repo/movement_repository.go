package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type MovementRepository interface {
	Log(ctx context.Context, productID, delta int, reason string) error
	GetByProductID(ctx context.Context, productID int, mf MovementFilter) ([]models.Movement, int, error)
}
