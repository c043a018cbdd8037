package repo

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type InMemoryMovementRepository struct {
	mu        sync.Mutex
	movements []models.Movement
}

func NewInMemoryMovementRepository() *InMemoryMovementRepository {
	return &InMemoryMovementRepository{
		movements: []models.Movement{},
	}
}

// AddMovement seeds a movement with an explicit timestamp.
func (r *InMemoryMovementRepository) AddMovement(m models.Movement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = len(r.movements) + 1
	r.movements = append(r.movements, m)
}

// Log inserts a new inventory movement
func (r *InMemoryMovementRepository) Log(_ context.Context, productID, delta int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movement := models.Movement{
		ID:        len(r.movements) + 1,
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	r.movements = append(r.movements, movement)
	return nil
}

// GetByProductID returns all movements for a specific product, optionally filtered by date range and paginated
func (r *InMemoryMovementRepository) GetByProductID(_ context.Context, productID int, mf MovementFilter) ([]models.Movement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := []models.Movement{}
	for _, m := range r.movements {
		if m.ProductID != productID {
			continue
		}
		ts, err := time.Parse(time.RFC3339, m.CreatedAt)
		if err == nil && ((mf.Since != nil && ts.Before(*mf.Since)) || (mf.Until != nil && ts.After(*mf.Until))) {
			continue
		}
		filtered = append(filtered, m)
	}

	return paginate(filtered, mf.Offset, mf.Limit), len(filtered), nil
}
