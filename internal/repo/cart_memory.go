package repo

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type InMemoryCartRepository struct {
	mu       sync.Mutex
	items    []models.CartItem
	nextID   int
	products *InMemoryProductRepository
}

func NewInMemoryCartRepository(products *InMemoryProductRepository) *InMemoryCartRepository {
	return &InMemoryCartRepository{
		items:    []models.CartItem{},
		nextID:   1,
		products: products,
	}
}

func (r *InMemoryCartRepository) AddQuantity(ctx context.Context, owner models.Identity, productID, quantity, limit int) (models.CartItem, bool, error) {
	r.mu.Lock()
	i := -1
	for idx, item := range r.items {
		if item.Owner == owner && item.ProductID == productID {
			i = idx
			break
		}
	}

	current := 0
	if i >= 0 {
		current = r.items[i].Quantity
	}
	if current+quantity > limit {
		r.mu.Unlock()
		return models.CartItem{Owner: owner, ProductID: productID, Quantity: current}, false, nil
	}

	now := time.Now()
	var id int
	if i >= 0 {
		r.items[i].Quantity += quantity
		r.items[i].UpdatedAt = now
		id = r.items[i].ID
	} else {
		id = r.nextID
		r.nextID++
		r.items = append(r.items, models.CartItem{
			ID: id, Owner: owner, ProductID: productID, Quantity: quantity, CreatedAt: now, UpdatedAt: now,
		})
	}
	r.mu.Unlock()

	item, err := r.GetByID(ctx, id)
	return item, err == nil, err
}

func (r *InMemoryCartRepository) GetByID(ctx context.Context, id int) (models.CartItem, error) {
	r.mu.Lock()
	var (
		item  models.CartItem
		found bool
	)
	for _, it := range r.items {
		if it.ID == id {
			item, found = it, true
			break
		}
	}
	r.mu.Unlock()

	if !found {
		return models.CartItem{}, ErrCartItemNotFound
	}
	return r.withProduct(ctx, item)
}

func (r *InMemoryCartRepository) SetQuantity(_ context.Context, id, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Quantity = quantity
			r.items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (r *InMemoryCartRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (r *InMemoryCartRepository) ListByOwner(ctx context.Context, owner models.Identity) ([]models.CartItem, error) {
	r.mu.Lock()
	var owned []models.CartItem
	for _, it := range r.items {
		if it.Owner == owner {
			owned = append(owned, it)
		}
	}
	r.mu.Unlock()

	items := []models.CartItem{}
	for _, it := range owned {
		joined, err := r.withProduct(ctx, it)
		if err != nil {
			return nil, err
		}
		items = append(items, joined)
	}
	return items, nil
}

// removePurchased takes the bought quantities off the lines; lines left
// empty are deleted.
func (r *InMemoryCartRepository) removePurchased(lines []models.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range lines {
		for i := range r.items {
			if r.items[i].ID != l.ID {
				continue
			}
			if r.items[i].Quantity <= l.Quantity {
				r.items = append(r.items[:i], r.items[i+1:]...)
			} else {
				r.items[i].Quantity -= l.Quantity
				r.items[i].UpdatedAt = time.Now()
			}
			break
		}
	}
}

func (r *InMemoryCartRepository) withProduct(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	p, err := r.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return models.CartItem{}, err
	}
	item.Product = p
	return item, nil
}
