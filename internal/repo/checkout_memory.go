package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// InMemoryCheckoutStore serializes checkouts with a single mutex and stages
// every write until the unit of work succeeds.
type InMemoryCheckoutStore struct {
	mu        sync.Mutex
	products  *InMemoryProductRepository
	carts     *InMemoryCartRepository
	orders    *InMemoryOrderRepository
	movements *InMemoryMovementRepository
}

func NewInMemoryCheckoutStore(
	products *InMemoryProductRepository,
	carts *InMemoryCartRepository,
	orders *InMemoryOrderRepository,
	movements *InMemoryMovementRepository,
) *InMemoryCheckoutStore {
	return &InMemoryCheckoutStore{
		products:  products,
		carts:     carts,
		orders:    orders,
		movements: movements,
	}
}

func (s *InMemoryCheckoutStore) LoadCart(ctx context.Context, owner models.Identity) ([]models.CartItem, error) {
	return s.carts.ListByOwner(ctx, owner)
}

func (s *InMemoryCheckoutStore) WithinTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryCheckoutTx{store: s, deltas: map[int]int{}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.products.applyStockDeltas(tx.deltas); err != nil {
		return err
	}
	for _, m := range tx.movements {
		s.movements.AddMovement(m)
	}
	s.orders.add(tx.orders...)
	s.carts.removePurchased(tx.purchased)
	return nil
}

type memoryCheckoutTx struct {
	store     *InMemoryCheckoutStore
	deltas    map[int]int
	orders    []models.Order
	movements []models.Movement
	purchased []models.CartItem
}

func (t *memoryCheckoutTx) LockProducts(ctx context.Context, ids []int) (map[int]models.Product, error) {
	out := map[int]models.Product{}
	for _, id := range ids {
		p, err := t.product(ctx, id)
		if errors.Is(err, ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// product returns the product with the staged stock changes applied.
func (t *memoryCheckoutTx) product(ctx context.Context, id int) (models.Product, error) {
	p, err := t.store.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	p.StockQuantity += t.deltas[id]
	return p, nil
}

func (t *memoryCheckoutTx) CreateOrder(_ context.Context, o *models.Order) error {
	o.ID = t.store.orders.reserveID()
	o.CreatedAt = time.Now()
	t.orders = append(t.orders, *o)
	return nil
}

func (t *memoryCheckoutTx) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	for i := range t.orders {
		if t.orders[i].ID == item.OrderID {
			item.ID = t.store.orders.reserveItemID()
			t.orders[i].Items = append(t.orders[i].Items, *item)
			return nil
		}
	}
	return ErrOrderNotFound
}

func (t *memoryCheckoutTx) DecrementStock(ctx context.Context, productID, amount int) (models.Product, error) {
	p, err := t.product(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}
	if p.StockQuantity-amount < 0 {
		// mirrors the CHECK (stock_quantity >= 0) constraint of the products table
		return models.Product{}, ErrInvalidQuantityChange
	}
	p.StockQuantity -= amount
	t.deltas[productID] -= amount
	return p, nil
}

func (t *memoryCheckoutTx) LogMovement(_ context.Context, productID, delta int, reason string) error {
	t.movements = append(t.movements, models.Movement{
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().Format(time.RFC3339),
	})
	return nil
}

func (t *memoryCheckoutTx) RemovePurchased(_ context.Context, lines []models.CartItem) error {
	t.purchased = append(t.purchased, lines...)
	return nil
}
