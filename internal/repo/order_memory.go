package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type InMemoryOrderRepository struct {
	mu         sync.Mutex
	orders     []models.Order
	nextID     int
	nextItemID int
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders:     []models.Order{},
		nextID:     1,
		nextItemID: 1,
	}
}

func (r *InMemoryOrderRepository) GetByID(_ context.Context, id int) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (r *InMemoryOrderRepository) Recent(_ context.Context, limit int) ([]models.Order, error) {
	orders := r.all()
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt) ||
			(orders[i].CreatedAt.Equal(orders[j].CreatedAt) && orders[i].ID > orders[j].ID)
	})
	return paginate(orders, nil, &limit), nil
}

// reserveID hands out an order id. Ids of rolled back checkouts are not
// reused, like a database sequence.
func (r *InMemoryOrderRepository) reserveID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id
}

func (r *InMemoryOrderRepository) reserveItemID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextItemID
	r.nextItemID++
	return id
}

func (r *InMemoryOrderRepository) add(orders ...models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, orders...)
}

// Add stores a completed order as is. Used to seed fixtures.
func (r *InMemoryOrderRepository) Add(o models.Order) models.Order {
	if o.ID == 0 {
		o.ID = r.reserveID()
	}
	for i := range o.Items {
		if o.Items[i].ID == 0 {
			o.Items[i].ID = r.reserveItemID()
		}
		o.Items[i].OrderID = o.ID
	}
	r.add(o)
	return o
}

func (r *InMemoryOrderRepository) all() []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	return out
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}
