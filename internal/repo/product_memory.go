package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	mu       sync.Mutex
	products []models.Product
	nextID   int
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
		nextID:   1,
	}
}

func matchesFilter(p models.Product, pf ProductFilter) bool {
	if !pf.IncludeDeleted && p.Deleted() {
		return false
	}
	if pf.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(pf.Search)) {
		return false
	}
	if pf.MinPrice != nil && p.Price.LessThan(*pf.MinPrice) {
		return false
	}
	if pf.MaxPrice != nil && p.Price.GreaterThan(*pf.MaxPrice) {
		return false
	}
	if pf.MinQty != nil && p.StockQuantity < *pf.MinQty {
		return false
	}
	if pf.MaxQty != nil && p.StockQuantity > *pf.MaxQty {
		return false
	}
	return true
}

func sortProducts(products []models.Product, by string) {
	var less func(a, b models.Product) bool
	switch NormalizeSort(by) {
	case SortOldest:
		less = func(a, b models.Product) bool {
			return a.CreatedAt.Before(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID < b.ID)
		}
	case SortPriceLow:
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHigh:
		less = func(a, b models.Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortName:
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	case SortStockLow:
		less = func(a, b models.Product) bool { return a.StockQuantity < b.StockQuantity }
	case SortStockHigh:
		less = func(a, b models.Product) bool { return a.StockQuantity > b.StockQuantity }
	default:
		less = func(a, b models.Product) bool {
			return a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID)
		}
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func (r *InMemoryProductRepository) Filter(_ context.Context, pf ProductFilter) ([]models.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	filtered := []models.Product{}
	for _, p := range r.products {
		if matchesFilter(p, pf) {
			filtered = append(filtered, p)
		}
	}
	sortProducts(filtered, pf.Sort)

	return paginate(filtered, pf.Offset, pf.Limit), len(filtered), nil
}

// Create adds a new product to the repository.
func (r *InMemoryProductRepository) Create(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if !p.Deleted() && p.Name == product.Name {
			return models.Product{}, ErrDuplicatedValueUnique
		}
	}

	now := time.Now()
	product.ID = r.nextID
	r.nextID++
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products = append(r.products, product)
	return product, nil
}

// GetByID retrieves a product by its ID.
func (r *InMemoryProductRepository) GetByID(_ context.Context, id int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	return r.products[i], nil
}

func (r *InMemoryProductRepository) GetByName(_ context.Context, name string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if !p.Deleted() && p.Name == name {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// Update modifies an existing product in the repository.
func (r *InMemoryProductRepository) Update(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	if product.StockQuantity < 0 {
		return models.Product{}, ErrInvalidQuantityChange
	}
	current := r.products[i]
	current.Name = product.Name
	current.Price = product.Price
	current.StockQuantity = product.StockQuantity
	current.LowStockThreshold = product.LowStockThreshold
	if product.Image != "" {
		current.Image = product.Image
	}
	current.UpdatedAt = time.Now()
	r.products[i] = current
	return current, nil
}

// Delete soft deletes a product.
func (r *InMemoryProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || r.products[i].Deleted() {
		return ErrProductNotFound
	}
	now := time.Now()
	r.products[i].DeletedAt = &now
	return nil
}

func (r *InMemoryProductRepository) Restore(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || !r.products[i].Deleted() {
		return ErrProductNotFound
	}
	for _, p := range r.products {
		if !p.Deleted() && p.Name == r.products[i].Name {
			return ErrDuplicatedValueUnique
		}
	}
	r.products[i].DeletedAt = nil
	return nil
}

func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = []models.Product{}
}

// AdjustQuantity implements ProductRepository.
func (r *InMemoryProductRepository) AdjustQuantity(_ context.Context, productId int, delta int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(productId)
	if i < 0 || r.products[i].Deleted() {
		return models.Product{}, ErrProductNotFound
	}
	if r.products[i].StockQuantity+delta < 0 {
		return models.Product{}, ErrInvalidQuantityChange
	}

	r.products[i].StockQuantity += delta
	r.products[i].UpdatedAt = time.Now()
	return r.products[i], nil
}

func (r *InMemoryProductRepository) SetImage(_ context.Context, id int, image string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	r.products[i].Image = image
	r.products[i].UpdatedAt = time.Now()
	return r.products[i], nil
}

// applyStockDeltas adds the staged checkout changes to the current stock.
// Either every change applies or none does.
func (r *InMemoryProductRepository) applyStockDeltas(deltas map[int]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range deltas {
		i := r.indexOf(id)
		if i < 0 {
			return ErrProductNotFound
		}
		if r.products[i].StockQuantity+d < 0 {
			return ErrInvalidQuantityChange
		}
	}

	now := time.Now()
	for id, d := range deltas {
		i := r.indexOf(id)
		r.products[i].StockQuantity += d
		r.products[i].UpdatedAt = now
	}
	return nil
}

func (r *InMemoryProductRepository) all() []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Product(nil), r.products...)
}

func (r *InMemoryProductRepository) indexOf(id int) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
