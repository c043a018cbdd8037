// Package cart manages the line items of a user's or an anonymous
// session's cart, keeping every line within the product's stock.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var (
	ErrCartLimitReached = errors.New("cart limit reached")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrNoIdentity       = errors.New("request has no cart owner")
)

// Cart is the read model of an owner's cart.
type Cart struct {
	Items    []models.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Count    int               `json:"count"`
}

type Service struct {
	products repo.ProductRepository
	items    repo.CartRepository
	reads    singleflight.Group
}

func NewService(products repo.ProductRepository, items repo.CartRepository) *Service {
	return &Service{products: products, items: items}
}

// AddItem adds quantity units of the product to the owner's cart. The
// resulting line never exceeds the product's current stock.
func (s *Service) AddItem(ctx context.Context, owner models.Identity, productID, quantity int) (models.CartItem, error) {
	if owner.IsZero() {
		return models.CartItem{}, ErrNoIdentity
	}
	if quantity <= 0 {
		return models.CartItem{}, ErrInvalidQuantity
	}

	p, err := s.product(ctx, productID)
	if err != nil {
		return models.CartItem{}, err
	}
	if p.StockQuantity == 0 {
		return models.CartItem{}, inventory.OutOfStock(p)
	}
	if quantity > p.StockQuantity {
		return models.CartItem{}, inventory.Insufficient(p)
	}

	item, added, err := s.items.AddQuantity(ctx, owner, p.ID, quantity, p.StockQuantity)
	if err != nil {
		return models.CartItem{}, fmt.Errorf("add product %d to cart of %s: %w", p.ID, owner, err)
	}
	if !added {
		return models.CartItem{}, limitReached(p, item.Quantity)
	}
	s.reads.Forget(owner.Key())
	return item, nil
}

func limitReached(p models.Product, inCart int) *inventory.StockError {
	remaining := p.StockQuantity - inCart
	if remaining <= 0 {
		return inventory.NewStockError(ErrCartLimitReached, p.ID, 0,
			"You already have the maximum available quantity in your cart.")
	}
	return inventory.NewStockError(ErrCartLimitReached, p.ID, remaining,
		fmt.Sprintf("Only %d more items can be added (stock limit reached).", remaining))
}

// UpdateItem overwrites the quantity of one of the owner's lines.
func (s *Service) UpdateItem(ctx context.Context, owner models.Identity, itemID, quantity int) (models.CartItem, error) {
	if quantity <= 0 {
		return models.CartItem{}, ErrInvalidQuantity
	}

	item, err := s.owned(ctx, owner, itemID)
	if err != nil {
		return models.CartItem{}, err
	}
	if item.Product.Deleted() {
		return models.CartItem{}, repo.ErrProductNotFound
	}
	if quantity > item.Product.StockQuantity {
		return models.CartItem{}, inventory.Insufficient(item.Product)
	}

	if err := s.items.SetQuantity(ctx, item.ID, quantity); err != nil {
		return models.CartItem{}, err
	}
	s.reads.Forget(owner.Key())
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one of the owner's lines and returns a confirmation
// naming the product.
func (s *Service) RemoveItem(ctx context.Context, owner models.Identity, itemID int) (string, error) {
	item, err := s.owned(ctx, owner, itemID)
	if err != nil {
		return "", err
	}
	if err := s.items.Delete(ctx, item.ID); err != nil {
		return "", err
	}
	s.reads.Forget(owner.Key())
	return fmt.Sprintf("%s removed from cart.", item.Product.Name), nil
}

// GetItems returns the owner's cart. Concurrent reads of the same cart
// share one repository call.
func (s *Service) GetItems(ctx context.Context, owner models.Identity) (Cart, error) {
	if owner.IsZero() {
		return Cart{Items: []models.CartItem{}, Subtotal: decimal.Zero}, nil
	}

	// the read is shared by every waiting caller, so no single caller may cancel it
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.reads.Do(owner.Key(), func() (any, error) {
		items, err := s.items.ListByOwner(shared, owner)
		if err != nil {
			return Cart{}, err
		}
		c := Cart{Items: items, Subtotal: decimal.Zero}
		for _, it := range items {
			c.Subtotal = c.Subtotal.Add(it.LineTotal())
			c.Count += it.Quantity
		}
		return c, nil
	})
	return v.(Cart), err
}

// GetCount is the total number of units in the owner's cart.
func (s *Service) GetCount(ctx context.Context, owner models.Identity) (int, error) {
	c, err := s.GetItems(ctx, owner)
	return c.Count, err
}

func (s *Service) product(ctx context.Context, id int) (models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if p.Deleted() {
		return models.Product{}, repo.ErrProductNotFound
	}
	return p, nil
}

// owned loads a line and hides lines of other owners.
func (s *Service) owned(ctx context.Context, owner models.Identity, itemID int) (models.CartItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return models.CartItem{}, err
	}
	if owner.IsZero() || item.Owner != owner {
		return models.CartItem{}, repo.ErrCartItemNotFound
	}
	return item, nil
}
