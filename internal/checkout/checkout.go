// Package checkout turns a cart into an order. Stock is checked and
// decremented under row locks in a single transaction so concurrent
// checkouts of the same product cannot oversell it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty")

const afterCommitTimeout = 10 * time.Second

// UnavailableError reports a cart line whose product was deleted.
type UnavailableError struct {
	ProductID int
	Name      string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is no longer available.", e.Name)
}

func (e *UnavailableError) Unwrap() error { return repo.ErrProductNotFound }

// LowStockNotifier schedules low-stock alerts. It must not block on mail delivery.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, productIDs []int) error
}

type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order models.Order, lowStockIDs []int) error
}

type Result struct {
	Order    models.Order
	LowStock []models.Product
}

type Engine struct {
	store     repo.CheckoutStore
	ledger    *inventory.Ledger
	notifier  LowStockNotifier
	publisher OrderPublisher
}

type Option func(*Engine)

func WithNotifier(n LowStockNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithPublisher(p OrderPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func NewEngine(store repo.CheckoutStore, ledger *inventory.Ledger, opts ...Option) *Engine {
	e := &Engine{store: store, ledger: ledger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Checkout converts the owner's cart into an order. Either every step
// commits or none does; side effects run only after a successful commit.
func (e *Engine) Checkout(ctx context.Context, owner models.Identity) (Result, error) {
	lines, err := e.store.LoadCart(ctx, owner)
	if err != nil {
		return Result{}, fmt.Errorf("load cart of %s: %w", owner, err)
	}
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	var res Result
	err = e.store.WithinTx(ctx, func(tx repo.CheckoutTx) error {
		res = Result{}

		ids := make([]int, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}

		order := models.Order{TotalAmount: decimal.Zero, TotalItems: len(lines)}
		order.SetOwner(owner)
		for _, l := range lines {
			p, ok := locked[l.ProductID]
			if !ok || p.Deleted() {
				return &UnavailableError{ProductID: l.ProductID, Name: l.Product.Name}
			}
			if p.StockQuantity < l.Quantity {
				return inventory.InsufficientFor(p)
			}
			order.TotalAmount = order.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		if err := tx.CreateOrder(ctx, &order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, l := range lines {
			p := locked[l.ProductID]
			item := models.OrderItem{
				OrderID:      order.ID,
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductPrice: p.Price,
				Quantity:     l.Quantity,
				Subtotal:     p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return fmt.Errorf("create order item for product %d: %w", p.ID, err)
			}
			order.Items = append(order.Items, item)

			updated, err := e.ledger.DecrementStock(ctx, tx, p.ID, l.Quantity)
			if err != nil {
				return err
			}
			if e.ledger.IsLowStock(updated) {
				res.LowStock = append(res.LowStock, updated)
			}
		}

		if err := tx.RemovePurchased(ctx, lines); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		res.Order = order
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// the order is committed; a caller going away must not drop its alerts
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()
	e.afterCommit(sideCtx, res)
	return res, nil
}

func (e *Engine) afterCommit(ctx context.Context, res Result) {
	lowIDs := make([]int, 0, len(res.LowStock))
	for _, p := range res.LowStock {
		lowIDs = append(lowIDs, p.ID)
	}

	if e.notifier != nil && len(lowIDs) > 0 {
		if err := e.notifier.NotifyLowStock(ctx, lowIDs); err != nil {
			log.Printf("⚠️ Failed to schedule low stock alerts for order %d: %v", res.Order.ID, err)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishOrderPlaced(ctx, res.Order, lowIDs); err != nil {
			log.Printf("⚠️ Failed to publish order %d: %v", res.Order.ID, err)
		}
	}
}
