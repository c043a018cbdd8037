package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFixture struct {
	products  *InMemoryProductRepository
	carts     *InMemoryCartRepository
	orders    *InMemoryOrderRepository
	movements *InMemoryMovementRepository
	store     *InMemoryCheckoutStore
}

func newMemoryFixture() memoryFixture {
	f := memoryFixture{
		products:  NewInMemoryProductRepository(),
		orders:    NewInMemoryOrderRepository(),
		movements: NewInMemoryMovementRepository(),
	}
	f.carts = NewInMemoryCartRepository(f.products)
	f.store = NewInMemoryCheckoutStore(f.products, f.carts, f.orders, f.movements)
	return f
}

func TestInMemoryCheckoutStore_CommitAppliesStagedWrites(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Desk", "100", 4)
	owner := models.UserIdentity(3)
	_, _, err := f.carts.AddQuantity(ctx, owner, p.ID, 2, 4)
	require.NoError(t, err)
	lines, err := f.store.LoadCart(ctx, owner)
	require.NoError(t, err)

	var orderID int
	err = f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		locked, err := tx.LockProducts(ctx, []int{p.ID, 999})
		require.NoError(t, err)
		require.Contains(t, locked, p.ID)
		assert.NotContains(t, locked, 999)

		o := &models.Order{TotalAmount: decimal.NewFromInt(200), TotalItems: 1}
		o.SetOwner(owner)
		require.NoError(t, tx.CreateOrder(ctx, o))
		orderID = o.ID
		require.NoError(t, tx.CreateOrderItem(ctx, &models.OrderItem{
			OrderID: o.ID, ProductID: p.ID, ProductName: "Desk",
			ProductPrice: decimal.NewFromInt(100), Quantity: 2, Subtotal: decimal.NewFromInt(200),
		}))

		updated, err := tx.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.StockQuantity)

		// nothing is visible outside the transaction yet
		current, _ := f.products.GetByID(ctx, p.ID)
		assert.Equal(t, 4, current.StockQuantity)

		require.NoError(t, tx.LogMovement(ctx, p.ID, -2, models.MovementSale))
		return tx.RemovePurchased(ctx, lines)
	})
	require.NoError(t, err)

	current, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, 2, current.StockQuantity)

	order, err := f.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, orderID, order.Items[0].OrderID)

	items, _ := f.carts.ListByOwner(ctx, owner)
	assert.Empty(t, items)

	movements, total, err := f.movements.GetByProductID(ctx, p.ID, MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, -2, movements[0].Delta)
}

func TestInMemoryCheckoutStore_ErrorDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Chair", "50", 3)
	owner := models.SessionIdentity("s")
	_, _, err := f.carts.AddQuantity(ctx, owner, p.ID, 1, 3)
	require.NoError(t, err)
	lines, err := f.store.LoadCart(ctx, owner)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		o := &models.Order{}
		require.NoError(t, tx.CreateOrder(ctx, o))
		_, err := tx.DecrementStock(ctx, p.ID, 1)
		require.NoError(t, err)
		require.NoError(t, tx.RemovePurchased(ctx, lines))
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, 3, current.StockQuantity)
	recent, _ := f.orders.Recent(ctx, 10)
	assert.Empty(t, recent)
	items, _ := f.carts.ListByOwner(ctx, owner)
	assert.Len(t, items, 1)
}

func TestInMemoryCheckoutStore_DecrementBelowZeroFails(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Bag", "20", 1)

	err := f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		_, err := tx.DecrementStock(ctx, p.ID, 2)
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidQuantityChange)
}

func TestInMemoryCheckoutStore_ConcurrentRestockIsKept(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Lamp", "30", 4)

	err := f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		if _, err := tx.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		_, err := f.products.AdjustQuantity(ctx, p.ID, 10)
		return err
	})
	require.NoError(t, err)

	current, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, 12, current.StockQuantity)
}

func TestInMemoryCheckoutStore_LineGrownAfterLoadKeepsDifference(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Pen", "2", 10)
	q := seedProduct(t, f.products, "Ink", "5", 10)
	owner := models.SessionIdentity("s")
	_, _, err := f.carts.AddQuantity(ctx, owner, p.ID, 2, 10)
	require.NoError(t, err)

	lines, err := f.store.LoadCart(ctx, owner)
	require.NoError(t, err)

	_, _, err = f.carts.AddQuantity(ctx, owner, p.ID, 3, 10)
	require.NoError(t, err)
	_, _, err = f.carts.AddQuantity(ctx, owner, q.ID, 1, 10)
	require.NoError(t, err)

	err = f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		return tx.RemovePurchased(ctx, lines)
	})
	require.NoError(t, err)

	items, err := f.carts.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, p.ID, items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, q.ID, items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestInMemoryCheckoutStore_CommitRejectsNegativeStock(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFixture()
	p := seedProduct(t, f.products, "Cup", "3", 2)

	err := f.store.WithinTx(ctx, func(tx CheckoutTx) error {
		if _, err := tx.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		_, err := f.products.AdjustQuantity(ctx, p.ID, -1)
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidQuantityChange)

	current, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, 1, current.StockQuantity)
}
