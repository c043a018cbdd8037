package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/rogerio-castellano/storefront/internal/inventory"
	"github.com/rogerio-castellano/storefront/internal/models"
	"github.com/rogerio-castellano/storefront/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ctxCartRepository fails reads on a cancelled context, like the Postgres
// repository does.
type ctxCartRepository struct {
	*repo.InMemoryCartRepository
}

func (r ctxCartRepository) ListByOwner(ctx context.Context, owner models.Identity) ([]models.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.InMemoryCartRepository.ListByOwner(ctx, owner)
}

type fixture struct {
	products *repo.InMemoryProductRepository
	items    *repo.InMemoryCartRepository
	svc      *Service
}

func newFixture() fixture {
	products := repo.NewInMemoryProductRepository()
	items := repo.NewInMemoryCartRepository(products)
	return fixture{products: products, items: items, svc: NewService(products, items)}
}

func (f fixture) product(t *testing.T, name, price string, stock int) models.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), models.Product{
		Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func stockError(t *testing.T, err error) *inventory.StockError {
	t.Helper()
	var se *inventory.StockError
	require.True(t, errors.As(err, &se), "expected a StockError, got %v", err)
	return se
}

func TestAddItem_OutOfStock(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Mug", "10", 0)

	_, err := f.svc.AddItem(context.Background(), models.SessionIdentity("s"), p.ID, 1)
	require.ErrorIs(t, err, inventory.ErrOutOfStock)
	assert.Equal(t, "Sorry, this product is out of stock.", err.Error())
}

func TestAddItem_QuantityAboveStockLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Lamp", "30", 2)
	owner := models.SessionIdentity("s")

	_, err := f.svc.AddItem(ctx, owner, p.ID, 3)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, stockError(t, err).Available)
	assert.Contains(t, err.Error(), "2")

	c, err := f.svc.GetItems(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Pen", "1.25", 10)
	owner := models.UserIdentity(4)

	_, err := f.svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)
	item, err := f.svc.AddItem(ctx, owner, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	c, err := f.svc.GetItems(ctx, owner)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Count)
	assert.True(t, decimal.RequireFromString("6.25").Equal(c.Subtotal), c.Subtotal.String())
}

func TestAddItem_CartLimitMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Desk", "100", 5)
	owner := models.SessionIdentity("s")

	_, err := f.svc.AddItem(ctx, owner, p.ID, 4)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, owner, p.ID, 2)
	require.ErrorIs(t, err, ErrCartLimitReached)
	assert.Equal(t, "Only 1 more items can be added (stock limit reached).", err.Error())
	assert.Equal(t, 1, stockError(t, err).Available)

	_, err = f.svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, owner, p.ID, 1)
	require.ErrorIs(t, err, ErrCartLimitReached)
	assert.Equal(t, "You already have the maximum available quantity in your cart.", err.Error())

	count, err := f.svc.GetCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestAddItem_NeverExceedsStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Cup", "3", 7)
	owner := models.UserIdentity(1)

	for _, q := range []int{3, 3, 3, 2, 1, 1, 5} {
		_, _ = f.svc.AddItem(ctx, owner, p.ID, q)
		c, err := f.svc.GetItems(ctx, owner)
		require.NoError(t, err)
		assert.LessOrEqual(t, c.Count, p.StockQuantity)
	}
}

func TestAddItem_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Bag", "20", 3)

	_, err := f.svc.AddItem(ctx, models.Identity{}, p.ID, 1)
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = f.svc.AddItem(ctx, models.SessionIdentity("s"), p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.AddItem(ctx, models.SessionIdentity("s"), 999, 1)
	assert.ErrorIs(t, err, repo.ErrProductNotFound)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	_, err = f.svc.AddItem(ctx, models.SessionIdentity("s"), p.ID, 1)
	assert.ErrorIs(t, err, repo.ErrProductNotFound)
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Chair", "50", 4)
	owner := models.SessionIdentity("s")

	item, err := f.svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, owner, item.ID, 5)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, "Only 4 items available in stock.", err.Error())

	updated, err := f.svc.UpdateItem(ctx, owner, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.svc.UpdateItem(ctx, models.SessionIdentity("other"), item.ID, 2)
	assert.ErrorIs(t, err, repo.ErrCartItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.product(t, "Clock", "15", 4)
	owner := models.UserIdentity(9)

	item, err := f.svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, models.UserIdentity(10), item.ID)
	assert.ErrorIs(t, err, repo.ErrCartItemNotFound)

	msg, err := f.svc.RemoveItem(ctx, owner, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clock removed from cart.", msg)

	count, err := f.svc.GetCount(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetItems_SharedReadIgnoresCallerCancel(t *testing.T) {
	f := newFixture()
	svc := NewService(f.products, ctxCartRepository{f.items})
	p := f.product(t, "Mug", "8", 5)
	owner := models.SessionIdentity("s")
	_, err := svc.AddItem(context.Background(), owner, p.ID, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := svc.GetItems(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count)
	assert.Len(t, c.Items, 1)
}
