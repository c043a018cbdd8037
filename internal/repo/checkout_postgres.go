package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type PostgresCheckoutStore struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewPostgresCheckoutStore returns a store whose transactions give up
// waiting on a product row lock after lockTimeout (0 waits forever).
func NewPostgresCheckoutStore(db *sql.DB, lockTimeout time.Duration) *PostgresCheckoutStore {
	return &PostgresCheckoutStore{db: db, lockTimeout: lockTimeout}
}

func (s *PostgresCheckoutStore) LoadCart(ctx context.Context, owner models.Identity) ([]models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return listCartItems(ctx, s.db, owner)
}

func (s *PostgresCheckoutStore) WithinTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := fn(&postgresCheckoutTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout: %w", err)
	}
	return nil
}

type postgresCheckoutTx struct {
	tx *sql.Tx
}

// LockProducts takes the row locks one at a time in ascending id order so
// two checkouts sharing products cannot deadlock.
func (t *postgresCheckoutTx) LockProducts(ctx context.Context, ids []int) (map[int]models.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	locked := make(map[int]models.Product, len(sorted))
	for _, id := range sorted {
		p, err := scanProduct(t.tx.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		locked[id] = p
	}
	return locked, nil
}

func (t *postgresCheckoutTx) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `INSERT INTO orders (user_id, session_id, total_amount, total_items, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`
	return t.tx.QueryRowContext(ctx, query, o.UserID, o.SessionID, o.TotalAmount, o.TotalItems).
		Scan(&o.ID, &o.CreatedAt)
}

func (t *postgresCheckoutTx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, product_name, product_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return t.tx.QueryRowContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.ProductPrice, item.Quantity, item.Subtotal).
		Scan(&item.ID)
}

func (t *postgresCheckoutTx) DecrementStock(ctx context.Context, productID, amount int) (models.Product, error) {
	query := `UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 RETURNING ` + productColumns
	p, err := scanProduct(t.tx.QueryRowContext(ctx, query, amount, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (t *postgresCheckoutTx) LogMovement(ctx context.Context, productID, delta int, reason string) error {
	return logMovement(ctx, t.tx, productID, delta, reason)
}

func (t *postgresCheckoutTx) RemovePurchased(ctx context.Context, lines []models.CartItem) error {
	for _, l := range lines {
		res, err := t.tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND quantity <= $2`, l.ID, l.Quantity)
		if err != nil {
			return fmt.Errorf("remove cart item %d: %w", l.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}
		_, err = t.tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = quantity - $2, updated_at = NOW() WHERE id = $1 AND quantity > $2`,
			l.ID, l.Quantity)
		if err != nil {
			return fmt.Errorf("reduce cart item %d: %w", l.ID, err)
		}
	}
	return nil
}
