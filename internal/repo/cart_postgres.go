package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rogerio-castellano/storefront/internal/models"
)

const cartItemSelect = `SELECT c.id, c.user_id, c.session_id, c.product_id, c.quantity, c.created_at, c.updated_at,
	p.id, p.name, p.price, p.stock_quantity, p.low_stock_threshold, p.image, p.created_at, p.updated_at, p.deleted_at
	FROM cart_items c JOIN products p ON p.id = c.product_id`

type PostgresCartRepository struct {
	db *sql.DB
}

func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

func scanCartItem(s scanner) (models.CartItem, error) {
	var (
		c         models.CartItem
		userID    *int
		sessionID *string
		p         = &c.Product
	)
	err := s.Scan(&c.ID, &userID, &sessionID, &c.ProductID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.LowStockThreshold, &p.Image, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	c.Owner = ownerFromColumns(userID, sessionID)
	return c, err
}

// ownerCondition returns the WHERE fragment selecting the owner's rows and
// its argument, numbered from argIdx.
func ownerCondition(owner models.Identity, column string, argIdx int) (string, any) {
	if id, ok := owner.UserID(); ok {
		return fmt.Sprintf("%suser_id = $%d", column, argIdx), id
	}
	sid, _ := owner.SessionID()
	return fmt.Sprintf("%ssession_id = $%d", column, argIdx), sid
}

func (r *PostgresCartRepository) AddQuantity(ctx context.Context, owner models.Identity, productID, quantity, limit int) (models.CartItem, bool, error) {
	userID, sessionID := ownerArgs(owner)
	conflict := "(session_id, product_id) WHERE session_id IS NOT NULL"
	if userID != nil {
		conflict = "(user_id, product_id) WHERE user_id IS NOT NULL"
	}

	query := `INSERT INTO cart_items (user_id, session_id, product_id, quantity, created_at, updated_at)
		SELECT $1::int, $2::text, $3::int, $4::int, NOW(), NOW() WHERE $4::int <= $5::int
		ON CONFLICT ` + conflict + `
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_items.quantity + EXCLUDED.quantity <= $5::int
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int
	err := r.db.QueryRowContext(ctx, query, userID, sessionID, productID, quantity, limit).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		cond, arg := ownerCondition(owner, "", 2)
		current := models.CartItem{Owner: owner, ProductID: productID}
		err = r.db.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE product_id = $1 AND `+cond, productID, arg).Scan(&current.Quantity)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.CartItem{}, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return models.CartItem{}, false, fmt.Errorf("upsert cart item: %w", err)
	}

	item, err := scanCartItem(r.db.QueryRowContext(ctx, cartItemSelect+` WHERE c.id = $1`, id))
	return item, err == nil, err
}

func (r *PostgresCartRepository) GetByID(ctx context.Context, id int) (models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	item, err := scanCartItem(r.db.QueryRowContext(ctx, cartItemSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CartItem{}, ErrCartItemNotFound
	}
	return item, err
}

func (r *PostgresCartRepository) SetQuantity(ctx context.Context, id, quantity int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *PostgresCartRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *PostgresCartRepository) ListByOwner(ctx context.Context, owner models.Identity) ([]models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return listCartItems(ctx, r.db, owner)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listCartItems(ctx context.Context, q querier, owner models.Identity) ([]models.CartItem, error) {
	cond, arg := ownerCondition(owner, "c.", 1)
	rows, err := q.QueryContext(ctx, cartItemSelect+` WHERE `+cond+` ORDER BY c.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
