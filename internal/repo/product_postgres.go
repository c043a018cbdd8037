package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	models "github.com/rogerio-castellano/storefront/internal/models"
)

const productColumns = `id, name, price, stock_quantity, low_stock_threshold, image, created_at, updated_at, deleted_at`

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func scanProduct(s scanner) (models.Product, error) {
	var p models.Product
	err := s.Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.LowStockThreshold, &p.Image, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	return p, err
}

func (r *PostgresProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	query := `INSERT INTO products (name, price, stock_quantity, low_stock_threshold, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	created, err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.StockQuantity, p.LowStockThreshold, p.Image))
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	return created, err
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id int) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) GetByName(ctx context.Context, name string) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1 AND deleted_at IS NULL`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

// Update overwrites the editable fields. An empty image keeps the stored one.
func (r *PostgresProductRepository) Update(ctx context.Context, p models.Product) (models.Product, error) {
	query := `UPDATE products
		SET name = $1, price = $2, stock_quantity = $3, low_stock_threshold = $4,
		    image = COALESCE(NULLIF($5, ''), image), updated_at = NOW()
		WHERE id = $6
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.StockQuantity, p.LowStockThreshold, p.Image, p.ID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Product{}, ErrProductNotFound
	case isUniqueViolation(err):
		return models.Product{}, ErrDuplicatedValueUnique
	}
	return updated, err
}

// Delete soft deletes the product; order history keeps referencing it.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int) error {
	query := `UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Restore(ctx context.Context, id int) error {
	query := `UPDATE products SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, id)
	if isUniqueViolation(err) {
		return ErrDuplicatedValueUnique
	}
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error) {
	conditions, args := filterConditions(pf)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM products WHERE 1=1" + conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1` + conditions
	query += " ORDER BY " + productOrderBy[NormalizeSort(pf.Sort)]

	if pf.Limit != nil && *pf.Limit > 0 {
		args = append(args, *pf.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if pf.Offset != nil && *pf.Offset > 0 {
		args = append(args, *pf.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}

	return products, totalCount, rows.Err()
}

func filterConditions(pf ProductFilter) (string, []any) {
	var sb strings.Builder
	args := []any{}

	add := func(cond string, arg any) {
		args = append(args, arg)
		fmt.Fprintf(&sb, cond, len(args))
	}

	if !pf.IncludeDeleted {
		sb.WriteString(" AND deleted_at IS NULL")
	}
	if pf.Search != "" {
		add(" AND name ILIKE $%d", "%"+pf.Search+"%")
	}
	if pf.MinPrice != nil {
		add(" AND price >= $%d", *pf.MinPrice)
	}
	if pf.MaxPrice != nil {
		add(" AND price <= $%d", *pf.MaxPrice)
	}
	if pf.MinQty != nil {
		add(" AND stock_quantity >= $%d", *pf.MinQty)
	}
	if pf.MaxQty != nil {
		add(" AND stock_quantity <= $%d", *pf.MaxQty)
	}

	return sb.String(), args
}

// AdjustQuantity applies delta only when the result stays non-negative.
func (r *PostgresProductRepository) AdjustQuantity(ctx context.Context, productID int, delta int) (models.Product, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND stock_quantity + $1 >= 0
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, delta, productID))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, productID); errors.Is(getErr, ErrProductNotFound) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, ErrInvalidQuantityChange
	}
	return p, err
}

func (r *PostgresProductRepository) SetImage(ctx context.Context, id int, image string) (models.Product, error) {
	query := `UPDATE products SET image = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, image, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}
