package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type PostgresMovementRepository struct {
	db *sql.DB
}

func NewPostgresMovementRepository(db *sql.DB) *PostgresMovementRepository {
	return &PostgresMovementRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func logMovement(ctx context.Context, e execer, productID, delta int, reason string) error {
	query := `INSERT INTO movements (product_id, delta, reason, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`
	if _, err := e.ExecContext(ctx, query, productID, delta, reason); err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}
	return nil
}

// Log inserts a new inventory movement
func (r *PostgresMovementRepository) Log(ctx context.Context, productID, delta int, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return logMovement(ctx, r.db, productID, delta, reason)
}

const defaultLimit = 100

// GetByProductID returns all movements for a specific product
func (r *PostgresMovementRepository) GetByProductID(ctx context.Context, productID int, mf MovementFilter) ([]models.Movement, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	whereClause, args := r.buildWhereClause(productID, mf)

	if mf.Offset != nil && *mf.Offset < 0 {
		return nil, 0, fmt.Errorf("offset must be non-negative")
	}

	total, err := r.getTotal(ctx, whereClause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	// limit = 0 means count only
	if mf.Limit != nil && *mf.Limit == 0 {
		return []models.Movement{}, total, nil
	}
	if mf.Offset != nil && *mf.Offset >= total {
		return []models.Movement{}, total, nil
	}

	query, queryArgs := r.buildMainQuery(whereClause, args, mf)
	movements, err := r.executeQuery(ctx, query, queryArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return movements, total, nil
}

func (r *PostgresMovementRepository) buildWhereClause(productID int, mf MovementFilter) (string, []any) {
	args := []any{productID}
	whereClause := "WHERE product_id = $1"

	if mf.Since != nil {
		args = append(args, *mf.Since)
		whereClause += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if mf.Until != nil {
		args = append(args, *mf.Until)
		whereClause += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	return whereClause, args
}

func (r *PostgresMovementRepository) buildMainQuery(whereClause string, baseArgs []any, mf MovementFilter) (string, []any) {
	query := fmt.Sprintf("SELECT id, product_id, delta, reason, created_at FROM movements %s ORDER BY created_at DESC, id DESC", whereClause)
	args := append([]any{}, baseArgs...)

	limit := defaultLimit
	if mf.Limit != nil && *mf.Limit > 0 {
		limit = min(*mf.Limit, defaultLimit)
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if mf.Offset != nil && *mf.Offset > 0 {
		args = append(args, *mf.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

func (r *PostgresMovementRepository) getTotal(ctx context.Context, whereClause string, args []any) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements "+whereClause, args...).Scan(&total)
	return total, err
}

func (r *PostgresMovementRepository) executeQuery(ctx context.Context, query string, args []any) ([]models.Movement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		var m models.Movement
		var createdAt time.Time
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = createdAt.Format(time.RFC3339)
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
