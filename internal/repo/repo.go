package repo

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rogerio-castellano/storefront/internal/models"
)

const queryTimeout = 3 * time.Second

var (
	// ErrProductNotFound is returned when a product is not found in the repository.
	ErrProductNotFound       = errors.New("product not found")
	ErrInvalidQuantityChange = errors.New("quantity cannot be negative")
	ErrDuplicatedValueUnique = errors.New("duplicated value violates unique constraint")
	ErrUserNotFound          = errors.New("user not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrOrderNotFound         = errors.New("order not found")
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ownerArgs maps an identity onto the nullable user_id / session_id columns.
func ownerArgs(owner models.Identity) (userID *int, sessionID *string) {
	if id, ok := owner.UserID(); ok {
		return &id, nil
	}
	if sid, ok := owner.SessionID(); ok {
		return nil, &sid
	}
	return nil, nil
}

func ownerFromColumns(userID *int, sessionID *string) models.Identity {
	if userID != nil {
		return models.UserIdentity(*userID)
	}
	if sessionID != nil {
		return models.SessionIdentity(*sessionID)
	}
	return models.Identity{}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// paginate applies offset/limit to an in-memory slice.
func paginate[T any](items []T, offset, limit *int) []T {
	if offset != nil && *offset > len(items) {
		return []T{}
	}

	start := 0
	if offset != nil {
		start = clamp(*offset, 0, len(items))
	}

	end := len(items)
	if limit != nil && *limit > 0 {
		end = clamp(start+*limit, start, len(items))
	}

	return items[start:end]
}
