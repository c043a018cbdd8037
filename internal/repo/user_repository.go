package repo

import (
	"context"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	// ListEmailsByRole returns the non-empty emails of users holding role.
	ListEmailsByRole(ctx context.Context, role string) ([]string, error)
	CountByRole(ctx context.Context, role string) (int, error)
}
