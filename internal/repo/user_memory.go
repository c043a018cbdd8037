package repo

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

type InMemoryUserRepository struct {
	mu    sync.Mutex
	users []models.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: []models.User{},
	}
}

func (r *InMemoryUserRepository) GetByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) CreateUser(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == u.Username {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}

	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	u.ID = len(r.users) + 1
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryUserRepository) ListEmailsByRole(_ context.Context, role string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emails := []string{}
	for _, user := range r.users {
		if user.Role == role && user.Email != "" {
			emails = append(emails, user.Email)
		}
	}
	return emails, nil
}

func (r *InMemoryUserRepository) CountByRole(_ context.Context, role string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, user := range r.users {
		if user.Role == role {
			n++
		}
	}
	return n, nil
}
