package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create stores a new user and returns domain.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *domain.User) error
}
