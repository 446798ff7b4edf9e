package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type TaskRepository interface {
	// ListByOwner returns the owner's tasks ordered by creation time, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
