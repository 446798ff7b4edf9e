package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}
