// Package remote is the boundary between a workspace and the shared backend. Every call is
// scoped to a single owner and goes straight to storage: no retries, no queueing, last write wins.
package remote

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type Adapter struct {
	owner    string
	tasks    repository.TaskRepository
	profiles repository.ProfileRepository
	feed     repository.ChangeFeed
	logger   *zap.Logger
}

func New(owner string, tasks repository.TaskRepository, profiles repository.ProfileRepository, feed repository.ChangeFeed, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		owner:    owner,
		tasks:    tasks,
		profiles: profiles,
		feed:     feed,
		logger:   logger.With(zap.String("owner_id", owner)),
	}
}

func (a *Adapter) Owner() string {
	return a.owner
}

// FetchTasks returns the owner's tasks, newest first.
func (a *Adapter) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	if a.owner == "" {
		return nil, domain.ErrUnauthorized
	}
	tasks, err := a.tasks.ListByOwner(ctx, a.owner)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask stores task under the owner. A task already owned by someone else is rejected.
func (a *Adapter) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	if a.owner == "" {
		return domain.Task{}, domain.ErrUnauthorized
	}
	if task.OwnerID != "" && task.OwnerID != a.owner {
		return domain.Task{}, domain.ErrForbidden
	}
	task.OwnerID = a.owner

	created, err := a.tasks.Create(ctx, &task)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	a.notify(ctx)
	return *created, nil
}

// UpdateTask writes the full record.
func (a *Adapter) UpdateTask(ctx context.Context, task domain.Task) error {
	if err := a.checkOwner(ctx, task.ID); err != nil {
		return err
	}
	task.OwnerID = a.owner
	if err := a.tasks.Update(ctx, &task); err != nil {
		return wrapNotFound("update task", err)
	}
	a.notify(ctx)
	return nil
}

func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.checkOwner(ctx, id); err != nil {
		return err
	}
	if err := a.tasks.Delete(ctx, id); err != nil {
		return wrapNotFound("delete task", err)
	}
	a.notify(ctx)
	return nil
}

// Subscribe registers fn for change notifications on the owner's tasks.
func (a *Adapter) Subscribe(ctx context.Context, fn func()) (repository.Subscription, error) {
	if a.owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if a.feed == nil {
		return noopSubscription{}, nil
	}
	sub, err := a.feed.Subscribe(ctx, a.owner, fn)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// GetProfile returns the stored profile, or a fresh one when none exists yet.
func (a *Adapter) GetProfile(ctx context.Context) (domain.Profile, error) {
	if a.owner == "" {
		return domain.Profile{}, domain.ErrUnauthorized
	}
	profile, err := a.profiles.Get(ctx, a.owner)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.NewProfile(a.owner), nil
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return *profile, nil
}

func (a *Adapter) UpdateProfile(ctx context.Context, profile domain.Profile) error {
	if a.owner == "" {
		return domain.ErrUnauthorized
	}
	profile.UserID = a.owner
	if err := a.profiles.Upsert(ctx, &profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (a *Adapter) checkOwner(ctx context.Context, id string) error {
	if a.owner == "" {
		return domain.ErrUnauthorized
	}
	existing, err := a.tasks.GetByID(ctx, id)
	if err != nil {
		return wrapNotFound("load task", err)
	}
	if existing.OwnerID != a.owner {
		return domain.ErrForbidden
	}
	return nil
}

// notify publishes a change signal. Failures only delay other sessions until their next refetch.
func (a *Adapter) notify(ctx context.Context) {
	if a.feed == nil {
		return
	}
	if err := a.feed.Publish(ctx, a.owner); err != nil {
		a.logger.Warn("failed to publish task change", zap.Error(err))
	}
}

func wrapNotFound(op string, err error) error {
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return domain.ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

type noopSubscription struct{}

func (noopSubscription) Close() error { return nil }
