package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskflow/internal/remote"
	"github.com/fastygo/taskflow/repository"
)

// Dependencies are the shared backends every workspace is built on.
type Dependencies struct {
	Tasks    repository.TaskRepository
	Profiles repository.ProfileRepository
	Feed     repository.ChangeFeed
	Journal  Journal
}

// Registry keeps one loaded workspace per active user.
type Registry struct {
	deps     Dependencies
	settings Settings
	logger   *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
	loads      singleflight.Group
}

func NewRegistry(deps Dependencies, settings Settings, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		deps:       deps,
		settings:   settings,
		logger:     logger,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the user's workspace, loading it on first use. Concurrent first calls
// share a single load, which runs detached from any one caller's context and is bounded
// by the reconcile timeout.
func (r *Registry) Get(ctx context.Context, userID string) (*Workspace, error) {
	if ws := r.lookup(userID); ws != nil {
		ws.touch()
		return ws, nil
	}

	ch := r.loads.DoChan(userID, func() (interface{}, error) {
		return r.load(userID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Workspace), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) load(userID string) (*Workspace, error) {
	if ws := r.lookup(userID); ws != nil {
		return ws, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.settings.reconcileTimeout())
	defer cancel()

	adapter := remote.New(userID, r.deps.Tasks, r.deps.Profiles, r.deps.Feed, r.logger)
	ws := New(userID, adapter, r.deps.Journal, r.settings, r.logger)
	if err := ws.Load(ctx); err != nil {
		_ = ws.Close(context.Background())
		return nil, err
	}

	r.mu.Lock()
	r.workspaces[userID] = ws
	r.mu.Unlock()
	return ws, nil
}

// Evict drops the user's workspace. Unknown users are a no-op. A workspace with a focus
// session in progress is kept, since another device of the same user may own the
// session; the idle janitor collects it once the session ends.
func (r *Registry) Evict(ctx context.Context, userID string) error {
	r.mu.Lock()
	ws, ok := r.workspaces[userID]
	if ok && ws.Busy() {
		r.mu.Unlock()
		r.logger.Info("workspace kept, focus session in progress", zap.String("user_id", userID))
		return nil
	}
	delete(r.workspaces, userID)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.logger.Info("workspace evicted", zap.String("user_id", userID))
	return ws.Close(ctx)
}

// EvictIdle drops workspaces unused for longer than maxIdle. Workspaces with a focus
// session in progress are kept.
func (r *Registry) EvictIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	stale := make([]*Workspace, 0)
	for id, ws := range r.workspaces {
		if ws.LastUsed().Before(cutoff) && !ws.Busy() {
			stale = append(stale, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, ws := range stale {
		if err := ws.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(stale) > 0 {
		r.logger.Info("idle workspaces evicted", zap.Int("count", len(stale)))
	}
	return len(stale), errors.Join(errs...)
}

// Len returns the number of loaded workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Close evicts every workspace.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	var errs []error
	for _, ws := range all {
		if err := ws.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) lookup(userID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workspaces[userID]
}
