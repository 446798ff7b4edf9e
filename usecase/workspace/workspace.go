// Package workspace assembles the per-user state (tasks, profile, focus timer) and keeps it in
// step with the shared backend.
package workspace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase/focus"
	"github.com/fastygo/taskflow/usecase/ledger"
	"github.com/fastygo/taskflow/usecase/stats"
	"github.com/fastygo/taskflow/usecase/taskstore"
)

// Remote is the owner-scoped backend a workspace writes through.
type Remote interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	Subscribe(ctx context.Context, fn func()) (repository.Subscription, error)
	GetProfile(ctx context.Context) (domain.Profile, error)
	UpdateProfile(ctx context.Context, profile domain.Profile) error
}

// Journal is the award history; it is optional.
type Journal interface {
	ledger.Journal
	List(userID string, limit int) ([]domain.Award, error)
}

// Settings tunes a workspace. Zero values fall back to package defaults.
type Settings struct {
	Rewards          taskstore.Rewards
	FocusDuration    time.Duration
	FocusTick        time.Duration
	PersistTimeout   time.Duration
	ReconcileTimeout time.Duration
}

func (s Settings) reconcileTimeout() time.Duration {
	if s.ReconcileTimeout > 0 {
		return s.ReconcileTimeout
	}
	return 5 * time.Second
}

// Workspace is the live state of one authenticated user. Mutations are applied locally
// first and then written through; a failed remote write is returned without rolling
// the local state back.
type Workspace struct {
	userID   string
	remote   Remote
	journal  Journal
	ledger   *ledger.Ledger
	store    *taskstore.Store
	timer    *focus.Timer
	settings Settings
	logger   *zap.Logger

	// syncMu orders refetches so an older snapshot never replaces a newer one.
	syncMu sync.Mutex

	mu       sync.Mutex
	sub      repository.Subscription
	lastUsed time.Time
	closed   bool
}

func New(userID string, remote Remote, journal Journal, settings Settings, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("user_id", userID))

	w := &Workspace{
		userID:   userID,
		remote:   remote,
		journal:  journal,
		settings: settings,
		logger:   logger,
		lastUsed: time.Now(),
	}
	var lj ledger.Journal
	if journal != nil {
		lj = journal
	}
	w.ledger = ledger.New(userID, remote, lj, logger, settings.PersistTimeout)
	w.store = taskstore.New(w.ledger,
		taskstore.WithRewards(settings.Rewards),
		taskstore.WithLogger(logger))
	w.timer = focus.NewTimer(settings.FocusDuration, settings.FocusTick, w.completeFocus, logger)
	return w
}

func (w *Workspace) UserID() string {
	return w.userID
}

// Load subscribes to remote changes, then fetches tasks and profile concurrently and
// replaces local state with them. A change committed during the fetch still triggers
// a refetch.
func (w *Workspace) Load(ctx context.Context) error {
	sub, err := w.remote.Subscribe(ctx, w.onRemoteChange)
	if err != nil {
		return err
	}

	tasks, profile, err := w.fetchAll(ctx)
	if err != nil {
		_ = sub.Close()
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		_ = sub.Close()
		return nil
	}
	w.sub = sub
	w.lastUsed = time.Now()

	w.logger.Info("workspace loaded",
		zap.Int("tasks", len(tasks)),
		zap.Int("points", profile.Points),
		zap.Int("level", profile.Level))
	return nil
}

func (w *Workspace) fetchAll(ctx context.Context) ([]domain.Task, domain.Profile, error) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	var (
		tasks   []domain.Task
		profile domain.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = w.remote.FetchTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = w.remote.GetProfile(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.Profile{}, err
	}

	w.store.SetTasks(tasks)
	w.ledger.SetProfile(profile.Points, profile.Level)
	return tasks, profile, nil
}

// Reconcile refetches the task collection and replaces the local copy with it. The
// profile is left alone: it is only ever written from this side. Refetches run one at
// a time, so each one applies a snapshot no older than the previous one.
func (w *Workspace) Reconcile(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	tasks, err := w.remote.FetchTasks(ctx)
	if err != nil {
		return err
	}
	w.store.SetTasks(tasks)
	return nil
}

func (w *Workspace) onRemoteChange() {
	ctx, cancel := context.WithTimeout(context.Background(), w.settings.reconcileTimeout())
	defer cancel()
	if err := w.Reconcile(ctx); err != nil {
		w.logger.Warn("reconcile failed", zap.Error(err))
	}
}

func (w *Workspace) Tasks(filter domain.TaskFilter) []domain.Task {
	w.touch()
	return w.store.Filter(filter)
}

func (w *Workspace) CreateTask(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	w.touch()
	task, err := w.store.AddTask(draft, w.userID)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := w.remote.CreateTask(ctx, task); err != nil {
		return task, err
	}
	return task, nil
}

func (w *Workspace) EditTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	w.touch()
	task, ok, err := w.store.UpdateTask(id, patch)
	if err != nil {
		return domain.Task{}, err
	}
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, w.remote.UpdateTask(ctx, task)
}

// DeleteTask removes the task locally (a no-op when unknown) and upstream. Not-found is
// only reported when the backend does not know the id either.
func (w *Workspace) DeleteTask(ctx context.Context, id string) error {
	w.touch()
	w.store.DeleteTask(id)
	return w.remote.DeleteTask(ctx, id)
}

func (w *Workspace) ToggleTask(ctx context.Context, id string) (domain.Task, error) {
	w.touch()
	task, ok := w.store.ToggleTaskCompletion(id)
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, w.remote.UpdateTask(ctx, task)
}

func (w *Workspace) Dashboard(now time.Time) stats.Dashboard {
	w.touch()
	return stats.Compute(w.store.Tasks(), now)
}

func (w *Workspace) Profile() domain.Profile {
	w.touch()
	return w.ledger.Profile()
}

func (w *Workspace) ResetProfile(ctx context.Context) (domain.Profile, error) {
	w.touch()
	err := w.ledger.ResetProfile(ctx)
	return w.ledger.Profile(), err
}

// Awards lists journaled awards, newest first.
func (w *Workspace) Awards(limit int) ([]domain.Award, error) {
	w.touch()
	if w.journal == nil {
		return []domain.Award{}, nil
	}
	return w.journal.List(w.userID, limit)
}

func (w *Workspace) StartFocus(taskID string) (focus.Status, error) {
	w.touch()
	if _, ok := w.store.Task(taskID); !ok {
		return focus.Status{State: focus.StateIdle}, domain.ErrTaskNotFound
	}
	return w.timer.Start(taskID)
}

func (w *Workspace) PauseFocus() (focus.Status, error) {
	w.touch()
	return w.timer.Pause()
}

func (w *Workspace) ResumeFocus() (focus.Status, error) {
	w.touch()
	return w.timer.Resume()
}

func (w *Workspace) CancelFocus() error {
	w.touch()
	return w.timer.Cancel()
}

func (w *Workspace) FocusStatus() focus.Status {
	w.touch()
	return w.timer.Status()
}

func (w *Workspace) completeFocus(taskID, sessionID string) {
	task, ok := w.store.CompleteFocusSession(taskID, sessionID)
	if !ok {
		w.logger.Warn("focus session finished for unknown task", zap.String("task_id", taskID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.settings.reconcileTimeout())
	defer cancel()
	if err := w.remote.UpdateTask(ctx, task); err != nil {
		w.logger.Error("failed to persist focus session", zap.String("task_id", taskID), zap.Error(err))
	}
}

// LastUsed reports when the workspace last served a call.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Busy reports whether a focus session is in progress.
func (w *Workspace) Busy() bool {
	return w.timer.Status().State != focus.StateIdle
}

// Close unsubscribes, stops the timer and waits for pending profile writes.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()

	w.timer.Close()
	if sub != nil {
		if err := sub.Close(); err != nil {
			w.logger.Warn("failed to close subscription", zap.Error(err))
		}
	}
	return w.ledger.Flush(ctx)
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastUsed = time.Now()
	w.mu.Unlock()
}
