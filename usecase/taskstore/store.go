// Package taskstore holds the in-memory task collection of one user and applies
// every local mutation, including the once-per-task completion reward.
package taskstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

const (
	CompletionPoints = 10
	SessionPoints    = 25
)

// Awarder grants points. It is invoked while the store lock is held.
type Awarder interface {
	Award(award domain.Award) error
}

// Rewards configures how many points each trigger grants.
type Rewards struct {
	Completion int
	Session    int
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides task id allocation.
func WithIDs(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// WithRewards overrides the default point values.
func WithRewards(r Rewards) Option {
	return func(s *Store) {
		if r.Completion > 0 {
			s.rewards.Completion = r.Completion
		}
		if r.Session > 0 {
			s.rewards.Session = r.Session
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store keeps tasks ordered newest first.
type Store struct {
	mu      sync.RWMutex
	tasks   []domain.Task
	awarder Awarder
	rewards Rewards
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
}

func New(awarder Awarder, opts ...Option) *Store {
	s := &Store{
		tasks:   make([]domain.Task, 0),
		awarder: awarder,
		rewards: Rewards{Completion: CompletionPoints, Session: SessionPoints},
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTasks replaces the whole collection. Nothing from the previous contents survives.
func (s *Store) SetTasks(tasks []domain.Task) {
	replacement := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		replacement[i] = t.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = replacement
}

// Tasks returns a copy of the collection in store order.
func (s *Store) Tasks() []domain.Task {
	return s.Filter(domain.TaskFilter{})
}

// Filter returns copies of the tasks matching f in store order.
func (s *Store) Filter(f domain.TaskFilter) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// AddTask validates the draft and prepends a new task owned by ownerID.
func (s *Store) AddTask(draft domain.TaskDraft, ownerID string) (domain.Task, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return domain.Task{}, err
	}

	task := domain.Task{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		CreatedAt:   s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]domain.Task{task}, s.tasks...)
	return task.Clone(), nil
}

// UpdateTask merges the patch into the matching task. It reports false when the id is unknown.
func (s *Store) UpdateTask(id string, patch domain.TaskPatch) (domain.Task, bool, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false, nil
	}
	patch.Apply(&s.tasks[i])
	return s.tasks[i].Clone(), true, nil
}

// DeleteTask removes the matching task. Unknown ids are a no-op.
func (s *Store) DeleteTask(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return removed, true
}

// ToggleTaskCompletion flips completion and, through the gate, awards completion points
// at most once per task. Flag changes and the award happen in one critical section.
func (s *Store) ToggleTaskCompletion(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	task := &s.tasks[i]

	decision := Decide(task.Completed, task.XPAwarded)
	task.Completed = decision.WillBeCompleted
	task.XPAwarded = decision.XPAwarded
	if decision.WillBeCompleted {
		at := s.now()
		task.CompletedAt = &at
	} else {
		task.CompletedAt = nil
	}

	if decision.Award {
		s.award(domain.Award{
			Key:     domain.CompletionAwardKey(task.ID),
			Subject: task.ID,
			Reason:  domain.AwardTaskCompleted,
			Points:  s.rewards.Completion,
		})
	}
	return task.Clone(), true
}

// AddPomodoroSession increments the session counter without awarding points.
func (s *Store) AddPomodoroSession(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	s.tasks[i].PomodoroSessions++
	return s.tasks[i].Clone(), true
}

// CompleteFocusSession records the finished focus session sessionID and awards session
// points. It is the only path that grants points for focus sessions.
func (s *Store) CompleteFocusSession(id, sessionID string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	task := &s.tasks[i]
	task.PomodoroSessions++
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.award(domain.Award{
		Key:     domain.SessionAwardKey(task.ID, sessionID),
		Subject: task.ID,
		Reason:  domain.AwardFocusSession,
		Points:  s.rewards.Session,
	})
	return task.Clone(), true
}

func (s *Store) award(award domain.Award) {
	if s.awarder == nil {
		return
	}
	award.CreatedAt = s.now()
	if err := s.awarder.Award(award); err != nil {
		s.logger.Error("award failed", zap.String("key", award.Key), zap.Error(err))
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
