// Package ledger owns the gamification profile of the active user: cumulative
// points and the level derived from them.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

// ProfileWriter persists the profile record upstream.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, profile domain.Profile) error
}

// Journal records award events once per key.
type Journal interface {
	Record(award domain.Award) (bool, error)
}

// Ledger keeps points and level for one user. Local state is authoritative until
// the next SetProfile; remote persistence of awards is asynchronous.
type Ledger struct {
	mu      sync.Mutex
	profile domain.Profile

	writer  ProfileWriter
	journal Journal
	logger  *zap.Logger
	timeout time.Duration

	// writeMu serializes upstream writes so a slow write never lands after a newer one.
	writeMu sync.Mutex
	pending sync.WaitGroup
}

// New creates a ledger for userID starting at zero points.
func New(userID string, writer ProfileWriter, journal Journal, logger *zap.Logger, timeout time.Duration) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Ledger{
		profile: domain.NewProfile(userID),
		writer:  writer,
		journal: journal,
		logger:  logger.With(zap.String("user_id", userID)),
		timeout: timeout,
	}
}

// Profile returns a snapshot of the current profile.
func (l *Ledger) Profile() domain.Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profile
}

// AwardPoints adds amount to the profile, recomputes the level and schedules the upstream write.
func (l *Ledger) AwardPoints(amount int) error {
	if amount <= 0 {
		return domain.ErrInvalidPoints
	}

	l.mu.Lock()
	l.profile.Points += amount
	l.profile.Level = domain.LevelFor(l.profile.Points)
	snapshot := l.profile
	l.mu.Unlock()

	l.logger.Info("points awarded",
		zap.Int("amount", amount),
		zap.Int("points", snapshot.Points),
		zap.Int("level", snapshot.Level))

	l.persistAsync()
	return nil
}

// Award grants an award unless its key was journaled before. Journal failures are
// logged and do not block the award.
func (l *Ledger) Award(award domain.Award) error {
	if award.Points <= 0 {
		return domain.ErrInvalidPoints
	}
	if l.journal != nil {
		l.mu.Lock()
		award.UserID = l.profile.UserID
		l.mu.Unlock()

		recorded, err := l.journal.Record(award)
		switch {
		case err != nil:
			l.logger.Warn("award journal unavailable", zap.String("key", award.Key), zap.Error(err))
		case !recorded:
			l.logger.Info("award already granted", zap.String("key", award.Key))
			return nil
		}
	}
	return l.AwardPoints(award.Points)
}

// ResetProfile zeroes the profile locally and upstream.
func (l *Ledger) ResetProfile(ctx context.Context) error {
	l.mu.Lock()
	l.profile.Points = 0
	l.profile.Level = 1
	snapshot := l.profile
	l.mu.Unlock()

	if l.writer == nil {
		return nil
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.writer.UpdateProfile(ctx, snapshot)
}

// SetProfile overwrites points and level with values fetched upstream. The level is trusted as-is.
func (l *Ledger) SetProfile(points, level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile.Points = points
	l.profile.Level = level
}

// Flush waits for scheduled upstream writes.
func (l *Ledger) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Ledger) persistAsync() {
	if l.writer == nil {
		return
	}
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		l.writeMu.Lock()
		defer l.writeMu.Unlock()

		snapshot := l.Profile()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := l.writer.UpdateProfile(ctx, snapshot); err != nil {
			l.logger.Error("failed to persist profile", zap.Int("points", snapshot.Points), zap.Error(err))
		}
	}()
}
