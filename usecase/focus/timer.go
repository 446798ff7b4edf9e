// Package focus runs the countdown for a single focus (pomodoro) session.
package focus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

const (
	DefaultDuration = 25 * time.Minute
	DefaultTick     = time.Second
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Status is a point-in-time view of the timer.
type Status struct {
	State     State         `json:"state"`
	TaskID    string        `json:"task_id,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	Remaining time.Duration `json:"-"`
	Seconds   int           `json:"remaining_seconds"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
}

// CompleteFunc receives the task id of a session that ran to zero and the id that
// Start allocated for that session.
type CompleteFunc func(taskID, sessionID string)

// Timer allows one session at a time. Each tick subtracts the tick length from the
// remaining time; drift is not compensated.
type Timer struct {
	mu         sync.Mutex
	duration   time.Duration
	tick       time.Duration
	onComplete CompleteFunc
	logger     *zap.Logger

	taskID    string
	sessionID string
	remaining time.Duration
	startedAt time.Time
	running   bool
	active    bool
	stop      chan struct{}
	done      chan struct{}
	// generation invalidates tickers from a cancelled or finished session.
	generation uint64
}

func NewTimer(duration, tick time.Duration, onComplete CompleteFunc, logger *zap.Logger) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timer{
		duration:   duration,
		tick:       tick,
		onComplete: onComplete,
		logger:     logger,
	}
}

// Start begins a session for taskID.
func (t *Timer) Start(taskID string) (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return t.statusLocked(), domain.ErrFocusActive
	}
	t.taskID = taskID
	t.sessionID = uuid.NewString()
	t.remaining = t.duration
	t.startedAt = time.Now()
	t.active = true
	t.runLocked()

	t.logger.Info("focus session started",
		zap.String("task_id", taskID),
		zap.String("session_id", t.sessionID),
		zap.Duration("duration", t.duration))
	return t.statusLocked(), nil
}

// Pause freezes the countdown. Pausing a paused session is a no-op.
func (t *Timer) Pause() (Status, error) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return Status{State: StateIdle}, domain.ErrNoFocusSession
	}
	done := t.haltLocked()
	status := t.statusLocked()
	t.mu.Unlock()

	wait(done)
	return status, nil
}

// Resume continues a paused session.
func (t *Timer) Resume() (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return Status{State: StateIdle}, domain.ErrNoFocusSession
	}
	if !t.running {
		t.runLocked()
	}
	return t.statusLocked(), nil
}

// Cancel abandons the session without calling the completion callback.
func (t *Timer) Cancel() error {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return domain.ErrNoFocusSession
	}
	taskID := t.taskID
	done := t.resetLocked()
	t.mu.Unlock()

	wait(done)
	t.logger.Info("focus session cancelled", zap.String("task_id", taskID))
	return nil
}

// Status reports the current session.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

// Close stops any running session. It never triggers the completion callback.
func (t *Timer) Close() {
	t.mu.Lock()
	done := t.resetLocked()
	t.mu.Unlock()
	wait(done)
}

func (t *Timer) runLocked() {
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop = stop
	t.done = done
	t.running = true
	t.generation++
	go t.loop(t.generation, stop, done)
}

// haltLocked stops the ticker goroutine and returns its done channel.
func (t *Timer) haltLocked() chan struct{} {
	if !t.running {
		return nil
	}
	close(t.stop)
	done := t.done
	t.stop = nil
	t.done = nil
	t.running = false
	return done
}

func (t *Timer) resetLocked() chan struct{} {
	done := t.haltLocked()
	t.active = false
	t.taskID = ""
	t.sessionID = ""
	t.remaining = 0
	t.generation++
	return done
}

func (t *Timer) loop(generation uint64, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			taskID, sessionID, finished := t.advance(generation)
			if !finished {
				continue
			}
			t.logger.Info("focus session completed", zap.String("task_id", taskID), zap.String("session_id", sessionID))
			if t.onComplete != nil {
				t.onComplete(taskID, sessionID)
			}
			return
		}
	}
}

// advance applies one tick. When the countdown reaches zero the session is cleared
// under the lock, so only one goroutine can ever report it finished.
func (t *Timer) advance(generation uint64) (string, string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if generation != t.generation || !t.running {
		return "", "", false
	}
	t.remaining -= t.tick
	if t.remaining > 0 {
		return "", "", false
	}

	taskID, sessionID := t.taskID, t.sessionID
	t.active = false
	t.running = false
	t.taskID = ""
	t.sessionID = ""
	t.remaining = 0
	t.stop = nil
	t.done = nil
	t.generation++
	return taskID, sessionID, true
}

func (t *Timer) statusLocked() Status {
	if !t.active {
		return Status{State: StateIdle}
	}
	state := StatePaused
	if t.running {
		state = StateRunning
	}
	started := t.startedAt
	return Status{
		State:     state,
		TaskID:    t.taskID,
		SessionID: t.sessionID,
		Remaining: t.remaining,
		Seconds:   int((t.remaining + time.Second - 1) / time.Second),
		StartedAt: &started,
	}
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}
