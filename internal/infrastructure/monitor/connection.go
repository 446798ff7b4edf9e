package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool and *sqlite.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer reports the number of journaled entries.
type Sizer interface {
	Size() (int, error)
}

// Counter reports the number of loaded workspaces.
type Counter interface {
	Len() int
}

type Options struct {
	Driver     string
	Database   Pinger
	Redis      *redislib.Client
	Journal    Sizer
	Workspaces Counter
	Interval   time.Duration
}

type Monitor struct {
	opts Options

	status Status
	mu     sync.RWMutex
	stopCh chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		opts:   opts,
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the database and, when configured, Redis are reachable.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh runs every probe once.
func (m *Monitor) Refresh() Status {
	journalOK, journalSize := m.checkJournal()
	status := Status{
		Driver:       m.opts.Driver,
		Database:     m.checkDatabase(),
		RedisEnabled: m.opts.Redis != nil,
		Redis:        m.checkRedis(),
		Journal:      journalOK,
		JournalSize:  journalSize,
		LastCheck:    time.Now(),
	}
	if m.opts.Workspaces != nil {
		status.Workspaces = m.opts.Workspaces.Len()
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) checkDatabase() bool {
	if m.opts.Database == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.opts.Database.Ping(ctx); err != nil {
		m.logger.Warn("database ping failed", zap.String("driver", m.opts.Driver), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkRedis() bool {
	if m.opts.Redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.opts.Redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkJournal() (bool, int) {
	if m.opts.Journal == nil {
		return false, 0
	}
	size, err := m.opts.Journal.Size()
	if err != nil {
		m.logger.Warn("journal size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
