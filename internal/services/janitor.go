package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IdleEvictor drops workspaces nobody has used for a while.
type IdleEvictor interface {
	EvictIdle(ctx context.Context, maxIdle time.Duration) (int, error)
}

// JournalPruner removes award history older than a cutoff.
type JournalPruner interface {
	Cleanup(olderThan time.Time) (int, error)
}

type JanitorConfig struct {
	Schedule         string
	IdleTTL          time.Duration
	JournalRetention time.Duration
	Timeout          time.Duration
}

// Janitor periodically evicts idle workspaces and prunes the award journal.
type Janitor struct {
	workspaces IdleEvictor
	journal    JournalPruner
	cfg        JanitorConfig
	cron       *cron.Cron
	now        func() time.Time
	logger     *zap.Logger
}

func NewJanitor(workspaces IdleEvictor, journal JournalPruner, cfg JanitorConfig, logger *zap.Logger) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Janitor{
		workspaces: workspaces,
		journal:    journal,
		cfg:        cfg,
		cron:       cron.New(),
		now:        time.Now,
		logger:     logger,
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return nil, err
	}
	return j, nil
}

// Start launches the cron scheduler.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("janitor started", zap.String("schedule", j.cfg.Schedule))
}

// Stop waits for a running pass to finish or for ctx to expire.
func (j *Janitor) Stop(ctx context.Context) error {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	j.logger.Info("janitor stopped")
	return nil
}

// RunOnce performs one maintenance pass.
func (j *Janitor) RunOnce(ctx context.Context) {
	if j.workspaces != nil {
		evicted, err := j.workspaces.EvictIdle(ctx, j.cfg.IdleTTL)
		if err != nil {
			j.logger.Error("idle workspace eviction failed", zap.Error(err))
		} else if evicted > 0 {
			j.logger.Info("idle workspaces evicted", zap.Int("count", evicted))
		}
	}

	if j.journal != nil && j.cfg.JournalRetention > 0 {
		removed, err := j.journal.Cleanup(j.now().Add(-j.cfg.JournalRetention))
		if err != nil {
			j.logger.Error("journal cleanup failed", zap.Error(err))
		} else if removed > 0 {
			j.logger.Info("journal pruned", zap.Int("removed", removed))
		}
	}
}
