package main

import (
	"context"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskflow/internal/infrastructure/redis"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/memory"
	"github.com/fastygo/taskflow/repository/postgres"
	redisRepo "github.com/fastygo/taskflow/repository/redis"
	"github.com/fastygo/taskflow/repository/sqlite"
)

// backend bundles the repositories for the configured storage driver.
type backend struct {
	users    repository.UserRepository
	tasks    repository.TaskRepository
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	feed     repository.ChangeFeed
	database monitor.Pinger
	redis    *goRedis.Client
}

// openBackend connects the storage driver and, when enabled, Redis. Every opened
// resource is registered with manager for shutdown.
func openBackend(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		b.users = postgres.NewUserRepository(pool)
		b.tasks = postgres.NewTaskRepository(pool)
		b.profiles = postgres.NewProfileRepository(pool)
		b.database = pool

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		manager.RegisterCloser("sqlite", db)
		logger.Info("opened sqlite database", zap.String("path", cfg.SQLite.Path))
		b.users = sqlite.NewUserRepository(db)
		b.tasks = sqlite.NewTaskRepository(db)
		b.profiles = sqlite.NewProfileRepository(db)
		b.database = db

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, using in-process sessions and change feed")
		b.sessions = memory.NewSessionRepository(cfg.JWT.TTL)
		b.feed = memory.NewChangeFeed()
		return b, nil
	}

	client, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	manager.RegisterCloser("redis", client)
	b.redis = client
	b.sessions = redisRepo.NewSessionRepository(client, sessionTTL(cfg))
	b.feed = redisRepo.NewChangeFeed(client, logger)
	return b, nil
}

func sessionTTL(cfg *config.Config) time.Duration {
	if cfg.JWT.TTL > 0 {
		return cfg.JWT.TTL
	}
	return 24 * time.Hour
}
