package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskflow/internal/config"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/repository/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured storage driver",
		Long: `Apply pending schema migrations and exit.

Postgres uses the SQL files under MIGRATIONS_PATH. SQLite databases are
migrated in place when opened.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer zapLogger.Sync()

			switch cfg.Storage.Driver {
			case config.DriverSQLite:
				db, err := sqlite.Open(cfg.SQLite.Path)
				if err != nil {
					return err
				}
				return db.Close()
			default:
				return pgInfra.Migrate(cfg, zapLogger)
			}
		},
	}
}
