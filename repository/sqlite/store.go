// Package sqlite implements the repositories on an embedded SQLite database
// for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Fixed-width UTC layout so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory database.
func OpenMemory() (*DB, error) {
	return Open(":memory:")
}

func (s *DB) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DB) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *DB) migrateV1() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,
		`CREATE TABLE profiles (
			user_id    TEXT PRIMARY KEY,
			points     INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
			level      INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE tasks (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL DEFAULT 'Work',
			completed         INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,
			completed_at      TEXT,
			pomodoro_sessions INTEGER NOT NULL DEFAULT 0 CHECK (pomodoro_sessions >= 0),
			xp_awarded        INTEGER NOT NULL DEFAULT 0,
			updated_at        TEXT NOT NULL
		)`,
		`CREATE INDEX tasks_user_created_idx ON tasks (user_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
