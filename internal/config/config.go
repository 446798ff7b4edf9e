package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	SQLite      SQLiteConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Journal     JournalConfig
	Focus       FocusConfig
	Rewards     RewardsConfig
	Workspace   WorkspaceConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

// StorageConfig selects the task/profile backend.
type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type SQLiteConfig struct {
	Path string
}

// RedisConfig is optional in sqlite mode, where it is disabled by default.
type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type JournalConfig struct {
	Path           string
	RetentionHours int
}

type FocusConfig struct {
	Duration time.Duration
	Tick     time.Duration
}

type RewardsConfig struct {
	CompletionPoints int
	SessionPoints    int
}

type WorkspaceConfig struct {
	IdleTTL          time.Duration
	JanitorSchedule  string
	PersistTimeout   time.Duration
	ReconcileTimeout time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskflow"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getString("STORAGE_DRIVER", DriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "taskflow"),
			User:            getString("DB_USER", "taskflow"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		SQLite: SQLiteConfig{
			Path: getString("SQLITE_PATH", "./data/taskflow.db"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "taskflow"),
			TTL:    getDuration("JWT_TTL", 24*time.Hour),
		},
		Journal: JournalConfig{
			Path:           getString("JOURNAL_PATH", "./data/journal.db"),
			RetentionHours: getInt("JOURNAL_RETENTION_HOURS", 24*90),
		},
		Focus: FocusConfig{
			Duration: getDuration("FOCUS_DURATION", 25*time.Minute),
			Tick:     getDuration("FOCUS_TICK", time.Second),
		},
		Rewards: RewardsConfig{
			CompletionPoints: getInt("REWARD_COMPLETION_POINTS", 10),
			SessionPoints:    getInt("REWARD_SESSION_POINTS", 25),
		},
		Workspace: WorkspaceConfig{
			IdleTTL:          getDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
			JanitorSchedule:  getString("JANITOR_SCHEDULE", "@every 5m"),
			PersistTimeout:   getDuration("PROFILE_PERSIST_TIMEOUT", 5*time.Second),
			ReconcileTimeout: getDuration("RECONCILE_TIMEOUT", 5*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	cfg.Redis.Enabled = getBool("REDIS_ENABLED", cfg.Storage.Driver == DriverPostgres)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" && c.Environment == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Rewards.CompletionPoints <= 0 || c.Rewards.SessionPoints <= 0 {
		return fmt.Errorf("reward points must be positive")
	}
	if c.Focus.Duration <= 0 || c.Focus.Tick <= 0 {
		return fmt.Errorf("focus duration and tick must be positive")
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

// JournalRetention is how long award history is kept.
func (c *Config) JournalRetention() time.Duration {
	return time.Duration(c.Journal.RetentionHours) * time.Hour
}
