// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/scoreindex"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PageSize is the default page size of boards without an override.
	PageSize int `koanf:"page_size"`

	// MaxPageSize caps the size query parameter of page requests.
	MaxPageSize int `koanf:"max_page_size"`

	// Reverse makes boards without an override rank the lowest score first.
	Reverse bool `koanf:"reverse"`

	// QueueSize bounds the in-memory ingest queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many event ids are remembered for deduplication.
	DedupeSize int `koanf:"dedupe_size"`

	// FlushInterval is how often dirty boards are saved to the store.
	FlushInterval time.Duration `koanf:"flush_interval"`

	Store StoreConfig `koanf:"store"`

	// Boards holds per-board overrides keyed by board name.
	Boards map[string]BoardConfig `koanf:"boards"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string       `koanf:"backend"`
	Redis   RedisConfig  `koanf:"redis"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
}

// RedisConfig configures the Redis sorted-set store.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// BoardConfig overrides ranking options for one board.
type BoardConfig struct {
	Reverse  bool `koanf:"reverse"`
	PageSize int  `koanf:"page_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		PageSize:      scoreindex.DefaultPageSize,
		MaxPageSize:   1000,
		QueueSize:     100_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    500_000,
		FlushInterval: 5 * time.Second,
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "scoreboard:",
			},
			SQLite: SQLiteConfig{
				Path: "scoreboard.db",
			},
		},
		Boards: map[string]BoardConfig{},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PageSize < 1:
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	case c.MaxPageSize < c.PageSize:
		return fmt.Errorf("%w: max_page_size %d is below page_size %d", ErrInvalidConfig, c.MaxPageSize, c.PageSize)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.FlushInterval <= 0:
		return fmt.Errorf("%w: flush_interval must be positive, got %s", ErrInvalidConfig, c.FlushInterval)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr must not be empty", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("%w: store.sqlite.path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	for name, b := range c.Boards {
		if !model.ValidBoardName(name) {
			return fmt.Errorf("%w: boards.%s is not a valid board name", ErrInvalidConfig, name)
		}
		if b.PageSize < 0 {
			return fmt.Errorf("%w: boards.%s.page_size must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
