package repository

import (
	"context"
	"fmt"

	"github.com/okian/scoreboard/internal/config"
)

// Open builds the instrumented store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		s = NewMemoryStore()
	case config.BackendRedis:
		s, err = NewRedisStore(ctx, RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendMemory
	}
	return Instrument(backend, s), nil
}
