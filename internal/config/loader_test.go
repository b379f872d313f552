package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoreboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearConfigEnv unsets every SCOREBOARD_ variable; t.Setenv restores them after the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, config.EnvPrefix) {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnv(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("SCOREBOARD_ADDR", ":8080")
			t.Setenv("SCOREBOARD_PAGE_SIZE", "25")
			t.Setenv("SCOREBOARD_REVERSE", "true")
			t.Setenv("SCOREBOARD_FLUSH_INTERVAL", "250ms")
			t.Setenv("SCOREBOARD_STORE__BACKEND", "redis")
			t.Setenv("SCOREBOARD_STORE__REDIS__ADDR", "redis:6380")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.Reverse, convey.ShouldBeTrue)
				convey.So(cfg.FlushInterval, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.Store.Redis.Addr, convey.ShouldEqual, "redis:6380")
				convey.So(cfg.Store.Redis.KeyPrefix, convey.ShouldEqual, "scoreboard:")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
page_size: 20
max_page_size: 200
store:
  backend: sqlite
  sqlite:
    path: /tmp/boards.db
boards:
  speedrun:
    reverse: true
    page_size: 10
`)
			t.Setenv("SCOREBOARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PageSize, convey.ShouldEqual, 20)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 200)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.Store.SQLite.Path, convey.ShouldEqual, "/tmp/boards.db")
				convey.So(cfg.Boards["speedrun"].Reverse, convey.ShouldBeTrue)
				convey.So(cfg.Boards["speedrun"].PageSize, convey.ShouldEqual, 10)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				t.Setenv("SCOREBOARD_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file is missing", func() {
			t.Setenv("SCOREBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			t.Setenv("SCOREBOARD_STORE__BACKEND", "cassandra")
			_, err := config.Load(ctx)

			convey.Convey("Then a validation error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
