package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PageSize, convey.ShouldEqual, 50)
			convey.So(cfg.MaxPageSize, convey.ShouldEqual, 1000)
			convey.So(cfg.Reverse, convey.ShouldBeFalse)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.FlushInterval, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given an otherwise valid config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero page size", func(c *config.Config) { c.PageSize = 0 }},
			{"max below default", func(c *config.Config) { c.MaxPageSize = 10 }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"zero flush", func(c *config.Config) { c.FlushInterval = 0 }},
			{"unknown backend", func(c *config.Config) { c.Store.Backend = "etcd" }},
			{"redis without addr", func(c *config.Config) {
				c.Store.Backend = config.BackendRedis
				c.Store.Redis.Addr = ""
			}},
			{"sqlite without path", func(c *config.Config) {
				c.Store.Backend = config.BackendSQLite
				c.Store.SQLite.Path = ""
			}},
			{"negative board page size", func(c *config.Config) {
				c.Boards["weekly"] = config.BoardConfig{PageSize: -1}
			}},
			{"invalid board name", func(c *config.Config) {
				c.Boards["weekly ladder"] = config.BoardConfig{Reverse: true}
			}},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
