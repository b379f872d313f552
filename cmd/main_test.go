package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 2
		ctx := context.Background()

		convey.Convey("When the service is built with the memory backend", func() {
			svc, err := buildService(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop(ctx)

			convey.Convey("Then the HTTP server routes to it", func() {
				srv := newHTTPServer(cfg, svc, logger.NewNop())
				convey.So(srv.Addr, convey.ShouldEqual, ":9080")
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPut, "/boards/weekly/members/alice", strings.NewReader(`{"score": 3}`))
				srv.Handler.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"rank":0`)
			})
		})

		convey.Convey("When a board override is configured", func() {
			cfg.Boards = map[string]config.BoardConfig{"golf": {Reverse: true}}
			svc, err := buildService(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop(ctx)

			info, err := svc.BoardInfo(ctx, "golf")
			convey.So(err, convey.ShouldBeNil)
			convey.So(info.Direction, convey.ShouldEqual, "ascending")
		})

		convey.Convey("When the sqlite backend is selected", func() {
			cfg.Store.Backend = config.BackendSQLite
			cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "sb.db")

			svc, err := buildService(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			_, err = svc.Add(ctx, "weekly", "alice", 9)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Stop(ctx), convey.ShouldBeNil)

			convey.Convey("Then a rebuilt service restores the board", func() {
				again, err := buildService(ctx, cfg, logger.NewNop())
				convey.So(err, convey.ShouldBeNil)
				convey.So(again.Start(ctx), convey.ShouldBeNil)
				defer again.Stop(ctx)

				e, err := again.Member(ctx, "weekly", "alice")
				convey.So(err, convey.ShouldBeNil)
				convey.So(e.Score, convey.ShouldEqual, 9.0)
			})
		})

		convey.Convey("When the redis backend is unreachable", func() {
			cfg.Store.Backend = config.BackendRedis
			cfg.Store.Redis.Addr = "127.0.0.1:1"

			_, err := buildService(ctx, cfg, logger.NewNop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
