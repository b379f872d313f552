package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(s repository.Store) {
	ctx := context.Background()

	Convey("When a board is unknown", func() {
		entries, err := s.Load(ctx, "nobody")

		Convey("Then it loads empty", func() {
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})

	Convey("When a board is saved", func() {
		So(s.Save(ctx, "weekly", []repository.Entry{
			{Member: "alice", Score: 10},
			{Member: "bob", Score: -2.5},
		}), ShouldBeNil)

		Convey("Then it loads the same entries", func() {
			entries, err := s.Load(ctx, "weekly")
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			byMember := map[string]float64{}
			for _, e := range entries {
				byMember[e.Member] = e.Score
			}
			So(byMember["alice"], ShouldEqual, 10.0)
			So(byMember["bob"], ShouldEqual, -2.5)
		})

		Convey("Then it is listed", func() {
			names, err := s.Boards(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"weekly"})
		})

		Convey("And saved again with fewer entries", func() {
			So(s.Save(ctx, "weekly", []repository.Entry{{Member: "carol", Score: 1}}), ShouldBeNil)

			Convey("Then the old entries are gone", func() {
				entries, err := s.Load(ctx, "weekly")
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []repository.Entry{{Member: "carol", Score: 1}})
			})
		})

		Convey("And saved with no entries", func() {
			So(s.Save(ctx, "weekly", nil), ShouldBeNil)

			Convey("Then the board is dropped", func() {
				names, err := s.Boards(ctx)
				So(err, ShouldBeNil)
				So(names, ShouldBeEmpty)
			})
		})

		Convey("And another board is saved", func() {
			So(s.Save(ctx, "daily", []repository.Entry{{Member: "alice", Score: 3}}), ShouldBeNil)

			Convey("Then boards are listed in order", func() {
				names, err := s.Boards(ctx)
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"daily", "weekly"})
			})

			Convey("Then deleting one leaves the other", func() {
				So(s.Delete(ctx, "weekly"), ShouldBeNil)
				entries, err := s.Load(ctx, "weekly")
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
				entries, err = s.Load(ctx, "daily")
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		s := repository.NewMemoryStore()
		exerciseStore(s)

		Convey("When it is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.Load(context.Background(), "weekly")
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store", t, func() {
		s, err := repository.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "boards.db"))
		So(err, ShouldBeNil)
		Reset(func() { _ = s.Close() })

		exerciseStore(s)
	})

	Convey("Given an empty sqlite path", t, func() {
		_, err := repository.NewSQLiteStore(context.Background(), "")
		So(err, ShouldNotBeNil)
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	Convey("Given a saved sqlite board", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "boards.db")
		s, err := repository.NewSQLiteStore(ctx, path)
		So(err, ShouldBeNil)
		So(s.Save(ctx, "weekly", []repository.Entry{{Member: "alice", Score: 7}}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When the database is reopened", func() {
			s, err = repository.NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			defer s.Close()

			Convey("Then the board is still there", func() {
				entries, err := s.Load(ctx, "weekly")
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []repository.Entry{{Member: "alice", Score: 7}})
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store configuration", t, func() {
		ctx := context.Background()

		Convey("When the backend is memory", func() {
			s, err := repository.Open(ctx, config.StoreConfig{Backend: config.BackendMemory})
			So(err, ShouldBeNil)
			defer s.Close()
			exerciseStore(s)
		})

		Convey("When the backend is sqlite", func() {
			s, err := repository.Open(ctx, config.StoreConfig{
				Backend: config.BackendSQLite,
				SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "open.db")},
			})
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})

		Convey("When the backend is unknown", func() {
			_, err := repository.Open(ctx, config.StoreConfig{Backend: "etcd"})
			So(errors.Is(err, repository.ErrUnknownBackend), ShouldBeTrue)
		})
	})
}
