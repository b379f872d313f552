package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/scoreboard/internal/adapters/mq/queue"
	worker "github.com/okian/scoreboard/internal/adapters/mq/worker"
	model "github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/scoreindex"
	"github.com/smartystreets/goconvey/convey"
)

// recordingApplier remembers applied events and fails members listed in errs.
type recordingApplier struct {
	mu      sync.Mutex
	applied []string
	errs    map[string]error
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{errs: make(map[string]error)}
}

func (a *recordingApplier) Apply(_ context.Context, e model.ScoreEvent) error { //nolint:gocritic // hugeParam
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.errs[e.Member]; ok {
		return err
	}
	a.applied = append(a.applied, e.EventID)
	return nil
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func ev(id, member string) model.ScoreEvent {
	return model.ScoreEvent{EventID: id, Board: "weekly", Member: member, Kind: model.KindIncrement, Value: 1}
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool over an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		applier := newRecordingApplier()
		pool := worker.NewPool(4, q, applier)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When events are enqueued and the queue is closed", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(context.Background(), ev(fmt.Sprintf("e%d", i), "alice")), convey.ShouldBeNil)
			}
			pool.Start(context.Background())
			convey.So(q.Close(), convey.ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := pool.Wait(ctx)

			convey.Convey("Then every event is applied before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applier.count(), convey.ShouldEqual, 50)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(50))
				convey.So(pool.Failed(), convey.ShouldEqual, int64(0))
			})
		})

		convey.Convey("When some events fail to apply", func() {
			applier.errs["bad"] = fmt.Errorf("%w: not finite", scoreindex.ErrInvalidArgument)
			applier.errs["broken"] = errors.New("boom")
			for i, m := range []string{"alice", "bad", "bob", "broken"} {
				_ = q.Enqueue(context.Background(), ev(fmt.Sprintf("e%d", i), m))
			}
			pool.Start(context.Background())
			_ = q.Close()
			err := pool.Wait(context.Background())

			convey.Convey("Then failures are counted and the rest still apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(2))
				convey.So(pool.Failed(), convey.ShouldEqual, int64(2))
			})
		})

		convey.Convey("When the pool is stopped", func() {
			pool.Start(context.Background())
			done := make(chan struct{})
			go func() {
				pool.Stop()
				pool.Stop()
				close(done)
			}()

			convey.Convey("Then workers exit without the queue being closed", func() {
				select {
				case <-done:
				case <-time.After(5 * time.Second):
					t.Fatal("stop did not return")
				}
				convey.So(q.IsClosed(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			pool.Start(ctx)
			cancel()

			convey.Convey("Then Wait returns", func() {
				wctx, wcancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer wcancel()
				convey.So(pool.Wait(wctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When draining takes longer than the deadline", func() {
			pool.Start(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := pool.Wait(ctx)

			convey.Convey("Then Wait reports the timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				pool.Stop()
			})
		})
	})
}

func TestNewPoolDefaults(t *testing.T) {
	convey.Convey("A non-positive worker count selects a CPU-based default", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newRecordingApplier())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
