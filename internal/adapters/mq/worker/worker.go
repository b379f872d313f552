package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/okian/scoreboard/pkg/scoreindex"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Event is the payload type workers consume.
type Event = model.ScoreEvent

// Applier applies one event to its board.
type Applier interface {
	Apply(ctx context.Context, e Event) error
}

// Queue is the consumer side of the ingest queue.
type Queue interface {
	Dequeue() <-chan Event
}

// Pool runs a fixed number of workers reading from one queue.
type Pool struct {
	queue   Queue
	applier Applier
	count   int
	name    string
	logger  logger.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	active   atomic.Int64

	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool of workerCount workers. A count below one selects
// twice the number of CPUs.
func NewPool(workerCount int, queue Queue, applier Applier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		queue:   queue,
		applier: applier,
		count:   workerCount,
		name:    "worker",
		logger:  logger.NewNop(),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.count }

// Processed returns how many events were applied successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many events failed to apply.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Start launches the workers. They exit when ctx is canceled, when Stop is
// called, or when the queue channel is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		go p.run(ctx, p.logger.Named(p.name+"-"+strconv.Itoa(i)))
	}
}

func (p *Pool) run(ctx context.Context, log logger.Logger) {
	defer p.wg.Done()
	metrics.UpdateWorkerActive(int(p.active.Add(1)))
	defer func() { metrics.UpdateWorkerActive(int(p.active.Add(-1))) }()

	events := p.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := p.process(ctx, e); err != nil {
				log.Error(ctx, "error processing event",
					logger.String("event_id", e.EventID),
					logger.String("board", e.Board),
					logger.Error(err),
				)
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: events travel by value
	err := p.applier.Apply(ctx, e)
	kind := string(e.Kind)
	switch {
	case err == nil:
		p.processed.Add(1)
		metrics.RecordWorkerEvent(kind, metrics.ResultOK)
		return nil
	case errors.Is(err, scoreindex.ErrInvalidArgument), errors.Is(err, model.ErrInvalidEvent):
		metrics.RecordWorkerEvent(kind, metrics.ResultInvalid)
	default:
		metrics.RecordWorkerEvent(kind, metrics.ResultError)
		metrics.RecordError("worker", "apply_error")
	}
	p.failed.Add(1)
	return fmt.Errorf("apply event %s: %w", e.EventID, err)
}

// Stop tells workers to exit without draining the queue and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// Wait blocks until every worker has exited or ctx is done. Workers exit on
// their own once the queue is closed and drained, so closing the queue and
// then calling Wait performs a graceful drain.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker drain timed out")
		return fmt.Errorf("worker drain timed out: %w", ctx.Err())
	}
}
