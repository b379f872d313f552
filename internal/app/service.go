// Package service owns the boards and implements the operations the HTTP API
// exposes: synchronous reads and writes plus asynchronous event ingest.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/scoreboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/scoreboard/internal/adapters/mq/worker"
	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/dedupe"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/okian/scoreboard/pkg/scoreindex"
)

const (
	defaultMaxPageSize   = 1000
	defaultFlushInterval = 5 * time.Second
	drainTimeout         = 30 * time.Second
)

// Service implements the API dependencies for the scoreboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *Registry
	store    repository.Store
	deduper  dedupe.Deduper
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	flusher  *flusher

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxPageSize   int
	flushInterval time.Duration
	defaults      BoardOptions
	overrides     map[string]BoardOptions

	started  bool
	stopping bool
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxPageSize caps page and radius arguments.
func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithStore persists boards to store. Without it boards live in memory only.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithFlushInterval sets how often dirty boards are saved.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// WithBoardDefaults sets the options of boards without an override.
func WithBoardDefaults(o BoardOptions) Option {
	return func(s *Service) {
		s.defaults = o
	}
}

// WithBoardOverride sets the options of one board.
func WithBoardOverride(name string, o BoardOptions) Option {
	return func(s *Service) {
		s.overrides[name] = o
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     100_000,
		dedupeSize:    dedupe.DefaultMaxSize,
		maxPageSize:   defaultMaxPageSize,
		flushInterval: defaultFlushInterval,
		defaults:      BoardOptions{PageSize: scoreindex.DefaultPageSize},
		overrides:     make(map[string]BoardOptions),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start restores persisted boards and starts the worker pool and flusher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoreboard service...")

	s.registry = NewRegistry(s.store, s.defaults, s.overrides, s.logger.Named("registry"))
	restored, err := s.registry.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore boards: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithObserver(metrics.UpdateDedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// workers outlive the request that started the service
	s.pool.Start(context.WithoutCancel(ctx))

	if s.store != nil {
		s.flusher = newFlusher(s.registry, s.store, s.flushInterval, s.logger.Named("flusher"))
		s.flusher.start()
	}

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("restored_boards", restored),
	)
	return nil
}

// Stop drains the ingest queue, saves dirty boards and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	q, pool, f, store := s.queue, s.pool, s.flusher, s.store
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping scoreboard service...")

	// workers keep applying buffered events until the closed queue is empty
	var errs []error
	_ = q.Close()
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := pool.Wait(drainCtx); err != nil {
		pool.Stop()
		errs = append(errs, err)
	}

	if f != nil {
		f.stop()
		if err := f.flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final flush: %w", err))
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	s.mu.Lock()
	s.started = false
	s.stopping = false
	s.mu.Unlock()

	s.logger.Info(ctx, "scoreboard service stopped")
	return errors.Join(errs...)
}

// board resolves name while the service is running.
func (s *Service) board(ctx context.Context, name string) (*Board, error) {
	s.mu.RLock()
	started, reg := s.started, s.registry
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return reg.Get(ctx, name)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, scoreindex.ErrInvalidArgument):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

// observe records an index operation; errp is read when the deferred call runs.
func observe(op string, start time.Time, errp *error) {
	metrics.ObserveIndexOp(op, resultOf(*errp), start)
}

func (b *Board) touched() {
	b.dirty.Store(true)
	metrics.SetBoardMembers(b.name, b.index.Size())
}

// Add sets member's score on board and returns its rank.
func (s *Service) Add(ctx context.Context, board, member string, score float64) (rank int, err error) {
	defer observe("add", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return scoreindex.NotFound, err
	}
	rank, err = b.index.Add(member, score)
	if err != nil {
		return scoreindex.NotFound, err
	}
	b.touched()
	return rank, nil
}

// Increment adds delta to member's score on board and returns the new score.
func (s *Service) Increment(ctx context.Context, board, member string, delta float64) (score float64, err error) {
	defer observe("increment", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return 0, err
	}
	score, err = b.index.IncrementBy(member, delta)
	if err != nil {
		return 0, err
	}
	b.touched()
	return score, nil
}

// Remove deletes member from board and reports whether it was present.
func (s *Service) Remove(ctx context.Context, board, member string) (removed bool, err error) {
	defer observe("remove", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return false, err
	}
	if removed = b.index.Remove(member); removed {
		b.touched()
	}
	return removed, nil
}

// Member returns member's rank and score on board.
func (s *Service) Member(ctx context.Context, board, member string) (e types.Entry, err error) {
	defer observe("member", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return types.Entry{}, err
	}
	got, rank, ok := b.index.Lookup(member)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: member %q on board %q", ErrNotFound, member, board)
	}
	return types.Entry{Rank: rank, Member: member, Score: got.Score}, nil
}

// At returns the entry at rank on board. Negative ranks count from the end.
func (s *Service) At(ctx context.Context, board string, rank int) (e types.Entry, err error) {
	defer observe("at", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return types.Entry{}, err
	}
	got, resolved, ok := b.index.Select(rank)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: rank %d on board %q", ErrNotFound, rank, board)
	}
	return types.Entry{Rank: resolved, Member: got.Member, Score: got.Score}, nil
}

// Page returns page pageIndex of board. A size of 0 selects the board's page
// size; larger sizes are capped at the configured maximum.
func (s *Service) Page(ctx context.Context, board string, pageIndex, size int) (entries []types.Entry, err error) {
	defer observe("page", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		size = b.index.PageSize()
	}
	size = min(size, s.maxPageSize)
	page, err := b.index.Page(pageIndex, size)
	if err != nil {
		return nil, err
	}
	return ranked(page, pageIndex*size), nil
}

// Around returns the entries within radius of member on board.
func (s *Service) Around(ctx context.Context, board, member string, radius int) (entries []types.Entry, err error) {
	defer observe("around", time.Now(), &err)
	b, err := s.board(ctx, board)
	if err != nil {
		return nil, err
	}
	radius = min(radius, s.maxPageSize/2)
	got, rank, err := b.index.Around(member, radius)
	if err != nil {
		return nil, err
	}
	if rank == scoreindex.NotFound {
		return nil, fmt.Errorf("%w: member %q on board %q", ErrNotFound, member, board)
	}
	return ranked(got, max(rank-radius, 0)), nil
}

func ranked(in []scoreindex.Entry[float64], first int) []types.Entry {
	out := make([]types.Entry, len(in))
	for i, e := range in {
		out[i] = types.Entry{Rank: first + i, Member: e.Member, Score: e.Score}
	}
	return out
}

// BoardInfo describes board.
func (s *Service) BoardInfo(ctx context.Context, board string) (types.BoardInfo, error) {
	b, err := s.board(ctx, board)
	if err != nil {
		return types.BoardInfo{}, err
	}
	return types.BoardInfo{
		Name:      b.name,
		Size:      b.index.Size(),
		Direction: b.index.Direction().String(),
		PageSize:  b.index.PageSize(),
	}, nil
}

// Boards lists the boards in memory.
func (s *Service) Boards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil
	}
	return s.registry.Names()
}

// DropBoard deletes board from memory and from the store.
func (s *Service) DropBoard(ctx context.Context, board string) (bool, error) {
	s.mu.RLock()
	started, reg := s.started, s.registry
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}
	return reg.Drop(ctx, board)
}

// Enqueue submits e for asynchronous application. It reports whether e was
// a duplicate of an event already accepted.
func (s *Service) Enqueue(ctx context.Context, e model.ScoreEvent) (duplicate bool, err error) { //nolint:gocritic // hugeParam: events travel by value
	if err := e.Validate(); err != nil {
		return false, err
	}
	if err := ValidateBoardName(e.Board); err != nil {
		return false, err
	}

	s.mu.RLock()
	started, q, d := s.started, s.queue, s.deduper
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}

	if d.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordDuplicate()
		s.logger.Debug(ctx, "duplicate event detected, skipping",
			logger.String("event_id", e.EventID),
			logger.String("board", e.Board),
		)
		return true, nil
	}
	if err := q.Enqueue(ctx, e); err != nil {
		// let the client retry the same id
		d.Unrecord(ctx, e.EventID)
		if errors.Is(err, eventqueue.ErrFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, err
	}
	return false, nil
}

// Apply applies one queued event. It implements the worker pool's Applier.
func (s *Service) Apply(ctx context.Context, e model.ScoreEvent) error { //nolint:gocritic // hugeParam: events travel by value
	var err error
	switch e.Kind {
	case model.KindSet:
		_, err = s.Add(ctx, e.Board, e.Member, e.Value)
	case model.KindIncrement:
		_, err = s.Increment(ctx, e.Board, e.Member, e.Value)
	case model.KindRemove:
		_, err = s.Remove(ctx, e.Board, e.Member)
	default:
		err = fmt.Errorf("%w: unknown kind %q", model.ErrInvalidEvent, e.Kind)
	}
	return err
}

// Flush saves every dirty board now.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	f := s.flusher
	s.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f.flush(ctx)
}

// RefreshMetrics sets the gauges that reads and dequeues do not update.
func (s *Service) RefreshMetrics() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return
	}

	boards := s.registry.snapshot()
	metrics.SetBoards(len(boards))
	for _, b := range boards {
		metrics.SetBoardMembers(b.name, b.index.Size())
	}
	metrics.UpdateQueue(s.queue.Len(), s.queue.Capacity())
	metrics.UpdateDedupeSize(s.deduper.Size())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		members := 0
		names := s.registry.Names()
		for _, b := range s.registry.snapshot() {
			members += b.index.Size()
		}
		stats["boards"] = len(names)
		stats["members"] = members
		stats["queueLength"] = s.queue.Len()
		stats["dedupeTracked"] = s.deduper.Size()
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
	}
	return stats
}
