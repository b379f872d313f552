package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/okian/scoreboard/pkg/scoreindex"
)

// ValidateBoardName reports whether name can be used as a board name.
func ValidateBoardName(name string) error {
	if !model.ValidBoardName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidBoard, name)
	}
	return nil
}

// BoardOptions configures the index behind one board.
type BoardOptions struct {
	Reverse  bool
	PageSize int
}

func (o BoardOptions) indexOptions() []scoreindex.Option {
	opts := []scoreindex.Option{scoreindex.WithReverse(o.Reverse)}
	if o.PageSize > 0 {
		opts = append(opts, scoreindex.WithPageSize(o.PageSize))
	}
	return opts
}

// Board is one named index plus its persistence state.
type Board struct {
	name  string
	index *scoreindex.Index[float64]
	dirty atomic.Bool

	// set under the registry lock when the board leaves the registry
	dropped atomic.Bool

	// closed once the persisted entries are loaded; err is set before that
	ready chan struct{}
	err   error
}

// Name returns the board name.
func (b *Board) Name() string { return b.name }

// Index returns the index holding the board's members.
func (b *Board) Index() *scoreindex.Index[float64] { return b.index }

// Registry maps board names to indexes, creating them on first use.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board

	// held across a flush round and across Drop's store delete, so a save
	// never lands after the delete of the same board
	persist sync.Mutex

	store     repository.Store
	defaults  BoardOptions
	overrides map[string]BoardOptions
	logger    logger.Logger
}

// NewRegistry creates an empty registry. store may be nil, in which case
// boards start empty and are never persisted.
func NewRegistry(store repository.Store, defaults BoardOptions, overrides map[string]BoardOptions, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		boards:    make(map[string]*Board),
		store:     store,
		defaults:  defaults,
		overrides: overrides,
		logger:    log,
	}
}

func (r *Registry) optionsFor(name string) BoardOptions {
	if o, ok := r.overrides[name]; ok {
		if o.PageSize == 0 {
			o.PageSize = r.defaults.PageSize
		}
		return o
	}
	return r.defaults
}

// Get returns the named board, creating it and loading its persisted
// entries if it is not in memory yet. Concurrent callers for the same new
// board wait for a single load.
func (r *Registry) Get(ctx context.Context, name string) (*Board, error) {
	if b, ok := r.Lookup(name); ok {
		return b, nil
	}
	if err := ValidateBoardName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	b, exists := r.boards[name]
	if !exists {
		b = &Board{
			name:  name,
			index: scoreindex.New[float64](r.optionsFor(name).indexOptions()...),
			ready: make(chan struct{}),
		}
		r.boards[name] = b
	}
	r.mu.Unlock()

	if exists {
		select {
		case <-b.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if b.err != nil {
			return nil, b.err
		}
		return r.current(ctx, b)
	}

	if err := r.load(ctx, b); err != nil {
		b.err = err
		r.mu.Lock()
		if r.boards[name] == b {
			delete(r.boards, name)
		}
		r.mu.Unlock()
		close(b.ready)
		return nil, err
	}
	close(b.ready)

	r.mu.RLock()
	n := len(r.boards)
	r.mu.RUnlock()
	metrics.SetBoards(n)
	metrics.SetBoardMembers(name, b.index.Size())
	return r.current(ctx, b)
}

// current returns b if it is still registered, or resolves the board that
// replaced it after a Drop raced with the load.
func (r *Registry) current(ctx context.Context, b *Board) (*Board, error) {
	if !b.dropped.Load() {
		return b, nil
	}
	return r.Get(ctx, b.name)
}

func (r *Registry) load(ctx context.Context, b *Board) error {
	if r.store == nil {
		return nil
	}
	entries, err := r.store.Load(ctx, b.name)
	if err != nil {
		return fmt.Errorf("load board %q: %w", b.name, err)
	}
	if err := b.index.Load(entries); err != nil {
		return fmt.Errorf("restore board %q: %w", b.name, err)
	}
	if len(entries) > 0 {
		r.logger.Debug(ctx, "board restored",
			logger.String("board", b.name),
			logger.Int("members", len(entries)),
		)
	}
	return nil
}

// Lookup returns a board that is already in memory and loaded.
func (r *Registry) Lookup(name string) (*Board, bool) {
	r.mu.RLock()
	b, ok := r.boards[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	select {
	case <-b.ready:
		return b, b.err == nil
	default:
		return nil, false
	}
}

// Names returns the in-memory board names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Restore loads every board the store knows about.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	names, err := r.store.Boards(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored boards: %w", err)
	}
	for _, name := range names {
		if _, err := r.Get(ctx, name); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// Drop forgets a board and deletes its persisted copy. It reports whether
// the board was in memory.
func (r *Registry) Drop(ctx context.Context, name string) (bool, error) {
	if err := ValidateBoardName(name); err != nil {
		return false, err
	}

	r.mu.Lock()
	b, ok := r.boards[name]
	if ok {
		b.dropped.Store(true)
		delete(r.boards, name)
	}
	n := len(r.boards)
	r.mu.Unlock()

	metrics.SetBoards(n)
	metrics.DeleteBoard(name)
	if r.store == nil {
		return ok, nil
	}

	r.persist.Lock()
	defer r.persist.Unlock()
	if err := r.store.Delete(ctx, name); err != nil {
		return ok, fmt.Errorf("delete board %q: %w", name, err)
	}
	// a board recreated under the same name may have been saved before the delete
	if nb, exists := r.lookupAny(name); exists {
		nb.dirty.Store(true)
	}
	return ok, nil
}

func (r *Registry) lookupAny(name string) (*Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[name]
	return b, ok
}

// snapshot returns the boards currently in memory.
func (r *Registry) snapshot() []*Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Board, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b)
	}
	return out
}
