// Package scoreindex implements an in-memory ranked score index: a set of
// (member, score) pairs kept in total order so that rank, select-by-rank and
// range reads run in logarithmic time.
//
// Ordering: score in the configured direction, then member ascending.
// Rank 0 is always the best entry. All methods are safe for concurrent use;
// writers are serialized behind one lock and readers always observe a
// consistent state.
package scoreindex

import (
	"fmt"
	"math"
	"sync"
)

// NotFound is the rank reported for a member that is not indexed.
const NotFound = -1

// Number is the set of score types an Index can hold.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Entry is one (member, score) pair.
type Entry[S Number] struct {
	Member string `json:"member"`
	Score  S      `json:"score"`
}

// Index is a ranked score index. The zero value is not usable; call New.
type Index[S Number] struct {
	mu       sync.RWMutex
	dir      Direction
	pageSize int
	tree     treap[S]
	scores   map[string]S
}

// New constructs an empty index.
func New[S Number](opts ...Option) *Index[S] {
	c := config{
		direction: Descending,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &Index[S]{
		dir:      c.direction,
		pageSize: c.pageSize,
		tree:     newTreap[S](c.direction, c),
		scores:   make(map[string]S),
	}
}

// Direction returns the ranking direction fixed at construction.
func (i *Index[S]) Direction() Direction { return i.dir }

// PageSize returns the configured default page size.
func (i *Index[S]) PageSize() int { return i.pageSize }

func finite[S Number](s S) bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func invariant(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInternalInvariant, fmt.Sprintf(format, args...)))
}

// Add sets member's score, replacing any previous one, and returns the
// member's rank afterwards.
func (i *Index[S]) Add(member string, score S) (int, error) {
	if !finite(score) {
		return NotFound, fmt.Errorf("%w: score for %q is not finite", ErrInvalidArgument, member)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	old, ok := i.scores[member]
	if !ok || old != score {
		i.setLocked(member, old, ok, score)
	}
	return i.rankLocked(member, score), nil
}

// IncrementBy adds delta to member's score and returns the new score.
// An absent member starts from zero.
func (i *Index[S]) IncrementBy(member string, delta S) (S, error) {
	var zero S
	if !finite(delta) {
		return zero, fmt.Errorf("%w: delta for %q is not finite", ErrInvalidArgument, member)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	old, ok := i.scores[member]
	next := old + delta
	if !finite(next) {
		return old, fmt.Errorf("%w: score for %q overflows", ErrInvalidArgument, member)
	}
	if !ok || next != old {
		i.setLocked(member, old, ok, next)
	}
	return next, nil
}

// setLocked moves member from (old) to (score). Caller holds the write lock.
func (i *Index[S]) setLocked(member string, old S, present bool, score S) {
	if present && !i.tree.remove(member, old) {
		invariant("member %q missing from order structure", member)
	}
	i.tree.insert(member, score)
	i.scores[member] = score
}

// Remove deletes member and reports whether it was present.
func (i *Index[S]) Remove(member string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	old, ok := i.scores[member]
	if !ok {
		return false
	}
	if !i.tree.remove(member, old) {
		invariant("member %q missing from order structure", member)
	}
	delete(i.scores, member)
	return true
}

// Rank returns member's zero-based rank. Absent members yield (NotFound, false).
func (i *Index[S]) Rank(member string) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	score, ok := i.scores[member]
	if !ok {
		return NotFound, false
	}
	return i.rankLocked(member, score), true
}

func (i *Index[S]) rankLocked(member string, score S) int {
	r := i.tree.rank(member, score)
	if r < 0 {
		invariant("member %q missing from order structure", member)
	}
	return r
}

// Lookup returns member's entry and rank from a single consistent state.
func (i *Index[S]) Lookup(member string) (Entry[S], int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	score, ok := i.scores[member]
	if !ok {
		return Entry[S]{}, NotFound, false
	}
	return Entry[S]{Member: member, Score: score}, i.rankLocked(member, score), true
}

// Score returns member's score and whether the member is present.
func (i *Index[S]) Score(member string) (S, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	s, ok := i.scores[member]
	return s, ok
}

// At returns the entry at rank. Negative ranks count from the end, so -1 is
// the last entry. The second result is false when rank is out of bounds.
func (i *Index[S]) At(rank int) (Entry[S], bool) {
	e, _, ok := i.Select(rank)
	return e, ok
}

// Select is At that also returns the non-negative rank the entry sits at.
func (i *Index[S]) Select(rank int) (Entry[S], int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n := i.tree.len()
	if rank < 0 {
		rank += n
	}
	if rank < 0 || rank >= n {
		return Entry[S]{}, NotFound, false
	}
	nd := i.tree.at(rank)
	if nd == nil {
		invariant("no node at rank %d of %d", rank, n)
	}
	return Entry[S]{Member: nd.member, Score: nd.score}, rank, true
}

// Page returns the entries ranked [pageIndex*pageSize, pageIndex*pageSize+pageSize).
// A pageSize of 0 selects the configured page size. Pages past the end are empty.
func (i *Index[S]) Page(pageIndex, pageSize int) ([]Entry[S], error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("%w: negative page index %d", ErrInvalidArgument, pageIndex)
	}
	if pageSize < 0 {
		return nil, fmt.Errorf("%w: negative page size %d", ErrInvalidArgument, pageSize)
	}
	if pageSize == 0 {
		pageSize = i.pageSize
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	n := i.tree.len()
	if pageIndex > n/pageSize {
		return []Entry[S]{}, nil
	}
	start := pageIndex * pageSize
	end := min(start+pageSize, n)
	if start >= end {
		return []Entry[S]{}, nil
	}
	return appendRange(i.tree.root, start, end, make([]Entry[S], 0, end-start)), nil
}

// List returns page pageIndex using the configured page size.
func (i *Index[S]) List(pageIndex int) ([]Entry[S], error) {
	return i.Page(pageIndex, 0)
}

// Range returns the entries ranked start..stop inclusive. Negative positions
// count from the end; out-of-range bounds are clamped.
func (i *Index[S]) Range(start, stop int) []Entry[S] {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n := i.tree.len()
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(start, 0)
	stop = min(stop, n-1)
	if start > stop {
		return []Entry[S]{}
	}
	return appendRange(i.tree.root, start, stop+1, make([]Entry[S], 0, stop-start+1))
}

// Around returns the entries ranked within radius of member together with
// member's rank. An absent member yields (nil, NotFound, nil).
func (i *Index[S]) Around(member string, radius int) ([]Entry[S], int, error) {
	if radius < 0 {
		return nil, NotFound, fmt.Errorf("%w: negative radius %d", ErrInvalidArgument, radius)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	score, ok := i.scores[member]
	if !ok {
		return nil, NotFound, nil
	}
	r := i.rankLocked(member, score)
	// radius may be as large as math.MaxInt
	lo := r - min(radius, r)
	hi := r + 1 + min(radius, i.tree.len()-r-1)
	return appendRange(i.tree.root, lo, hi, make([]Entry[S], 0, hi-lo)), r, nil
}

// Size returns the number of indexed members.
func (i *Index[S]) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.scores)
}

// Entries returns every entry in rank order.
func (i *Index[S]) Entries() []Entry[S] {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n := i.tree.len()
	return appendRange(i.tree.root, 0, n, make([]Entry[S], 0, n))
}

// Load replaces the contents of the index with entries. The index is left
// untouched when entries contain a duplicate member or a non-finite score.
func (i *Index[S]) Load(entries []Entry[S]) error {
	scores := make(map[string]S, len(entries))
	for _, e := range entries {
		if !finite(e.Score) {
			return fmt.Errorf("%w: score for %q is not finite", ErrInvalidArgument, e.Member)
		}
		if _, dup := scores[e.Member]; dup {
			return fmt.Errorf("%w: duplicate member %q", ErrInvalidArgument, e.Member)
		}
		scores[e.Member] = e.Score
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.tree.root = nil
	for _, e := range entries {
		i.tree.insert(e.Member, e.Score)
	}
	i.scores = scores
	return nil
}

// Check verifies that the member map and the order structure agree.
func (i *Index[S]) Check() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count, err := i.tree.verify(i.scores)
	if err != nil {
		return err
	}
	if count != len(i.scores) {
		return fmt.Errorf("%w: tree holds %d members, map holds %d", ErrInternalInvariant, count, len(i.scores))
	}
	return nil
}
