package repository

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in process memory. It backs tests and the
// memory backend, where boards do not outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	boards map[string][]Entry
	closed bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{boards: make(map[string][]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, board string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return slices.Clone(s.boards[board]), nil
}

func (s *MemoryStore) Save(_ context.Context, board string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(entries) == 0 {
		delete(s.boards, board)
		return nil
	}
	s.boards[board] = slices.Clone(entries)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, board string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.boards, board)
	return nil
}

func (s *MemoryStore) Boards(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	names := make([]string, 0, len(s.boards))
	for name := range s.boards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
