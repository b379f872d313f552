package repository

import (
	"context"
	"time"

	"github.com/okian/scoreboard/pkg/metrics"
)

// instrumented records the outcome and latency of every Store call.
type instrumented struct {
	backend string
	next    Store
}

// Instrument wraps s so each call is observed under the given backend label.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

func observe(backend, op string, start time.Time, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		metrics.RecordError("store", op)
	}
	metrics.ObserveStoreOp(backend, op, result, start)
}

func (s *instrumented) Load(ctx context.Context, board string) ([]Entry, error) {
	start := time.Now()
	entries, err := s.next.Load(ctx, board)
	observe(s.backend, "load", start, err)
	return entries, err
}

func (s *instrumented) Save(ctx context.Context, board string, entries []Entry) error {
	start := time.Now()
	err := s.next.Save(ctx, board, entries)
	observe(s.backend, "save", start, err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, board string) error {
	start := time.Now()
	err := s.next.Delete(ctx, board)
	observe(s.backend, "delete", start, err)
	return err
}

func (s *instrumented) Boards(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.next.Boards(ctx)
	observe(s.backend, "boards", start, err)
	return names, err
}

func (s *instrumented) Close() error { return s.next.Close() }
