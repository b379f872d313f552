// Package repository persists board snapshots so boards survive restarts.
package repository

import (
	"context"

	"github.com/okian/scoreboard/pkg/scoreindex"
)

// Entry is one persisted (member, score) pair.
type Entry = scoreindex.Entry[float64]

// Store saves and restores whole boards.
//
// Save replaces the stored board; saving no entries is the same as Delete.
// Load of an unknown board returns no entries and no error.
type Store interface {
	Load(ctx context.Context, board string) ([]Entry, error)
	Save(ctx context.Context, board string, entries []Entry) error
	Delete(ctx context.Context, board string) error
	// Boards lists stored board names in ascending order.
	Boards(ctx context.Context) ([]string, error)
	Close() error
}
