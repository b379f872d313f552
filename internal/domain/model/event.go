// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects how a score event changes a board.
type Kind string

// Event kinds.
const (
	KindSet       Kind = "set"
	KindIncrement Kind = "incr"
	KindRemove    Kind = "remove"
)

// ParseKind maps the wire name of a kind; the empty string means KindIncrement.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindIncrement, nil
	case KindSet, KindIncrement, KindRemove:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, s)
	}
}

// ScoreEvent is an asynchronous change to one member of one board.
type ScoreEvent struct {
	EventID string    // unique id for idempotency
	Board   string    // board name
	Member  string    // member identity within the board
	Kind    Kind      // set, incr or remove
	Value   float64   // score for set, delta for incr, unused for remove
	TS      time.Time // client timestamp
}

// Validate checks the fields every event needs.
func (e ScoreEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return fmt.Errorf("%w: missing event_id", ErrInvalidEvent)
	case strings.TrimSpace(e.Board) == "":
		return fmt.Errorf("%w: missing board", ErrInvalidEvent)
	case e.Member == "":
		return fmt.Errorf("%w: missing member", ErrInvalidEvent)
	}
	switch e.Kind {
	case KindSet, KindIncrement, KindRemove:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}
