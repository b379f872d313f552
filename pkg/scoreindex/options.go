package scoreindex

import (
	"fmt"
	"strings"
)

// Default index configuration constants.
const (
	DefaultPageSize = 50
)

// Direction selects which end of the score range ranks first.
type Direction int

const (
	// Descending ranks the highest score first. It is the default.
	Descending Direction = iota
	// Ascending ranks the lowest score first.
	Ascending
)

func (d Direction) String() string {
	switch d {
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts "descending"/"desc" and "ascending"/"asc" (case-insensitive).
// The empty string maps to Descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return Descending, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
	}
}

// Option applies a configuration option to an Index.
type Option func(*config)

type config struct {
	direction Direction
	pageSize  int
	seeded    bool
	seed1     uint64
	seed2     uint64
}

// WithDirection fixes the ranking direction.
func WithDirection(d Direction) Option {
	return func(c *config) {
		if d == Ascending || d == Descending {
			c.direction = d
		}
	}
}

// WithReverse maps the legacy reverse flag onto a direction:
// reverse=false ranks the highest score first, reverse=true the lowest.
func WithReverse(reverse bool) Option {
	return func(c *config) {
		if reverse {
			c.direction = Ascending
		} else {
			c.direction = Descending
		}
	}
}

// WithPageSize sets the page size used by List and by Page when called with size 0.
func WithPageSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithRandSeed makes treap priorities deterministic.
func WithRandSeed(seed1, seed2 uint64) Option {
	return func(c *config) {
		c.seeded = true
		c.seed1 = seed1
		c.seed2 = seed2
	}
}
