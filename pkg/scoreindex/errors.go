package scoreindex

import "errors"

// Sentinel kinds for index errors.
var (
	// ErrInvalidArgument reports a caller contract violation: a non-finite
	// score, a negative page index or size, a duplicate member in a load.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternalInvariant reports a divergence between the member map and
	// the order structure. Mutations panic with it; Check returns it.
	ErrInternalInvariant = errors.New("internal invariant violated")
)
