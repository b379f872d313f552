package queue

import "errors"

// Sentinel kinds for enqueue errors.
var (
	ErrFull   = errors.New("queue full")
	ErrClosed = errors.New("queue closed")
)
