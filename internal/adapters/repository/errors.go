package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrClosed         = errors.New("store closed")
	ErrCorrupt        = errors.New("corrupt stored board")
)
