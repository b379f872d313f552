package model

import "errors"

// ErrInvalidEvent reports a malformed score event.
var ErrInvalidEvent = errors.New("invalid event")
