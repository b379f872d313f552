package service

import (
	"errors"
	"fmt"

	"github.com/okian/scoreboard/pkg/scoreindex"
)

// Sentinel kinds for service errors.
var (
	ErrInvalidBoard = fmt.Errorf("%w: invalid board name", scoreindex.ErrInvalidArgument)
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("ingest queue full")
	ErrNotStarted   = errors.New("service not started")
)
