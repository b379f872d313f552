package api

import (
	"errors"
	"net/http"

	eventqueue "github.com/okian/scoreboard/internal/adapters/mq/queue"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/scoreindex"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeBackpressure = "backpressure"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal_error"
)

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, scoreindex.ErrInvalidArgument),
		errors.Is(err, model.ErrInvalidEvent):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, eventqueue.ErrClosed):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
