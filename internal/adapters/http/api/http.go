// Package api wires the HTTP routes of the scoreboard service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Entry mirrors the read shape returned by board queries.
type Entry = types.Entry

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BoardDependencies
	EventDependencies
	StatsProvider
}

// BoardDependencies are the synchronous board operations.
type BoardDependencies interface {
	Add(ctx context.Context, board, member string, score float64) (int, error)
	Increment(ctx context.Context, board, member string, delta float64) (float64, error)
	Remove(ctx context.Context, board, member string) (bool, error)
	Member(ctx context.Context, board, member string) (Entry, error)
	At(ctx context.Context, board string, rank int) (Entry, error)
	Page(ctx context.Context, board string, pageIndex, size int) ([]Entry, error)
	Around(ctx context.Context, board, member string, radius int) ([]Entry, error)
	BoardInfo(ctx context.Context, board string) (types.BoardInfo, error)
	DropBoard(ctx context.Context, board string) (bool, error)
	Boards() []string
}

// EventDependencies accept asynchronous score events.
type EventDependencies interface {
	// Enqueue reports whether the event was a duplicate.
	Enqueue(ctx context.Context, e model.ScoreEvent) (bool, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	boardsHandler *BoardsHandler
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access logs.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		eventsHandler: NewEventsHandler(deps),
		boardsHandler: NewBoardsHandler(deps),
		logger:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, RequestIDMiddleware(AccessLogMiddleware(s.logger, MetricsMiddleware(h, endpoint))))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("POST /events", "events", s.eventsHandler.HandlePostEvent)

	b := s.boardsHandler
	route("GET /boards", "boards", b.HandleListBoards)
	route("GET /boards/{board}", "board", b.HandleBoardInfo)
	route("DELETE /boards/{board}", "board", b.HandleDropBoard)
	route("PUT /boards/{board}/members/{member}", "member", b.HandleSetScore)
	route("GET /boards/{board}/members/{member}", "member", b.HandleGetMember)
	route("DELETE /boards/{board}/members/{member}", "member", b.HandleRemoveMember)
	route("POST /boards/{board}/members/{member}/increment", "increment", b.HandleIncrement)
	route("GET /boards/{board}/members/{member}/around", "around", b.HandleAround)
	route("GET /boards/{board}/ranks/{rank}", "rank", b.HandleAt)
	route("GET /boards/{board}/pages/{page}", "page", b.HandlePage)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates err into a status and error body.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeBody decodes a single JSON object from r into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must hold a single JSON object", ErrBadRequest)
	}
	return nil
}
