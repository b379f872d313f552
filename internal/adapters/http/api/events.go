package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/scoreboard/internal/domain/model"
)

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest is the body of POST /events.
type eventRequest struct {
	EventID string  `json:"event_id"`
	Board   string  `json:"board"`
	Member  string  `json:"member"`
	Kind    string  `json:"kind"`
	Value   float64 `json:"value"`
	TS      string  `json:"ts"`
}

func (e eventRequest) toEvent() (model.ScoreEvent, error) {
	kind, err := model.ParseKind(e.Kind)
	if err != nil {
		return model.ScoreEvent{}, err
	}
	ts := time.Now().UTC()
	if strings.TrimSpace(e.TS) != "" {
		if ts, err = time.Parse(time.RFC3339, e.TS); err != nil {
			return model.ScoreEvent{}, fmt.Errorf("%w: invalid ts; must be RFC3339", ErrBadRequest)
		}
	}
	ev := model.ScoreEvent{
		EventID: e.EventID,
		Board:   e.Board,
		Member:  e.Member,
		Kind:    kind,
		Value:   e.Value,
		TS:      ts,
	}
	return ev, ev.Validate()
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	duplicate, err := h.deps.Enqueue(context.WithoutCancel(r.Context()), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
