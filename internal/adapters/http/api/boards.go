package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// BoardsHandler handles the per-board routes.
type BoardsHandler struct {
	deps BoardDependencies
}

// NewBoardsHandler creates a new boards handler.
func NewBoardsHandler(deps BoardDependencies) *BoardsHandler {
	return &BoardsHandler{deps: deps}
}

type setScoreRequest struct {
	Score *float64 `json:"score"`
}

type incrementRequest struct {
	Delta *float64 `json:"delta"`
}

type rankResponse struct {
	Rank int `json:"rank"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

type removedResponse struct {
	Removed bool `json:"removed"`
}

type entriesResponse struct {
	Board   string  `json:"board"`
	Entries []Entry `json:"entries"`
}

type boardsResponse struct {
	Boards []string `json:"boards"`
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}

// intPath parses an integer path segment.
func intPath(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}

// HandleListBoards handles GET /boards.
func (h *BoardsHandler) HandleListBoards(w http.ResponseWriter, _ *http.Request) {
	names := h.deps.Boards()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, boardsResponse{Boards: names})
}

// HandleBoardInfo handles GET /boards/{board}.
func (h *BoardsHandler) HandleBoardInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.BoardInfo(r.Context(), r.PathValue("board"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleDropBoard handles DELETE /boards/{board}.
func (h *BoardsHandler) HandleDropBoard(w http.ResponseWriter, r *http.Request) {
	existed, err := h.deps.DropBoard(r.Context(), r.PathValue("board"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: existed})
}

// HandleSetScore handles PUT /boards/{board}/members/{member}.
func (h *BoardsHandler) HandleSetScore(w http.ResponseWriter, r *http.Request) {
	var req setScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Score == nil {
		writeServiceError(w, fmt.Errorf("%w: missing score", ErrBadRequest))
		return
	}
	rank, err := h.deps.Add(r.Context(), r.PathValue("board"), r.PathValue("member"), *req.Score)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Rank: rank})
}

// HandleIncrement handles POST /boards/{board}/members/{member}/increment.
func (h *BoardsHandler) HandleIncrement(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Delta == nil {
		writeServiceError(w, fmt.Errorf("%w: missing delta", ErrBadRequest))
		return
	}
	score, err := h.deps.Increment(r.Context(), r.PathValue("board"), r.PathValue("member"), *req.Delta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Score: score})
}

// HandleRemoveMember handles DELETE /boards/{board}/members/{member}.
func (h *BoardsHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	removed, err := h.deps.Remove(r.Context(), r.PathValue("board"), r.PathValue("member"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: removed})
}

// HandleGetMember handles GET /boards/{board}/members/{member}.
func (h *BoardsHandler) HandleGetMember(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Member(r.Context(), r.PathValue("board"), r.PathValue("member"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleAround handles GET /boards/{board}/members/{member}/around?radius=n.
func (h *BoardsHandler) HandleAround(w http.ResponseWriter, r *http.Request) {
	radius, err := intQuery(r, "radius", 5)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	board := r.PathValue("board")
	entries, err := h.deps.Around(r.Context(), board, r.PathValue("member"), radius)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Board: board, Entries: entries})
}

// HandleAt handles GET /boards/{board}/ranks/{rank}.
func (h *BoardsHandler) HandleAt(w http.ResponseWriter, r *http.Request) {
	rank, err := intPath(r, "rank")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entry, err := h.deps.At(r.Context(), r.PathValue("board"), rank)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandlePage handles GET /boards/{board}/pages/{page}?size=n.
func (h *BoardsHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	page, err := intPath(r, "page")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	size, err := intQuery(r, "size", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	board := r.PathValue("board")
	entries, err := h.deps.Page(r.Context(), board, page, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Board: board, Entries: entries})
}
