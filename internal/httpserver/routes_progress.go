package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type progressReq struct {
	PuzzleID string `json:"puzzleId"`
	Solved   bool   `json:"solved"`
}

// mountProgressRoutes registers the gated /progress endpoints.
func (s *Server) mountProgressRoutes(r chi.Router) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/", s.handleRecordProgress)
		r.Get("/", s.handleListProgress)
	})
}

// handleRecordProgress upserts one (user, puzzleId) row.
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	var body progressReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	body.PuzzleID = strings.TrimSpace(body.PuzzleID)
	if body.PuzzleID == "" {
		writeError(w, http.StatusBadRequest, "Missing puzzleId")
		return
	}
	if err := s.progress.Record(r.Context(), me.ID, body.PuzzleID, body.Solved); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user", me.ID).Msg("record progress")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleListProgress returns the IDs of puzzles the caller has solved.
func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	ids, err := s.progress.Solved(r.Context(), me.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user", me.ID).Msg("list progress")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
