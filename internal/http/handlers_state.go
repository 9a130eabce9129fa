package http

import (
	"io"
	"net/http"

	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

type stateResponse struct {
	Version int64       `json:"version"`
	State   *core.State `json:"state"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, user storage.User) {
	st, version, err := s.planner.Load(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Version: version, State: st})
}

// handlePutState replaces the whole state with the request body.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request, user storage.User) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, errBadJSON)
		return
	}
	st, version, err := s.planner.Replace(r.Context(), user.ID, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Version: version, State: st})
}
