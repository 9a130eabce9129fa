package http

import (
	"net/http"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

type presetsResponse struct {
	Presets []core.Preset `json:"presets"`
	Active  int           `json:"active"`
	Version int64         `json:"version"`
}

type presetResponse struct {
	Preset  core.Preset `json:"preset"`
	Version int64       `json:"version"`
}

type deletePresetResponse struct {
	RemovedTransactions int   `json:"removedTransactions"`
	Version             int64 `json:"version"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request, user storage.User) {
	st, version, err := s.planner.Load(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presetsResponse{
		Presets: st.Presets,
		Active:  budget.ActivePresets(st),
		Version: version,
	})
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request, user storage.User) {
	var in budget.PresetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	s.savePreset(w, r, user, in, http.StatusCreated)
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request, user storage.User) {
	var in budget.PresetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	s.savePreset(w, r, user, in, http.StatusOK)
}

func (s *Server) savePreset(w http.ResponseWriter, r *http.Request, user storage.User, in budget.PresetInput, status int) {
	var saved core.Preset
	_, version, err := s.planner.Mutate(r.Context(), user.ID, "", func(st *core.State) (bool, error) {
		var err error
		saved, err = budget.SavePreset(st, in)
		return err == nil, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, presetResponse{Preset: saved, Version: version})
}

// handleDeletePreset removes a preset together with its transactions.
func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request, user storage.User) {
	id := r.PathValue("id")
	removed := 0
	_, version, err := s.planner.Mutate(r.Context(), user.ID, "", func(st *core.State) (bool, error) {
		var err error
		removed, err = budget.DeletePreset(st, id)
		return err == nil, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletePresetResponse{RemovedTransactions: removed, Version: version})
}

func (s *Server) handleTogglePreset(w http.ResponseWriter, r *http.Request, user storage.User) {
	id := r.PathValue("id")
	var toggled core.Preset
	_, version, err := s.planner.Mutate(r.Context(), user.ID, "", func(st *core.State) (bool, error) {
		var err error
		toggled, err = budget.TogglePreset(st, id)
		return err == nil, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presetResponse{Preset: toggled, Version: version})
}
