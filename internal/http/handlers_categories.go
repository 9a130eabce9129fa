package http

import (
	"net/http"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

type categoriesResponse struct {
	Type       core.TxType `json:"type"`
	Categories []string    `json:"categories"`
	Added      *bool       `json:"added,omitempty"`
	Version    int64       `json:"version"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

// handleListCategories returns the category set of a type. With a month
// query parameter, labels already used in that month are appended.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, user storage.User) {
	t := core.TxType(r.PathValue("type"))
	if !t.IsUserInput() {
		writeError(w, r, core.ErrInvalidType)
		return
	}
	st, version, err := s.planner.Load(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cats := st.Categories.For(t)
	if month := r.URL.Query().Get("month"); month != "" {
		key, err := core.ParseMonthKey(month)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cats = budget.SelectableCategories(st, t, key)
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Type: t, Categories: cats, Version: version})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request, user storage.User) {
	t := core.TxType(r.PathValue("type"))
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	added := false
	st, version, err := s.planner.Mutate(r.Context(), user.ID, "", func(st *core.State) (bool, error) {
		var err error
		added, err = budget.AddCategory(st, t, req.Name)
		return added, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, categoriesResponse{Type: t, Categories: st.Categories.For(t), Added: &added, Version: version})
}
