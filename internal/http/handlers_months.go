package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

type displayLimits struct {
	PlannedDailyLimit decimal.Decimal `json:"plannedDailyLimit"`
	CurrentDailyLimit decimal.Decimal `json:"currentDailyLimit"`
}

type reportResponse struct {
	budget.Report
	Version int64         `json:"version"`
	Display displayLimits `json:"display"`
}

type transactionsResponse struct {
	Month        core.MonthKey      `json:"month"`
	Version      int64              `json:"version"`
	Transactions []core.Transaction `json:"transactions"`
}

type addTransactionResponse struct {
	budget.AddResult
	Version int64 `json:"version"`
}

type transactionResponse struct {
	Transaction core.Transaction `json:"transaction"`
	Version     int64            `json:"version"`
}

type resetResponse struct {
	Removed int   `json:"removed"`
	Version int64 `json:"version"`
}

type periodRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type periodResponse struct {
	Period  core.Period `json:"period"`
	Days    int         `json:"days"`
	Version int64       `json:"version"`
}

type exportResponse struct {
	Month      core.MonthKey `json:"month"`
	Version    int64         `json:"version"`
	Categories int           `json:"categories"`
	ExportedAt time.Time     `json:"exportedAt"`
	Ref        string        `json:"ref"`
}

func newExportResponse(rec storage.ExportRecord) exportResponse {
	return exportResponse{
		Month:      rec.Month,
		Version:    rec.Version,
		Categories: rec.Categories,
		ExportedAt: rec.ExportedAt.UTC(),
		Ref:        rec.Ref,
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := s.dateParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, version, err := s.planner.Report(r.Context(), user.ID, key, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Report:  report,
		Version: version,
		Display: displayLimits{
			PlannedDailyLimit: report.Metrics.DisplayPlannedDailyLimit(),
			CurrentDailyLimit: report.Metrics.DisplayCurrentDailyLimit(),
		},
	})
}

// handleListTransactions lists a month after materializing its presets.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := budget.TransactionFilter{Type: core.TxType(q.Get("type"))}
	if filter.Type != "" && !filter.Type.IsValid() {
		writeError(w, r, core.ErrInvalidType)
		return
	}
	if date := q.Get("date"); date != "" {
		t, ok := core.ParseDate(date)
		if !ok {
			writeError(w, r, core.ErrInvalidDate)
			return
		}
		filter.Date = t.Format(time.DateOnly)
	}

	st, version, err := s.planner.Materialized(r.Context(), user.ID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		Month:        key,
		Version:      version,
		Transactions: budget.ListTransactions(st.Month(key), filter),
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in budget.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	var res budget.AddResult
	_, version, err := s.planner.Mutate(r.Context(), user.ID, key, func(st *core.State) (bool, error) {
		var err error
		res, err = budget.AddTransaction(st, key, in)
		return err == nil, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addTransactionResponse{AddResult: res, Version: version})
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in budget.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	var tx core.Transaction
	_, version, err := s.planner.Mutate(r.Context(), user.ID, key, func(st *core.State) (bool, error) {
		var err error
		tx, err = budget.EditTransaction(st, key, id, in)
		return err == nil, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx, Version: version})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	_, _, err = s.planner.Mutate(r.Context(), user.ID, key, func(st *core.State) (bool, error) {
		if !budget.DeleteTransaction(st, key, id) {
			return false, core.ErrTransactionNotFound
		}
		return true, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetMonth(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed := 0
	_, version, err := s.planner.Mutate(r.Context(), user.ID, key, func(st *core.State) (bool, error) {
		removed = budget.ResetMonth(st, key)
		return removed > 0, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Removed: removed, Version: version})
}

func (s *Server) handleSetPeriod(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req periodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var period core.Period
	_, version, err := s.planner.Mutate(r.Context(), user.ID, key, func(st *core.State) (bool, error) {
		var err error
		previous, stored := st.UI.MonthPeriods[key]
		period, err = budget.SetPeriod(st, key, req.Start, req.End)
		return err == nil && (!stored || previous != period), err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periodResponse{Period: period, Days: period.Days(), Version: version})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := s.dateParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.exporter.Export(r.Context(), user.ID, key, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExportResponse(rec))
}

func (s *Server) handleLastExport(w http.ResponseWriter, r *http.Request, user storage.User) {
	key, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.exporter.LastExport(r.Context(), user.ID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExportResponse(rec))
}
