package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"budgetplanner/internal/core"
	applog "budgetplanner/internal/log"
	"budgetplanner/internal/services"
	"budgetplanner/internal/storage"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("request body is not valid JSON")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err.Error(), applog.FieldPath, r.URL.Path)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonthKey),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, services.ErrMissingCredentials),
		errors.Is(err, services.ErrMalformedState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTransactionNotFound),
		errors.Is(err, core.ErrPresetNotFound),
		errors.Is(err, storage.ErrExportNotFound),
		errors.Is(err, services.ErrExportDisabled):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrStateBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

func monthParam(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

// dateParam returns the date query parameter, defaulting to today.
func (s *Server) dateParam(r *http.Request) (string, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return s.now().Format(time.DateOnly), nil
	}
	t, ok := core.ParseDate(date)
	if !ok {
		return "", core.ErrInvalidDate
	}
	return t.Format(time.DateOnly), nil
}
