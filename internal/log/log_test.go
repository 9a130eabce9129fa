package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})
	logger.WithComponent(ComponentPlanner).Info("State saved", FieldUserID, "u1")

	out := buf.String()
	if !strings.Contains(out, "component=planner") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("unexpected output %q", out)
	}
	if logger.Component() != ComponentApp {
		t.Fatalf("default component = %s", logger.Component())
	}
}

func TestLogFieldsToSliceIsSorted(t *testing.T) {
	f := NewFields().WithUserMonth("u1", "2024-02").WithOperation(OpReport).WithError(errors.New("boom"))
	got := f.ToSlice()
	want := []any{FieldError, "boom", FieldMonthKey, "2024-02", FieldOperation, OpReport, FieldUserID, "u1"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error must not add a field")
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Output: &buf})

	var seen *Logger
	h := Middleware(logger, func(*http.Request) string { return "10.0.0.1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Fatalf("request id not echoed: %v", rec.Header())
	}
	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("handler did not get the request logger")
	}
	out := buf.String()
	for _, want := range []string{"request_id=req-42", "status_code=418", "level=WARN", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
