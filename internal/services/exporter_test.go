package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetplanner/internal/sheets/memory"
	"budgetplanner/internal/storage"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	planner := newTestPlanner(store, nil)
	user, _ := store.CreateUser(ctx, "anna", "hash")
	addRent(t, planner, user.ID)

	writer := memory.New()
	exporter := NewReportExporter(planner, store, writer, store)
	at := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	exporter.now = func() time.Time { return at }

	rec, err := exporter.Export(ctx, user.ID, "2024-02", "2024-02-10")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if rec.Ref == "" || rec.Categories != 1 || !rec.ExportedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", rec)
	}

	written := writer.Written()
	if len(written) != 1 || written[0].Owner != "anna" || written[0].Report.Month != "2024-02" {
		t.Fatalf("unexpected writes %+v", written)
	}

	last, err := exporter.LastExport(ctx, user.ID, "2024-02")
	if err != nil {
		t.Fatalf("LastExport: %v", err)
	}
	if last.Ref != rec.Ref || last.Version != rec.Version {
		t.Fatalf("LastExport = %+v, want %+v", last, rec)
	}
	if _, err := exporter.LastExport(ctx, user.ID, "2024-03"); !errors.Is(err, storage.ErrExportNotFound) {
		t.Fatalf("expected ErrExportNotFound, got %v", err)
	}
}

func TestExportWriterFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	user, _ := store.CreateUser(ctx, "anna", "hash")
	writer := memory.New()
	writer.Err = errors.New("quota exceeded")

	exporter := NewReportExporter(newTestPlanner(store, nil), store, writer, store)
	if _, err := exporter.Export(ctx, user.ID, "2024-02", "2024-02-10"); err == nil {
		t.Fatalf("expected writer error")
	}
	if len(store.exports) != 0 {
		t.Fatalf("failed export was recorded")
	}
}

func TestExportDisabled(t *testing.T) {
	var exporter *ReportExporter
	if _, err := exporter.Export(context.Background(), "u1", "2024-02", ""); !errors.Is(err, ErrExportDisabled) {
		t.Fatalf("expected ErrExportDisabled, got %v", err)
	}
	store := newMemStore()
	exporter = NewReportExporter(newTestPlanner(store, nil), store, nil, store)
	if _, err := exporter.LastExport(context.Background(), "u1", "2024-02"); !errors.Is(err, ErrExportDisabled) {
		t.Fatalf("expected ErrExportDisabled, got %v", err)
	}
}
