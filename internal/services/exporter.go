package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetplanner/internal/core"
	"budgetplanner/internal/sheets"
	"budgetplanner/internal/storage"
)

// ErrExportDisabled is returned when no spreadsheet is configured.
var ErrExportDisabled = errors.New("report export is not configured")

// ReportExporter writes month reports to a spreadsheet and records each
// export.
type ReportExporter struct {
	planner *PlannerService
	users   UserStore
	writer  sheets.ReportWriter
	log     ExportLog
	now     func() time.Time
}

func NewReportExporter(planner *PlannerService, users UserStore, writer sheets.ReportWriter, log ExportLog) *ReportExporter {
	return &ReportExporter{
		planner: planner,
		users:   users,
		writer:  writer,
		log:     log,
		now:     time.Now,
	}
}

// Export writes the report of key for currentDate under the user's login.
func (e *ReportExporter) Export(ctx context.Context, userID string, key core.MonthKey, currentDate string) (storage.ExportRecord, error) {
	if e == nil || e.writer == nil {
		return storage.ExportRecord{}, ErrExportDisabled
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return storage.ExportRecord{}, fmt.Errorf("find export owner: %w", err)
	}
	report, version, err := e.planner.Report(ctx, userID, key, currentDate)
	if err != nil {
		return storage.ExportRecord{}, err
	}

	ref, err := e.writer.WriteReport(ctx, user.Login, report)
	if err != nil {
		return storage.ExportRecord{}, fmt.Errorf("write report: %w", err)
	}

	rec := storage.ExportRecord{
		UserID:     userID,
		Month:      key,
		Version:    version,
		Categories: len(report.Analytics.Categories),
		ExportedAt: e.now(),
		Ref:        ref,
	}
	if err := e.log.RecordExport(ctx, rec); err != nil {
		// The sheet is already written; report success with the reference.
		slog.ErrorContext(ctx, "Failed to record export", "user_id", userID, "month", key, "error", err)
		return rec, nil
	}

	slog.InfoContext(ctx, "Report exported", "user_id", userID, "month", key, "version", version, "ref", ref)
	return rec, nil
}

// LastExport returns the most recent export of key.
func (e *ReportExporter) LastExport(ctx context.Context, userID string, key core.MonthKey) (storage.ExportRecord, error) {
	if e == nil || e.writer == nil {
		return storage.ExportRecord{}, ErrExportDisabled
	}
	if _, err := core.ParseMonthKey(string(key)); err != nil {
		return storage.ExportRecord{}, err
	}
	return e.log.LastExport(ctx, userID, key)
}
