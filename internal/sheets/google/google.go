package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/core"
	ports "budgetplanner/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options selects the spreadsheet and the service account used to write it.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client writes month reports into one tab per month, named
// "<YYYY-MM> <SheetName>".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.ReportWriter = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Budget report"
	}

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: id, sheetBase: base}, nil
}

// newSheetsService builds a Sheets service from service account credentials,
// inline JSON taking precedence over a file. GOOGLE_APPLICATION_CREDENTIALS
// is the last resort.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(creds))
	return svc, nil
}

// WriteReport replaces the content of the month tab with the report.
func (c *Client) WriteReport(ctx context.Context, owner string, r budget.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	title := sheetTitle(c.sheetBase, r.Month)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", title, err)
	}

	rows := reportRows(owner, r)
	rng := fmt.Sprintf("%s!A1:%s%d", quoteSheet(title), columnName(maxWidth(rows)), len(rows))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Report written to sheet", "sheet", title, "rows", len(rows), "month", r.Month)
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

func sheetTitle(base string, key core.MonthKey) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", key, base))
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnName converts a 1-based column index to letters (1 -> A, 27 -> AA).
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func maxWidth(rows [][]any) int {
	w := 1
	for _, r := range rows {
		w = max(w, len(r))
	}
	return w
}
