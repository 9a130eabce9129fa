// Package sheets defines the outbound port for exporting month reports to a
// spreadsheet. Implementations live in the google and memory subpackages.
package sheets

import (
	"context"

	"budgetplanner/internal/budget"
)

// ReportWriter writes one month report of owner and returns a reference to
// the written range.
type ReportWriter interface {
	WriteReport(ctx context.Context, owner string, r budget.Report) (ref string, err error)
}
