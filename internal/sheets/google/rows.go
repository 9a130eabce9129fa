package google

import (
	"github.com/shopspring/decimal"

	"budgetplanner/internal/budget"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// reportRows lays out a report as sheet rows: a header block, the metrics,
// the warnings and the category breakdown, separated by empty rows.
func reportRows(owner string, r budget.Report) [][]any {
	m := r.Metrics
	rows := [][]any{
		{"Budget report", string(r.Month)},
		{"Owner", owner},
		{"Current date", r.CurrentDate},
		{"Period", r.Period.Start, r.Period.End, r.PeriodDays},
		{"Status", r.Status},
		{},
		{"Metric", "Value"},
		{"Total income", money(m.TotalIncome)},
		{"Salary income", money(m.TotalSalaryIncome)},
		{"Fixed expenses", money(m.TotalFixed)},
		{"Auto savings", money(m.AutoSavings)},
		{"Flexible budget", money(m.FlexibleBudget)},
		{"Planned daily limit", money(m.DisplayPlannedDailyLimit())},
		{"Current daily limit", money(m.DisplayCurrentDailyLimit())},
		{"Spent so far", money(m.SpentSoFar)},
		{"Spent today", money(m.SpentToday)},
		{"Flexible expenses", money(m.FlexibleExpensesTotal)},
		{"Remaining flexible budget", money(m.RemainingFlexibleBudget)},
		{"Balance", money(m.Saldo)},
		{"Days in month", m.DaysInMonth},
		{"Remaining days", m.RemainingDays},
	}

	if len(m.Warnings) > 0 {
		rows = append(rows, []any{}, []any{"Warning", "Message"})
		for _, w := range m.Warnings {
			rows = append(rows, []any{w.Code, w.Message})
		}
	}

	rows = append(rows, []any{}, []any{"Category", "Total", "Share %"})
	for _, c := range r.Analytics.Categories {
		rows = append(rows, []any{c.Category, money(c.Total), c.Percent.StringFixed(1)})
	}
	rows = append(rows, []any{"Total", money(r.Analytics.GrandTotal)})
	return rows
}
