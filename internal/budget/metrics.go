package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/core"
)

// AutoSavingsRate is the share of salary income set aside automatically.
var AutoSavingsRate = decimal.New(1, -1)

// Warning codes, in evaluation order.
const (
	WarnNoData            = "no_data"
	WarnNoIncome          = "no_income"
	WarnNoFixedExpenses   = "no_fixed_expenses"
	WarnFixedExceedIncome = "fixed_exceed_income"
	WarnOverspent         = "overspent"
)

var warningMessages = map[string]string{
	WarnNoData:            "Add at least one income and fixed expenses to see limits.",
	WarnNoIncome:          "No income recorded for the month. Add at least one income source.",
	WarnNoFixedExpenses:   "No fixed or recurring expenses recorded. Add rent, loans and similar for a realistic plan.",
	WarnFixedExceedIncome: "Fixed expenses exceed income. Revisit the plan or cut fixed costs.",
	WarnOverspent:         "Actual flexible spending has exceeded the flexible budget.",
}

// Warning is an advisory message attached to a metrics result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newWarning(code string) Warning {
	return Warning{Code: code, Message: warningMessages[code]}
}

// Metrics are the derived budget figures of a month. Daily limits are
// signed; use the Display helpers to present them.
type Metrics struct {
	TotalIncome             decimal.Decimal `json:"totalIncome"`
	TotalSalaryIncome       decimal.Decimal `json:"totalSalaryIncome"`
	TotalFixed              decimal.Decimal `json:"totalFixed"`
	AutoSavings             decimal.Decimal `json:"autoSavings"`
	FlexibleBudget          decimal.Decimal `json:"flexibleBudget"`
	PlannedDailyLimit       decimal.Decimal `json:"plannedDailyLimit"`
	CurrentDailyLimit       decimal.Decimal `json:"currentDailyLimit"`
	SpentSoFar              decimal.Decimal `json:"spentSoFar"`
	SpentToday              decimal.Decimal `json:"spentToday"`
	FlexibleExpensesTotal   decimal.Decimal `json:"flexibleExpensesTotal"`
	RemainingFlexibleBudget decimal.Decimal `json:"remainingFlexibleBudget"`
	Saldo                   decimal.Decimal `json:"saldo"`
	DaysInMonth             int             `json:"daysInMonth"`
	CurrentDayNumber        int             `json:"currentDayNumber"`
	RemainingDays           int             `json:"remainingDays"`
	Warnings                []Warning       `json:"warnings"`
}

// HasWarning reports whether the warning with code fired.
func (m Metrics) HasWarning(code string) bool {
	for _, w := range m.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Balanced reports whether no warning fired.
func (m Metrics) Balanced() bool {
	return len(m.Warnings) == 0
}

// DisplayPlannedDailyLimit floors the planned daily limit at zero.
func (m Metrics) DisplayPlannedDailyLimit() decimal.Decimal {
	return floorZero(m.PlannedDailyLimit)
}

// DisplayCurrentDailyLimit floors the current daily limit at zero.
func (m Metrics) DisplayCurrentDailyLimit() decimal.Decimal {
	return floorZero(m.CurrentDailyLimit)
}

// ComputeMetrics derives the budget figures of the month key from bucket.
//
// currentDate is an ISO date; when it does not parse, the calendar month is
// taken from key and the current day defaults to 1. Only transactions inside
// period count. A nil bucket yields a zeroed result carrying WarnNoData.
func ComputeMetrics(key core.MonthKey, bucket *core.MonthBucket, currentDate string, period core.Period) Metrics {
	if bucket == nil {
		return Metrics{Warnings: []Warning{newWarning(WarnNoData)}}
	}

	var (
		year  int
		month time.Month
		ok    bool
	)
	today, hasToday := core.ParseDate(currentDate)
	if hasToday {
		year, month, ok = today.Year(), today.Month(), true
	} else {
		year, month, ok = key.YearMonth()
	}

	m := Metrics{CurrentDayNumber: 1, Warnings: []Warning{}}
	if ok {
		m.DaysInMonth = core.DaysInMonth(year, month)
	}
	if hasToday {
		m.CurrentDayNumber = today.Day()
	}

	for _, tx := range bucket.Transactions {
		if !period.Contains(tx.Date) {
			continue
		}
		amount := tx.Amount.Effective()
		effect := tx.Type.Effect()
		switch {
		case effect.Income:
			m.TotalIncome = m.TotalIncome.Add(amount)
			if tx.Category == core.SalaryCategory {
				m.TotalSalaryIncome = m.TotalSalaryIncome.Add(amount)
			}
		case effect.Fixed:
			m.TotalFixed = m.TotalFixed.Add(amount)
		case effect.Flexible:
			m.FlexibleExpensesTotal = m.FlexibleExpensesTotal.Add(amount)
			if tx.Date != "" && currentDate != "" && tx.Date <= currentDate {
				m.SpentSoFar = m.SpentSoFar.Add(amount)
			}
			if tx.Date != "" && currentDate != "" && tx.Date == currentDate {
				m.SpentToday = m.SpentToday.Add(amount)
			}
		}
	}

	m.AutoSavings = m.TotalSalaryIncome.Mul(AutoSavingsRate)
	m.FlexibleBudget = m.TotalIncome.Sub(m.TotalFixed).Sub(m.AutoSavings)
	if m.DaysInMonth > 0 {
		m.PlannedDailyLimit = m.FlexibleBudget.Div(decimal.NewFromInt(int64(m.DaysInMonth)))
	}

	m.RemainingFlexibleBudget = m.FlexibleBudget.Sub(m.SpentSoFar)
	m.RemainingDays = max(m.DaysInMonth-m.CurrentDayNumber+1, 0)
	if m.RemainingDays > 0 {
		m.CurrentDailyLimit = m.RemainingFlexibleBudget.Div(decimal.NewFromInt(int64(m.RemainingDays)))
	}
	m.Saldo = m.FlexibleBudget.Sub(m.FlexibleExpensesTotal)

	if !m.TotalIncome.IsPositive() {
		m.Warnings = append(m.Warnings, newWarning(WarnNoIncome))
	}
	if m.TotalIncome.IsPositive() && !m.TotalFixed.IsPositive() {
		m.Warnings = append(m.Warnings, newWarning(WarnNoFixedExpenses))
	}
	if m.FlexibleBudget.IsNegative() {
		m.Warnings = append(m.Warnings, newWarning(WarnFixedExceedIncome))
	}
	if m.RemainingFlexibleBudget.IsNegative() {
		m.Warnings = append(m.Warnings, newWarning(WarnOverspent))
	}
	return m
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
