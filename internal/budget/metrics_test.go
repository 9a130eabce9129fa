package budget

import (
	"testing"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/core"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func tx(typ core.TxType, category string, amount int64, date string) core.Transaction {
	return core.Transaction{ID: date + category, Type: typ, Category: category, Title: category, Amount: core.AmountFromInt(amount), Date: date}
}

func assertDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestComputeMetricsAbsentBucket(t *testing.T) {
	m := ComputeMetrics("2024-02", nil, "2024-02-10", core.Period{})
	if len(m.Warnings) != 1 || m.Warnings[0].Code != WarnNoData {
		t.Fatalf("expected single no-data warning, got %+v", m.Warnings)
	}
	assertDec(t, "flexibleBudget", m.FlexibleBudget, decimal.Zero)
	if m.DaysInMonth != 0 || m.CurrentDayNumber != 0 {
		t.Fatalf("expected zeroed day counters: %+v", m)
	}
}

func TestComputeMetricsLeapYearScenario(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, core.SalaryCategory, 100000, "2024-02-05"),
		tx(core.FixedExpense, "Rent", 30000, "2024-02-01"),
	}}
	full := core.MonthKey("2024-02").FullMonth()

	m := ComputeMetrics("2024-02", bucket, "2024-02-10", full)

	assertDec(t, "totalIncome", m.TotalIncome, dec(100000))
	assertDec(t, "autoSavings", m.AutoSavings, dec(10000))
	assertDec(t, "totalFixed", m.TotalFixed, dec(30000))
	assertDec(t, "flexibleBudget", m.FlexibleBudget, dec(60000))
	assertDec(t, "plannedDailyLimit", m.PlannedDailyLimit, dec(60000).Div(dec(29)))
	assertDec(t, "saldo", m.Saldo, dec(60000))
	assertDec(t, "currentDailyLimit", m.CurrentDailyLimit, dec(60000).Div(dec(20)))
	if m.DaysInMonth != 29 || m.CurrentDayNumber != 10 || m.RemainingDays != 20 {
		t.Fatalf("unexpected day counters: days=%d current=%d remaining=%d", m.DaysInMonth, m.CurrentDayNumber, m.RemainingDays)
	}
	if len(m.Warnings) != 0 || !m.Balanced() {
		t.Fatalf("expected no warnings, got %+v", m.Warnings)
	}
}

func TestComputeMetricsNoIncome(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.FixedExpense, "Rent", 30000, "2024-02-01"),
	}}
	m := ComputeMetrics("2024-02", bucket, "2024-02-10", core.Period{})

	assertDec(t, "flexibleBudget", m.FlexibleBudget, dec(-30000))
	if !m.HasWarning(WarnNoIncome) || !m.HasWarning(WarnFixedExceedIncome) {
		t.Fatalf("expected no-income and fixed-exceed warnings, got %+v", m.Warnings)
	}
	if m.HasWarning(WarnNoFixedExpenses) {
		t.Fatalf("no-fixed warning requires income")
	}
	if !m.PlannedDailyLimit.IsNegative() {
		t.Fatalf("planned daily limit should stay signed, got %s", m.PlannedDailyLimit)
	}
	if !m.DisplayPlannedDailyLimit().IsZero() || !m.DisplayCurrentDailyLimit().IsZero() {
		t.Fatalf("display limits should floor at zero")
	}
}

func TestComputeMetricsWarningOrder(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, "Bonus", 1000, "2024-02-01"),
		tx(core.FlexibleExpense, "Groceries", 1500, "2024-02-02"),
	}}
	m := ComputeMetrics("2024-02", bucket, "2024-02-10", core.Period{})

	want := []string{WarnNoFixedExpenses, WarnOverspent}
	if len(m.Warnings) != len(want) {
		t.Fatalf("got %+v, want %v", m.Warnings, want)
	}
	for i, code := range want {
		if m.Warnings[i].Code != code || m.Warnings[i].Message == "" {
			t.Fatalf("warning %d = %+v, want %s", i, m.Warnings[i], code)
		}
	}
}

func TestComputeMetricsAutoSavingsOnlyForSalary(t *testing.T) {
	salary := &core.MonthBucket{Transactions: []core.Transaction{tx(core.Income, core.SalaryCategory, 100000, "2024-03-05")}}
	other := &core.MonthBucket{Transactions: []core.Transaction{tx(core.Income, "Freelance", 100000, "2024-03-05")}}

	assertDec(t, "salary autoSavings", ComputeMetrics("2024-03", salary, "2024-03-05", core.Period{}).AutoSavings, dec(10000))
	assertDec(t, "freelance autoSavings", ComputeMetrics("2024-03", other, "2024-03-05", core.Period{}).AutoSavings, decimal.Zero)
}

func TestComputeMetricsFlexibleSpending(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, core.SalaryCategory, 50000, "2024-03-01"),
		tx(core.RecurringExpense, "Rent", 20000, "2024-03-01"),
		tx(core.FlexibleExpense, "Groceries", 300, "2024-03-04"),
		tx(core.FlexibleExpense, "Cafes", 200, "2024-03-10"),
		tx(core.FlexibleExpense, "Transport", 100, "2024-03-20"),
	}}
	m := ComputeMetrics("2024-03", bucket, "2024-03-10", core.Period{})

	assertDec(t, "totalFixed", m.TotalFixed, dec(20000))
	assertDec(t, "flexibleExpensesTotal", m.FlexibleExpensesTotal, dec(600))
	assertDec(t, "spentSoFar", m.SpentSoFar, dec(500))
	assertDec(t, "spentToday", m.SpentToday, dec(200))
	// 50000 - 20000 - 5000
	assertDec(t, "flexibleBudget", m.FlexibleBudget, dec(25000))
	assertDec(t, "remainingFlexibleBudget", m.RemainingFlexibleBudget, dec(24500))
	assertDec(t, "saldo", m.Saldo, dec(24400))
	if m.RemainingDays != 22 {
		t.Fatalf("remainingDays = %d, want 22", m.RemainingDays)
	}
	assertDec(t, "currentDailyLimit", m.CurrentDailyLimit, dec(24500).Div(dec(22)))
}

func TestComputeMetricsUnparseableCurrentDate(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, "Bonus", 3000, "2023-02-03"),
		tx(core.FixedExpense, "Rent", 200, "2023-02-01"),
		tx(core.FlexibleExpense, "Groceries", 50, "2023-02-02"),
	}}
	m := ComputeMetrics("2023-02", bucket, "garbage", core.Period{})

	if m.DaysInMonth != 28 || m.CurrentDayNumber != 1 || m.RemainingDays != 28 {
		t.Fatalf("month should come from the key: %+v", m)
	}
	// "2023-02-02" <= "garbage" lexically, so the raw comparison still counts it.
	assertDec(t, "spentSoFar", m.SpentSoFar, dec(50))

	m = ComputeMetrics("2023-02", bucket, "", core.Period{})
	assertDec(t, "spentSoFar without date", m.SpentSoFar, decimal.Zero)
}

func TestComputeMetricsPeriodFiltering(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, "Bonus", 1, "2024-02-04"),
		tx(core.Income, "Bonus", 10, "2024-02-05"),
		tx(core.Income, "Bonus", 100, "2024-02-10"),
		tx(core.Income, "Bonus", 1000, "2024-02-11"),
		{ID: "undated", Type: core.Income, Amount: core.AmountFromInt(10000)},
	}}
	period := core.Period{Start: "2024-02-05", End: "2024-02-10"}

	m := ComputeMetrics("2024-02", bucket, "2024-02-10", period)
	assertDec(t, "bounded totalIncome", m.TotalIncome, dec(110))

	m = ComputeMetrics("2024-02", bucket, "2024-02-10", core.Period{})
	assertDec(t, "unbounded totalIncome", m.TotalIncome, dec(11111))
}

func TestComputeMetricsIncomeMonotonic(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, core.SalaryCategory, 1000, "2024-02-01"),
		tx(core.FixedExpense, "Rent", 700, "2024-02-01"),
		tx(core.FlexibleExpense, "Groceries", 100, "2024-02-03"),
	}}
	before := ComputeMetrics("2024-02", bucket, "2024-02-10", core.Period{})

	for _, category := range []string{core.SalaryCategory, "Bonus"} {
		grown := &core.MonthBucket{Transactions: append(append([]core.Transaction(nil), bucket.Transactions...),
			tx(core.Income, category, 250, "2024-02-07"))}
		after := ComputeMetrics("2024-02", grown, "2024-02-10", core.Period{})

		if after.TotalIncome.LessThan(before.TotalIncome) ||
			after.FlexibleBudget.LessThan(before.FlexibleBudget) ||
			after.Saldo.LessThan(before.Saldo) {
			t.Fatalf("%s income decreased a figure: before=%+v after=%+v", category, before, after)
		}
	}
}

func TestComputeMetricsToleratesBadRecords(t *testing.T) {
	bucket := &core.MonthBucket{Transactions: []core.Transaction{
		tx(core.Income, "Bonus", -500, "2024-02-01"),
		tx(core.FlexibleExpense, "Groceries", 0, "2024-02-01"),
		{ID: "x", Type: "transfer", Amount: core.AmountFromInt(999), Date: "2024-02-01"},
	}}
	m := ComputeMetrics("2024-02", bucket, "2024-02-10", core.Period{})
	assertDec(t, "totalIncome", m.TotalIncome, decimal.Zero)
	assertDec(t, "flexibleExpensesTotal", m.FlexibleExpensesTotal, decimal.Zero)
	assertDec(t, "totalFixed", m.TotalFixed, decimal.Zero)
}

func TestComputeMetricsInvalidKeyAndDate(t *testing.T) {
	m := ComputeMetrics("nope", &core.MonthBucket{}, "", core.Period{})
	if m.DaysInMonth != 0 || m.RemainingDays != 0 {
		t.Fatalf("expected zero days for an unknown month: %+v", m)
	}
	if !m.PlannedDailyLimit.IsZero() || !m.CurrentDailyLimit.IsZero() {
		t.Fatalf("limits must be zero when there are no days")
	}
}
