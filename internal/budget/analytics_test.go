package budget

import (
	"testing"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/core"
)

func TestAggregateByCategory(t *testing.T) {
	txs := []core.Transaction{
		tx(core.FlexibleExpense, "Groceries", 300, "2024-03-02"),
		tx(core.FixedExpense, "Rent", 1000, "2024-03-01"),
		tx(core.RecurringExpense, "Rent", 500, "2024-03-01"),
		tx(core.FlexibleExpense, "", 200, "2024-03-03"),
		tx(core.Income, core.SalaryCategory, 5000, "2024-03-05"),
		tx(core.FlexibleExpense, "Cafes", 0, "2024-03-04"),
		tx(core.FlexibleExpense, "Cafes", -40, "2024-03-04"),
	}

	a := AggregateByCategory(txs, core.Period{})

	assertDec(t, "grandTotal", a.GrandTotal, dec(2000))
	want := []struct {
		name  string
		total int64
	}{
		{"Rent", 1500},
		{"Groceries", 300},
		{core.UncategorizedCategory, 200},
	}
	if len(a.Categories) != len(want) {
		t.Fatalf("got %+v", a.Categories)
	}
	for i, w := range want {
		got := a.Categories[i]
		if got.Category != w.name || !got.Total.Equal(dec(w.total)) {
			t.Fatalf("row %d = %s %s, want %s %d", i, got.Category, got.Total, w.name, w.total)
		}
	}
	assertDec(t, "rent percent", a.Categories[0].Percent, dec(75))
}

func TestAggregateByCategoryPercentagesSumToHundred(t *testing.T) {
	txs := []core.Transaction{
		tx(core.FlexibleExpense, "A", 1, "2024-03-01"),
		tx(core.FlexibleExpense, "B", 1, "2024-03-01"),
		tx(core.FlexibleExpense, "C", 1, "2024-03-01"),
		tx(core.FixedExpense, "D", 7, "2024-03-01"),
	}
	a := AggregateByCategory(txs, core.Period{})

	sum, total := decimal.Zero, decimal.Zero
	for _, c := range a.Categories {
		sum = sum.Add(c.Percent)
		total = total.Add(c.Total)
	}
	assertDec(t, "sum of totals", total, a.GrandTotal)
	if diff := sum.Sub(dec(100)).Abs(); diff.GreaterThan(decimal.New(1, -6)) {
		t.Fatalf("percentages sum to %s", sum)
	}
}

func TestAggregateByCategoryStableTies(t *testing.T) {
	txs := []core.Transaction{
		tx(core.FlexibleExpense, "Transport", 50, "2024-03-01"),
		tx(core.FlexibleExpense, "Groceries", 50, "2024-03-02"),
		tx(core.FlexibleExpense, "Cafes", 80, "2024-03-03"),
		tx(core.FlexibleExpense, "Books", 50, "2024-03-04"),
	}
	a := AggregateByCategory(txs, core.Period{})

	want := []string{"Cafes", "Transport", "Groceries", "Books"}
	for i, name := range want {
		if a.Categories[i].Category != name {
			t.Fatalf("position %d = %s, want %s", i, a.Categories[i].Category, name)
		}
	}
}

func TestAggregateByCategoryPeriod(t *testing.T) {
	txs := []core.Transaction{
		tx(core.FlexibleExpense, "Groceries", 10, "2024-03-04"),
		tx(core.FlexibleExpense, "Groceries", 20, "2024-03-05"),
		tx(core.FlexibleExpense, "Groceries", 40, "2024-03-10"),
		tx(core.FlexibleExpense, "Groceries", 80, "2024-03-11"),
		{ID: "undated", Type: core.FlexibleExpense, Category: "Groceries", Amount: core.AmountFromInt(160)},
	}
	a := AggregateByCategory(txs, core.Period{Start: "2024-03-05", End: "2024-03-10"})
	assertDec(t, "grandTotal", a.GrandTotal, dec(60))
}

func TestAggregateByCategoryEmpty(t *testing.T) {
	for name, txs := range map[string][]core.Transaction{
		"nil":         nil,
		"income only": {tx(core.Income, core.SalaryCategory, 100, "2024-03-01")},
		"zeroes":      {tx(core.FlexibleExpense, "Cafes", 0, "2024-03-01")},
	} {
		t.Run(name, func(t *testing.T) {
			a := AggregateByCategory(txs, core.Period{})
			if a.Categories == nil || len(a.Categories) != 0 || !a.GrandTotal.IsZero() {
				t.Fatalf("expected empty analytics, got %+v", a)
			}
		})
	}
}
