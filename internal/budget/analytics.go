package budget

import (
	"slices"

	"github.com/shopspring/decimal"

	"budgetplanner/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the spending of one category within a period.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  decimal.Decimal `json:"percent"`
}

// Analytics is the expense breakdown of a period.
type Analytics struct {
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Categories []CategoryTotal `json:"categories"`
}

// AggregateByCategory sums positive expense amounts inside period by
// category, largest first. Categories with equal totals keep the order in
// which they were first seen. The result is empty when nothing was spent.
func AggregateByCategory(txs []core.Transaction, period core.Period) Analytics {
	var (
		grand  decimal.Decimal
		totals []CategoryTotal
		index  = map[string]int{}
	)
	for _, tx := range txs {
		if !tx.Type.Effect().Expense || !period.Contains(tx.Date) {
			continue
		}
		amount := tx.Amount.Decimal()
		if !amount.IsPositive() {
			continue
		}
		name := tx.Category
		if name == "" {
			name = core.UncategorizedCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name})
		}
		totals[i].Total = totals[i].Total.Add(amount)
		grand = grand.Add(amount)
	}

	if !grand.IsPositive() {
		return Analytics{GrandTotal: decimal.Zero, Categories: []CategoryTotal{}}
	}

	for i := range totals {
		totals[i].Percent = totals[i].Total.Div(grand).Mul(hundred)
	}
	slices.SortStableFunc(totals, func(a, b CategoryTotal) int {
		return b.Total.Cmp(a.Total)
	})
	return Analytics{GrandTotal: grand, Categories: totals}
}
