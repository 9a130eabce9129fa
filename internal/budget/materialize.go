// Package budget is the planner engine: recurring preset materialization,
// month metrics and category analytics, plus the state operations built on
// them. Every function works on an explicitly passed *core.State and
// performs no I/O.
package budget

import (
	"time"

	"budgetplanner/internal/core"
)

// newID is replaced in tests that need deterministic identifiers.
var newID = core.NewID

// Materialize makes sure every active preset has its transaction in bucket
// for the given month. It returns true when bucket was modified and must be
// persisted.
//
// Legacy records (fixedExpense carrying a presetId) are first reclassified as
// recurringExpense so they are matched instead of duplicated. A preset's day
// is clamped to the length of the month. Inactive presets never materialize
// and their earlier transactions are left alone.
func Materialize(bucket *core.MonthBucket, presets []core.Preset, year int, month time.Month) bool {
	if bucket == nil || len(presets) == 0 {
		return false
	}

	changed := false
	for i := range bucket.Transactions {
		tx := &bucket.Transactions[i]
		if tx.Type == core.FixedExpense && tx.PresetID != "" {
			tx.Type = core.RecurringExpense
			changed = true
		}
	}

	days := core.DaysInMonth(year, month)
	for _, p := range presets {
		if !p.Active {
			continue
		}
		date := core.FormatDate(year, month, core.ClampDay(p.DayOfMonth, days))
		if hasMaterialized(bucket, p.ID, date) {
			continue
		}
		bucket.Transactions = append(bucket.Transactions, core.Transaction{
			ID:       newID(),
			Type:     core.RecurringExpense,
			Category: firstNonEmpty(p.Category, core.DefaultPresetCategory),
			Title:    firstNonEmpty(p.Title, core.DefaultPresetTitle),
			Amount:   p.Amount,
			Date:     date,
			Note:     core.AutoNote,
			PresetID: p.ID,
		})
		changed = true
	}
	return changed
}

// MaterializeMonth runs Materialize for the month identified by key. The
// bucket is created only when there is at least one preset.
func MaterializeMonth(st *core.State, key core.MonthKey) (bool, error) {
	year, month, ok := key.YearMonth()
	if !ok {
		return false, core.ErrInvalidMonthKey
	}
	if st == nil || len(st.Presets) == 0 {
		return false, nil
	}
	return Materialize(st.EnsureMonth(key), st.Presets, year, month), nil
}

func hasMaterialized(bucket *core.MonthBucket, presetID, date string) bool {
	for _, tx := range bucket.Transactions {
		if tx.Type == core.RecurringExpense && tx.PresetID == presetID && tx.Date == date {
			return true
		}
	}
	return false
}

func firstNonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
