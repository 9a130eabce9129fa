package budget

import (
	"budgetplanner/internal/core"
)

// Report statuses.
const (
	StatusBalanced = "balanced"
	StatusWarning  = "warning"
)

// Report is everything a client needs to render one month.
type Report struct {
	Month       core.MonthKey `json:"month"`
	CurrentDate string        `json:"currentDate"`
	Period      core.Period   `json:"period"`
	PeriodDays  int           `json:"periodDays"`
	Metrics     Metrics       `json:"metrics"`
	Analytics   Analytics     `json:"analytics"`
	Status      string        `json:"status"`
}

// SetPeriod stores the reporting period of key. Both bounds must parse and
// start must not be after end.
func SetPeriod(st *core.State, key core.MonthKey, start, end string) (core.Period, error) {
	if _, err := core.ParseMonthKey(string(key)); err != nil {
		return core.Period{}, err
	}
	p := core.Period{Start: core.CanonicalDate(start), End: core.CanonicalDate(end)}
	if !p.Valid() {
		return core.Period{}, core.ErrInvalidPeriod
	}
	if st.UI.MonthPeriods == nil {
		st.UI.MonthPeriods = map[core.MonthKey]core.Period{}
	}
	st.UI.MonthPeriods[key] = p
	return p, nil
}

// ResolvePeriod returns the stored period of key, falling back to the full
// month when none is stored or the stored one is invalid. A stored period
// with a missing bound takes that bound from the full month.
func ResolvePeriod(st *core.State, key core.MonthKey) core.Period {
	full := key.FullMonth()
	stored, ok := st.UI.MonthPeriods[key]
	if !ok {
		return full
	}
	if stored.Start == "" {
		stored.Start = full.Start
	}
	if stored.End == "" {
		stored.End = full.End
	}
	if !stored.Valid() {
		return full
	}
	return stored
}

// BuildReport computes metrics and analytics of key for its resolved
// period. It does not materialize presets; callers run MaterializeMonth
// first.
func BuildReport(st *core.State, key core.MonthKey, currentDate string) Report {
	period := ResolvePeriod(st, key)
	bucket := st.Month(key)

	var txs []core.Transaction
	if bucket != nil {
		txs = bucket.Transactions
	}

	r := Report{
		Month:       key,
		CurrentDate: currentDate,
		Period:      period,
		PeriodDays:  period.Days(),
		Metrics:     ComputeMetrics(key, bucket, currentDate, period),
		Analytics:   AggregateByCategory(txs, period),
		Status:      StatusBalanced,
	}
	if !r.Metrics.Balanced() {
		r.Status = StatusWarning
	}
	return r
}
