package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for every stored date.
// Dates in this layout sort lexically in chronological order.
const DateLayout = "2006-01-02"

// UnknownPeriodLength is returned by PeriodLengthDays when the length cannot be computed.
const UnknownPeriodLength = -1

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// NewMonthKey builds the key for the given year and month.
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	k := MonthKey(strings.TrimSpace(s))
	if _, _, ok := k.YearMonth(); !ok {
		return "", ErrInvalidMonthKey
	}
	return k, nil
}

// YearMonth splits the key into its year and month.
func (k MonthKey) YearMonth() (int, time.Month, bool) {
	parts := strings.Split(string(k), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// FirstDay returns the first calendar date of the month, or "" for an invalid key.
func (k MonthKey) FirstDay() string {
	year, month, ok := k.YearMonth()
	if !ok {
		return ""
	}
	return FormatDate(year, month, 1)
}

// LastDay returns the last calendar date of the month, or "" for an invalid key.
func (k MonthKey) LastDay() string {
	year, month, ok := k.YearMonth()
	if !ok {
		return ""
	}
	return FormatDate(year, month, DaysInMonth(year, month))
}

// FullMonth returns the period spanning the whole month.
func (k MonthKey) FullMonth() Period {
	return Period{Start: k.FirstDay(), End: k.LastDay()}
}

func (k MonthKey) String() string {
	return string(k)
}

// DaysInMonth returns the number of days of the month, computed as day 0 of the next month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate renders a calendar date in DateLayout.
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// ParseDate parses an ISO date. A full RFC 3339 timestamp is accepted and
// truncated to its calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// CanonicalDate rewrites a parseable date in DateLayout so that stored dates
// compare lexically in calendar order. Anything else is returned trimmed.
func CanonicalDate(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return s
}

// MonthKeyFromDate returns the month key of a date string. The second result
// is false when the date cannot be parsed.
func MonthKeyFromDate(s string) (MonthKey, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return NewMonthKey(t.Year(), t.Month()), true
}

// PeriodLengthDays returns the inclusive number of days between start and end,
// or UnknownPeriodLength if either date is unparseable or end is before start.
func PeriodLengthDays(start, end string) int {
	s, ok := ParseDate(start)
	if !ok {
		return UnknownPeriodLength
	}
	e, ok := ParseDate(end)
	if !ok || e.Before(s) {
		return UnknownPeriodLength
	}
	return int(e.Sub(s).Hours()/24) + 1
}
