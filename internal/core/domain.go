package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Transaction types.
const (
	Income           TxType = "income"
	FixedExpense     TxType = "fixedExpense"
	FlexibleExpense  TxType = "flexibleExpense"
	RecurringExpense TxType = "recurringExpense"
)

// Defaults substituted for missing or blank values.
const (
	SalaryCategory        = "Salary"
	UncategorizedCategory = "Uncategorized"
	DefaultPresetTitle    = "Fixed payment"
	DefaultPresetCategory = "Recurring expense"
	AutoNote              = "Auto: recurring expense"
)

type (
	TxType string

	// Effect lists which figures a transaction type feeds.
	Effect struct {
		Income    bool // counted in total income
		Fixed     bool // counted in fixed expenses
		Flexible  bool // counted in flexible spending
		Expense   bool // included in category analytics
		UserInput bool // may be created and edited directly by the user
	}

	// Transaction is one financial event.
	Transaction struct {
		ID       string `json:"id"`
		Type     TxType `json:"type"`
		Category string `json:"category"`
		Title    string `json:"title"`
		Amount   Amount `json:"amount"`
		Date     string `json:"date"`
		Note     string `json:"note,omitempty"`
		PresetID string `json:"presetId,omitempty"` // set only on materialized recurring expenses
	}

	// MonthBucket owns the transactions of one month.
	MonthBucket struct {
		Transactions []Transaction `json:"transactions"`
	}

	// Preset is a monthly recurring fixed-expense template.
	Preset struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Category   string `json:"category"`
		Amount     Amount `json:"amount"`
		DayOfMonth int    `json:"dayOfMonth"`
		Active     bool   `json:"active"`
	}

	// Categories holds the selectable labels per input type.
	Categories struct {
		Income          []string `json:"income"`
		FixedExpense    []string `json:"fixedExpense"`
		FlexibleExpense []string `json:"flexibleExpense"`
	}

	// Period is an inclusive date range. Empty bounds are unbounded.
	Period struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
)

// effects is the single classification table for transaction types.
var effects = map[TxType]Effect{
	Income:           {Income: true, UserInput: true},
	FixedExpense:     {Fixed: true, Expense: true, UserInput: true},
	FlexibleExpense:  {Flexible: true, Expense: true, UserInput: true},
	RecurringExpense: {Fixed: true, Expense: true},
}

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrEmptyTitle          = errors.New("empty title")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDay          = errors.New("day of month must be between 1 and 31")
	ErrInvalidMonthKey     = errors.New("invalid month key")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPresetNotFound      = errors.New("preset not found")
)

// Effect returns the classification of t. Unknown types affect nothing.
func (t TxType) Effect() Effect {
	return effects[t]
}

// IsValid reports whether t is one of the known types.
func (t TxType) IsValid() bool {
	_, ok := effects[t]
	return ok
}

// IsUserInput reports whether t can be entered by the user directly.
func (t TxType) IsUserInput() bool {
	return effects[t].UserInput
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// Validate checks a transaction as entered by the user.
func (t Transaction) Validate() error {
	if !t.Type.IsUserInput() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if _, ok := ParseDate(t.Date); !ok {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks a preset as entered by the user.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Valid reports whether both bounds parse and start <= end.
func (p Period) Valid() bool {
	s, ok := ParseDate(p.Start)
	if !ok {
		return false
	}
	e, ok := ParseDate(p.End)
	if !ok {
		return false
	}
	return !e.Before(s)
}

// Contains reports whether date lies in the period. An empty bound is
// unbounded; an undated record is excluded as soon as any bound is set.
func (p Period) Contains(date string) bool {
	if p.Start != "" && (date == "" || date < p.Start) {
		return false
	}
	if p.End != "" && (date == "" || date > p.End) {
		return false
	}
	return true
}

// Days returns the inclusive length of the period or UnknownPeriodLength.
func (p Period) Days() int {
	return PeriodLengthDays(p.Start, p.End)
}

// For returns the category list for an input type.
func (c Categories) For(t TxType) []string {
	switch t {
	case Income:
		return c.Income
	case FixedExpense:
		return c.FixedExpense
	case FlexibleExpense:
		return c.FlexibleExpense
	default:
		return nil
	}
}

// Add appends name to the list for t if it is not already present.
func (c *Categories) Add(t TxType, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyCategory
	}
	var list *[]string
	switch t {
	case Income:
		list = &c.Income
	case FixedExpense:
		list = &c.FixedExpense
	case FlexibleExpense:
		list = &c.FlexibleExpense
	default:
		return false, ErrInvalidType
	}
	for _, existing := range *list {
		if existing == name {
			return false, nil
		}
	}
	*list = append(*list, name)
	return true, nil
}
