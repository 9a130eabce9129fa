package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultCategories returns a fresh copy of the seeded category sets.
func DefaultCategories() Categories {
	return Categories{
		Income:          []string{SalaryCategory, "Bonus", "Freelance"},
		FixedExpense:    []string{"Rent", "Mortgage/Loan", "Utilities", "Subscriptions"},
		FlexibleExpense: []string{"Groceries", "Cafes/Restaurants", "Transport", "Entertainment", "Clothing"},
	}
}

// DecodeState decodes a stored state. It never fails: a malformed document
// or a non-object value yields NewState(), and each malformed section falls
// back to its default independently. The result is normalized.
func DecodeState(data []byte) *State {
	st := NewState()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return st
	}

	if v, ok := raw["months"]; ok {
		var months map[MonthKey]json.RawMessage
		if err := json.Unmarshal(v, &months); err == nil {
			for key, mv := range months {
				st.Months[key] = decodeBucket(mv)
			}
		}
	}

	if v, ok := raw["categories"]; ok {
		var cats map[string]json.RawMessage
		if err := json.Unmarshal(v, &cats); err == nil {
			st.Categories = Categories{
				Income:          decodeStrings(cats["income"]),
				FixedExpense:    decodeStrings(cats["fixedExpense"]),
				FlexibleExpense: decodeStrings(cats["flexibleExpense"]),
			}
		}
	}

	if v, ok := raw["fixedExpensePresets"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			for _, item := range items {
				var p Preset
				if err := json.Unmarshal(item, &p); err == nil {
					st.Presets = append(st.Presets, p)
				}
			}
		}
	}

	if v, ok := raw["ui"]; ok {
		_ = st.UI.UnmarshalJSON(v)
	}

	Normalize(st)
	return st
}

func decodeBucket(data json.RawMessage) *MonthBucket {
	b := &MonthBucket{Transactions: []Transaction{}}
	var raw struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return b
	}
	for _, item := range raw.Transactions {
		var tx Transaction
		if err := json.Unmarshal(item, &tx); err == nil {
			b.Transactions = append(b.Transactions, tx)
		}
	}
	return b
}

func decodeStrings(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// UnmarshalJSON decodes a preset leniently: dayOfMonth may be a number or a
// numeric string. A preset is active unless active is the JSON literal false.
func (p *Preset) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Title      json.RawMessage `json:"title"`
		Category   json.RawMessage `json:"category"`
		Amount     Amount          `json:"amount"`
		DayOfMonth json.RawMessage `json:"dayOfMonth"`
		Active     json.RawMessage `json:"active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Preset{
		ID:         looseString(raw.ID),
		Title:      looseString(raw.Title),
		Category:   looseString(raw.Category),
		Amount:     raw.Amount,
		DayOfMonth: looseInt(raw.DayOfMonth),
		Active:     !bytes.Equal(bytes.TrimSpace(raw.Active), []byte("false")),
	}
	return nil
}

// UnmarshalJSON decodes a transaction leniently: scalar fields of the wrong
// JSON type become their zero value instead of failing the record.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Type     json.RawMessage `json:"type"`
		Category json.RawMessage `json:"category"`
		Title    json.RawMessage `json:"title"`
		Amount   Amount          `json:"amount"`
		Date     json.RawMessage `json:"date"`
		Note     json.RawMessage `json:"note"`
		PresetID json.RawMessage `json:"presetId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction{
		ID:       looseString(raw.ID),
		Type:     TxType(looseString(raw.Type)),
		Category: looseString(raw.Category),
		Title:    looseString(raw.Title),
		Amount:   raw.Amount,
		Date:     looseString(raw.Date),
		Note:     looseString(raw.Note),
		PresetID: looseString(raw.PresetID),
	}
	return nil
}

func looseString(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	return ""
}

func looseInt(data json.RawMessage) int {
	s := strings.TrimSpace(looseString(data))
	if s == "" {
		return 0
	}
	if i := strings.IndexAny(s, ".eE"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Normalize substitutes defaults for missing or invalid values in place:
//   - nil collections become empty, nil month buckets become empty buckets;
//   - every category list is the defaults followed by the stored labels,
//     duplicates and blanks removed;
//   - presets get an id, a title and a category when blank, and dayOfMonth
//     is clamped to 1..31 (0 or unparseable becomes 1);
//   - parseable transaction dates and period bounds are rewritten as
//     YYYY-MM-DD.
//
// Transaction amounts are already coerced by Amount decoding; unknown
// transaction types are kept and affect no totals.
func Normalize(s *State) {
	if s.Months == nil {
		s.Months = map[MonthKey]*MonthBucket{}
	}
	for k, b := range s.Months {
		if b == nil {
			s.Months[k] = &MonthBucket{Transactions: []Transaction{}}
			continue
		}
		if b.Transactions == nil {
			b.Transactions = []Transaction{}
		}
		for i := range b.Transactions {
			b.Transactions[i].Date = CanonicalDate(b.Transactions[i].Date)
		}
	}

	defaults := DefaultCategories()
	s.Categories = Categories{
		Income:          mergeLabels(defaults.Income, s.Categories.Income),
		FixedExpense:    mergeLabels(defaults.FixedExpense, s.Categories.FixedExpense),
		FlexibleExpense: mergeLabels(defaults.FlexibleExpense, s.Categories.FlexibleExpense),
	}

	if s.Presets == nil {
		s.Presets = []Preset{}
	}
	for i := range s.Presets {
		p := &s.Presets[i]
		if p.ID == "" {
			p.ID = NewID()
		}
		p.Title = strings.TrimSpace(p.Title)
		if p.Title == "" {
			p.Title = DefaultPresetTitle
		}
		p.Category = strings.TrimSpace(p.Category)
		if p.Category == "" {
			p.Category = DefaultPresetCategory
		}
		p.DayOfMonth = ClampDay(p.DayOfMonth, 31)
	}

	if s.UI.MonthPeriods == nil {
		s.UI.MonthPeriods = map[MonthKey]Period{}
	}
	for k, p := range s.UI.MonthPeriods {
		s.UI.MonthPeriods[k] = Period{Start: CanonicalDate(p.Start), End: CanonicalDate(p.End)}
	}
}

// ClampDay limits day to [1, max]; values below 1 become 1.
func ClampDay(day, max int) int {
	if day < 1 {
		day = 1
	}
	if day > max {
		day = max
	}
	return day
}

func mergeLabels(defaults, stored []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(stored))
	out := make([]string, 0, len(defaults)+len(stored))
	for _, list := range [][]string{defaults, stored} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
