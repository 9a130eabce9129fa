package budget

import (
	"encoding/json"
	"slices"
	"strings"

	"budgetplanner/internal/core"
)

// PresetInput is a user-entered preset. An empty ID creates a new preset.
type PresetInput struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Category   string      `json:"category"`
	Amount     core.Amount `json:"amount"`
	DayOfMonth int         `json:"dayOfMonth"`
}

// UnmarshalJSON decodes the amount as user input, so "12,50" is accepted.
func (in *PresetInput) UnmarshalJSON(data []byte) error {
	type fields PresetInput
	var raw struct {
		fields
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = PresetInput(raw.fields)
	in.Amount = core.AmountFromInput(raw.Amount)
	return nil
}

// SavePreset creates a preset (active) or updates title, category, amount
// and day of the existing one. Already materialized transactions are not
// rewritten.
func SavePreset(st *core.State, in PresetInput) (core.Preset, error) {
	p := core.Preset{
		ID:         in.ID,
		Title:      strings.TrimSpace(in.Title),
		Category:   strings.TrimSpace(in.Category),
		Amount:     in.Amount,
		DayOfMonth: in.DayOfMonth,
		Active:     true,
	}
	if p.Category == "" {
		p.Category = core.DefaultPresetCategory
	}
	if err := p.Validate(); err != nil {
		return core.Preset{}, err
	}

	if p.ID == "" {
		p.ID = newID()
		st.Presets = append(st.Presets, p)
		return p, nil
	}

	i := st.FindPreset(p.ID)
	if i < 0 {
		return core.Preset{}, core.ErrPresetNotFound
	}
	existing := &st.Presets[i]
	existing.Title = p.Title
	existing.Category = p.Category
	existing.Amount = p.Amount
	existing.DayOfMonth = p.DayOfMonth
	return *existing, nil
}

// TogglePreset flips the active flag of preset id.
func TogglePreset(st *core.State, id string) (core.Preset, error) {
	i := st.FindPreset(id)
	if i < 0 {
		return core.Preset{}, core.ErrPresetNotFound
	}
	st.Presets[i].Active = !st.Presets[i].Active
	return st.Presets[i], nil
}

// DeletePreset removes preset id and, across every month, each transaction
// referencing it. It returns the number of removed transactions.
func DeletePreset(st *core.State, id string) (int, error) {
	i := st.FindPreset(id)
	if i < 0 {
		return 0, core.ErrPresetNotFound
	}
	st.Presets = slices.Delete(st.Presets, i, i+1)
	return PurgePresetTransactions(st, id), nil
}

// PurgePresetTransactions deletes every transaction whose presetId is id.
func PurgePresetTransactions(st *core.State, id string) int {
	if id == "" {
		return 0
	}
	removed := 0
	for _, bucket := range st.Months {
		if bucket == nil {
			continue
		}
		before := len(bucket.Transactions)
		bucket.Transactions = slices.DeleteFunc(bucket.Transactions, func(tx core.Transaction) bool {
			return tx.PresetID == id
		})
		removed += before - len(bucket.Transactions)
	}
	return removed
}

// ActivePresets counts the presets that currently materialize.
func ActivePresets(st *core.State) int {
	n := 0
	for _, p := range st.Presets {
		if p.Active {
			n++
		}
	}
	return n
}
