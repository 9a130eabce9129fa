package core

import (
	"encoding/json"
	"sort"
)

// State is the whole planner state of one user. It is owned by the caller
// and passed explicitly to every operation.
type State struct {
	Months     map[MonthKey]*MonthBucket `json:"months"`
	Categories Categories                `json:"categories"`
	Presets    []Preset                  `json:"fixedExpensePresets"`
	UI         UI                        `json:"ui"`
}

// UI carries per-month reporting periods plus any client-owned settings,
// which are preserved verbatim.
type UI struct {
	MonthPeriods map[MonthKey]Period
	Extra        map[string]json.RawMessage
}

// NewState returns an empty state seeded with the default categories.
func NewState() *State {
	return &State{
		Months:     map[MonthKey]*MonthBucket{},
		Categories: DefaultCategories(),
		Presets:    []Preset{},
		UI:         UI{MonthPeriods: map[MonthKey]Period{}},
	}
}

// Month returns the bucket for key, or nil if it was never created.
func (s *State) Month(key MonthKey) *MonthBucket {
	if s == nil || s.Months == nil {
		return nil
	}
	return s.Months[key]
}

// EnsureMonth returns the bucket for key, creating it on first reference.
func (s *State) EnsureMonth(key MonthKey) *MonthBucket {
	if s.Months == nil {
		s.Months = map[MonthKey]*MonthBucket{}
	}
	b := s.Months[key]
	if b == nil {
		b = &MonthBucket{Transactions: []Transaction{}}
		s.Months[key] = b
	}
	return b
}

// MonthKeys returns the keys of all buckets in ascending order.
func (s *State) MonthKeys() []MonthKey {
	keys := make([]MonthKey, 0, len(s.Months))
	for k := range s.Months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FindPreset returns the index of the preset with id, or -1.
func (s *State) FindPreset(id string) int {
	for i := range s.Presets {
		if s.Presets[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the index of the transaction with id, or -1.
func (b *MonthBucket) Find(id string) int {
	if b == nil {
		return -1
	}
	for i := range b.Transactions {
		if b.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (u UI) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+1)
	for k, v := range u.Extra {
		out[k] = v
	}
	periods := u.MonthPeriods
	if periods == nil {
		periods = map[MonthKey]Period{}
	}
	out["monthPeriods"] = periods
	return json.Marshal(out)
}

// UnmarshalJSON tolerates a non-object ui or monthPeriods value.
func (u *UI) UnmarshalJSON(data []byte) error {
	u.MonthPeriods = map[MonthKey]Period{}
	u.Extra = nil
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for k, v := range raw {
		if k == "monthPeriods" {
			continue
		}
		if u.Extra == nil {
			u.Extra = map[string]json.RawMessage{}
		}
		u.Extra[k] = v
	}
	if mp, ok := raw["monthPeriods"]; ok {
		var periods map[MonthKey]json.RawMessage
		if err := json.Unmarshal(mp, &periods); err == nil {
			for k, v := range periods {
				var p Period
				if err := json.Unmarshal(v, &p); err == nil {
					u.MonthPeriods[k] = p
				}
			}
		}
	}
	return nil
}
