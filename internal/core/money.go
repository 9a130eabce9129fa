// Package core provides money parsing and handling utilities.
//
// Amounts are decimals. Stored records are decoded leniently: anything that is
// not a number (or a numeric string) becomes zero so historical data stays
// loadable. User input goes through ParseAmount, which is strict and also
// accepts a comma separator.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal money value.
type Amount struct {
	d decimal.Decimal
}

// NewAmount wraps a decimal.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// AmountFromInt builds an amount from a whole number.
func AmountFromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// Decimal returns the underlying value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Effective returns the value used by computations: negative amounts count as zero.
func (a Amount) Effective() decimal.Decimal {
	if a.d.IsNegative() {
		return decimal.Zero
	}
	return a.d
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

func (a Amount) String() string {
	return a.d.String()
}

// Validate rejects zero and negative amounts.
func (a Amount) Validate() error {
	if !a.d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON emits the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON never fails: numbers and numeric strings are decoded, every
// other value becomes zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.d = decimal.Zero
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		a.d = d
	}
	return nil
}

// ParseAmount parses user input into a positive amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Signs, empty input, non-numeric text and zero are rejected with ErrInvalidAmount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Amount{}, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Amount{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{d: d}, nil
}

// AmountFromInput decodes a user-entered JSON amount, either a number or a
// string, with ParseAmount. Anything that does not parse yields zero, which
// Validate rejects.
func AmountFromInput(data json.RawMessage) Amount {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Amount{}
		}
	}
	a, err := ParseAmount(raw)
	if err != nil {
		return Amount{}
	}
	return a
}
