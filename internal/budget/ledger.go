package budget

import (
	"encoding/json"
	"slices"
	"strings"

	"budgetplanner/internal/core"
)

// TransactionInput is a user-entered transaction.
type TransactionInput struct {
	Type     core.TxType `json:"type"`
	Category string      `json:"category"`
	Title    string      `json:"title"`
	Amount   core.Amount `json:"amount"`
	Date     string      `json:"date"`
	Note     string      `json:"note"`
}

// UnmarshalJSON decodes the amount as user input, so "12,50" is accepted.
func (in *TransactionInput) UnmarshalJSON(data []byte) error {
	type fields TransactionInput
	var raw struct {
		fields
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = TransactionInput(raw.fields)
	in.Amount = core.AmountFromInput(raw.Amount)
	return nil
}

// AddResult reports a stored transaction. CrossMonth is set when its date
// belongs to a month other than the bucket it was stored in.
type AddResult struct {
	Transaction core.Transaction `json:"transaction"`
	CrossMonth  bool             `json:"crossMonth"`
}

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	Type core.TxType
	Date string
}

func (in TransactionInput) toTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     in.Type,
		Category: strings.TrimSpace(in.Category),
		Title:    strings.TrimSpace(in.Title),
		Amount:   in.Amount,
		Date:     core.CanonicalDate(in.Date),
		Note:     strings.TrimSpace(in.Note),
	}
}

// AddTransaction validates in and stores it in the month key.
func AddTransaction(st *core.State, key core.MonthKey, in TransactionInput) (AddResult, error) {
	if _, err := core.ParseMonthKey(string(key)); err != nil {
		return AddResult{}, err
	}
	tx := in.toTransaction(newID())
	if err := tx.Validate(); err != nil {
		return AddResult{}, err
	}
	bucket := st.EnsureMonth(key)
	bucket.Transactions = append(bucket.Transactions, tx)
	dateKey, _ := core.MonthKeyFromDate(tx.Date)
	return AddResult{Transaction: tx, CrossMonth: dateKey != key}, nil
}

// EditTransaction replaces the user-editable fields of transaction id.
func EditTransaction(st *core.State, key core.MonthKey, id string, in TransactionInput) (core.Transaction, error) {
	bucket := st.Month(key)
	i := bucket.Find(id)
	if i < 0 {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	// Materialized records are owned by their preset.
	if !bucket.Transactions[i].Type.IsUserInput() {
		return core.Transaction{}, core.ErrInvalidType
	}
	updated := in.toTransaction(id)
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	bucket.Transactions[i] = updated
	return updated, nil
}

// DeleteTransaction removes transaction id from the month key.
func DeleteTransaction(st *core.State, key core.MonthKey, id string) bool {
	bucket := st.Month(key)
	i := bucket.Find(id)
	if i < 0 {
		return false
	}
	bucket.Transactions = slices.Delete(bucket.Transactions, i, i+1)
	return true
}

// ResetMonth clears the transactions of key and keeps the bucket. It returns
// the number of removed transactions.
func ResetMonth(st *core.State, key core.MonthKey) int {
	bucket := st.Month(key)
	if bucket == nil {
		return 0
	}
	n := len(bucket.Transactions)
	bucket.Transactions = []core.Transaction{}
	return n
}

// ListTransactions returns the matching transactions of bucket, newest
// first; equal dates are ordered by id, descending.
func ListTransactions(bucket *core.MonthBucket, f TransactionFilter) []core.Transaction {
	out := []core.Transaction{}
	if bucket == nil {
		return out
	}
	for _, tx := range bucket.Transactions {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Date != "" && tx.Date != f.Date {
			continue
		}
		out = append(out, tx)
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if a.Date != b.Date {
			return strings.Compare(b.Date, a.Date)
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out
}

// AddCategory adds name to the category set of an input type.
func AddCategory(st *core.State, t core.TxType, name string) (bool, error) {
	return st.Categories.Add(t, name)
}

// SelectableCategories returns the category set of t followed by any other
// label already used by a transaction of that type in the month key.
func SelectableCategories(st *core.State, t core.TxType, key core.MonthKey) []string {
	out := slices.Clone(st.Categories.For(t))
	seen := make(map[string]struct{}, len(out))
	for _, c := range out {
		seen[c] = struct{}{}
	}
	if bucket := st.Month(key); bucket != nil {
		for _, tx := range bucket.Transactions {
			if tx.Type != t || tx.Category == "" {
				continue
			}
			if _, ok := seen[tx.Category]; ok {
				continue
			}
			seen[tx.Category] = struct{}{}
			out = append(out, tx.Category)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
