package core

import (
	"errors"
	"testing"
)

func TestTxTypeEffects(t *testing.T) {
	cases := []struct {
		typ  TxType
		want Effect
	}{
		{Income, Effect{Income: true, UserInput: true}},
		{FixedExpense, Effect{Fixed: true, Expense: true, UserInput: true}},
		{FlexibleExpense, Effect{Flexible: true, Expense: true, UserInput: true}},
		{RecurringExpense, Effect{Fixed: true, Expense: true}},
		{TxType("transfer"), Effect{}},
	}
	for _, tc := range cases {
		if got := tc.typ.Effect(); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.typ, got, tc.want)
		}
	}
	if TxType("transfer").IsValid() {
		t.Errorf("unknown type reported valid")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:     FlexibleExpense,
		Category: "Groceries",
		Title:    "Market",
		Amount:   AmountFromInt(100),
		Date:     "2024-02-10",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"recurring not user input", func(tx *Transaction) { tx.Type = RecurringExpense }, ErrInvalidType},
		{"unknown type", func(tx *Transaction) { tx.Type = "x" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"empty title", func(tx *Transaction) { tx.Title = "" }, ErrEmptyTitle},
		{"zero amount", func(tx *Transaction) { tx.Amount = AmountFromInt(0) }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = AmountFromInt(-1) }, ErrInvalidAmount},
		{"bad date", func(tx *Transaction) { tx.Date = "2024-13-01" }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPresetValidate(t *testing.T) {
	good := Preset{Title: "Rent", Amount: AmountFromInt(500), DayOfMonth: 31}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []struct {
		p    Preset
		want error
	}{
		{Preset{Title: "", Amount: AmountFromInt(1), DayOfMonth: 1}, ErrEmptyTitle},
		{Preset{Title: "a", Amount: AmountFromInt(0), DayOfMonth: 1}, ErrInvalidAmount},
		{Preset{Title: "a", Amount: AmountFromInt(1), DayOfMonth: 0}, ErrInvalidDay},
		{Preset{Title: "a", Amount: AmountFromInt(1), DayOfMonth: 32}, ErrInvalidDay},
	}
	for i, tc := range bads {
		if err := tc.p.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{Start: "2024-02-05", End: "2024-02-10"}
	cases := []struct {
		date string
		want bool
	}{
		{"2024-02-05", true},
		{"2024-02-10", true},
		{"2024-02-07", true},
		{"2024-02-04", false},
		{"2024-02-11", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := p.Contains(tc.date); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.date, got, tc.want)
		}
	}

	if !(Period{}).Contains("") {
		t.Errorf("unbounded period should contain undated records")
	}
	if (Period{End: "2024-02-10"}).Contains("") {
		t.Errorf("a single bound should exclude undated records")
	}
	if !(Period{Start: "2024-02-05"}).Contains("2030-01-01") {
		t.Errorf("open end should be unbounded")
	}
}

func TestPeriodValid(t *testing.T) {
	if !(Period{Start: "2024-02-01", End: "2024-02-01"}).Valid() {
		t.Errorf("single-day period should be valid")
	}
	if (Period{Start: "2024-02-10", End: "2024-02-01"}).Valid() {
		t.Errorf("reversed period should be invalid")
	}
	if (Period{Start: "junk", End: "2024-02-01"}).Valid() {
		t.Errorf("unparseable period should be invalid")
	}
}

func TestCategoriesAdd(t *testing.T) {
	c := DefaultCategories()
	added, err := c.Add(FlexibleExpense, " Pets ")
	if err != nil || !added {
		t.Fatalf("expected add, got %v %v", added, err)
	}
	added, err = c.Add(FlexibleExpense, "Pets")
	if err != nil || added {
		t.Fatalf("expected duplicate to be ignored, got %v %v", added, err)
	}
	if _, err := c.Add(RecurringExpense, "x"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := c.Add(Income, " "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if got := c.For(FlexibleExpense); got[len(got)-1] != "Pets" {
		t.Fatalf("Pets not appended: %v", got)
	}
}
