package core

import (
	"errors"
	"testing"
)

func TestFormSubmitAdd(t *testing.T) {
	form := FormState{
		Amount:      "12,50",
		Category:    "Shopping",
		Date:        "2025-03-01",
		Description: "  Socks ",
	}
	cmd, err := form.Submit(testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	add, ok := cmd.(AddExpense)
	if !ok {
		t.Fatalf("expected AddExpense, got %T", cmd)
	}
	if add.Fields.Amount.Cents != 1250 || add.Fields.Category != Shopping || add.Fields.Description != "Socks" {
		t.Fatalf("unexpected fields: %+v", add.Fields)
	}
}

func TestFormSubmitUpdate(t *testing.T) {
	form := FormState{
		Amount:      "99",
		Category:    "Other",
		Date:        "2025-03-15",
		Description: "Gift",
		EditingID:   "42",
	}
	cmd, err := form.Submit(testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	upd, ok := cmd.(UpdateExpense)
	if !ok || upd.ID != "42" || upd.Fields.Amount.Cents != 9900 {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestFormSubmitRejects(t *testing.T) {
	base := FormState{Amount: "10", Category: "Other", Date: "2025-03-10", Description: "x"}
	cases := []struct {
		name string
		edit func(*FormState)
		want error
	}{
		{"zero", func(f *FormState) { f.Amount = "0" }, ErrInvalidAmount},
		{"negative", func(f *FormState) { f.Amount = "-5" }, ErrInvalidAmount},
		{"garbage", func(f *FormState) { f.Amount = "ten" }, ErrInvalidAmount},
		{"future", func(f *FormState) { f.Date = "2025-03-16" }, ErrFutureDate},
		{"bad date", func(f *FormState) { f.Date = "yesterday" }, ErrInvalidDate},
		{"category", func(f *FormState) { f.Category = "Travel" }, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.edit(&f)
			cmd, err := f.Submit(testNow)
			if cmd != nil {
				t.Fatalf("expected no command, got %#v", cmd)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFormStateFrom(t *testing.T) {
	e := Expense{ID: "7", ExpenseFields: validFields()}
	f := FormStateFrom(e)
	if f.Amount != "12.50" || f.Date != "2025-03-15" || f.EditingID != "7" || f.Category != "Food & Dining" {
		t.Fatalf("unexpected form: %+v", f)
	}
	cmd, err := f.Submit(testNow)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	upd := cmd.(UpdateExpense)
	if upd.Fields.Amount != e.Amount || upd.Fields.Category != e.Category ||
		!upd.Fields.Date.Equal(e.Date.Time) || upd.Fields.Description != e.Description {
		t.Fatalf("round trip changed fields: %+v", upd.Fields)
	}
}
