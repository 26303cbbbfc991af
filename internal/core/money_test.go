package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"-5", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000000000", 100000000000000, true},
		{"1000000000000.01", 0, false},
		{"50000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAmountCap(t *testing.T) {
	if _, err := ParseMoney("50000000000000000"); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
	if err := (Money{Cents: MaxAmount*100 + 1}).Validate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
	if err := (Money{Cents: MaxAmount * 100}).Validate(); err != nil {
		t.Fatalf("max amount rejected: %v", err)
	}

	// Ten thousand maximal amounts still sum without overflow.
	top := Money{Cents: MaxAmount * 100}
	var total Money
	for i := 0; i < 10_000; i++ {
		total = total.Add(top)
	}
	if total.Cents <= 0 {
		t.Fatalf("sum overflowed: %d", total.Cents)
	}

	fields := ExpenseFields{
		Amount:      Money{Cents: MaxAmount*100 + 1},
		Category:    Other,
		Date:        NewDate(2025, 3, 1),
		Description: "x",
	}
	if msg := UserMessage(fields.Validate(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))); msg != "Amount too large" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m       Money
		str     string
		compact string
		rupees  string
	}{
		{Money{Cents: 0}, "0.00", "0", "₹0.00"},
		{Money{Cents: 5000000}, "50000.00", "50000", "₹50000.00"},
		{Money{Cents: 1250}, "12.50", "12.5", "₹12.50"},
		{Money{Cents: -705}, "-7.05", "-7.05", "-₹7.05"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.str {
			t.Fatalf("String(%d) = %q, want %q", tc.m.Cents, got, tc.str)
		}
		if got := tc.m.Compact(); got != tc.compact {
			t.Fatalf("Compact(%d) = %q, want %q", tc.m.Cents, got, tc.compact)
		}
		if got := tc.m.Format("₹"); got != tc.rupees {
			t.Fatalf("Format(%d) = %q, want %q", tc.m.Cents, got, tc.rupees)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(Money{Cents: 1999})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "19.99" {
		t.Fatalf("unexpected json %s", data)
	}

	for _, in := range []string{`19.99`, `"19.99"`, `19.990`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != 1999 {
			t.Fatalf("unmarshal %s: got %d cents", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"lots"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1000}
	b := Money{Cents: 250}
	if got := a.Add(b); got.Cents != 1250 {
		t.Fatalf("add: got %d", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -750 {
		t.Fatalf("sub: got %d", got.Cents)
	}
}
