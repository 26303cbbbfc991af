// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer minor units (cents) and converted through
// shopspring/decimal whenever text or JSON is involved, so no arithmetic
// ever happens on floats.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxAmount is the largest single amount accepted, in currency units. It
// keeps sums over any realistic collection far from int64 overflow.
const MaxAmount = 1_000_000_000_000

var maxCents = decimal.NewFromInt(MaxAmount * 100)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return decimalToCents(d)
}

// ParseMoney is ParseDecimalToCents wrapped in a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromDecimal converts d to cents, rounding half away from zero. Unlike
// ParseDecimalToCents it accepts zero and negative values.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Round(2).Shift(2)
	if !shifted.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if shifted.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return shifted.IntPart(), nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmount*100 {
		return ErrAmountTooLarge
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Compact drops trailing zero decimals, e.g. "50000" or "12.5".
func (m Money) Compact() string {
	return m.Decimal().String()
}

// Format prefixes the two-decimal amount with a currency symbol.
func (m Money) Format(symbol string) string {
	if m.Cents < 0 {
		return "-" + symbol + Money{Cents: -m.Cents}.String()
	}
	return symbol + m.String()
}

// MarshalJSON writes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
