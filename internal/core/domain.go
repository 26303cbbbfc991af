package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	FoodDining     Category = "Food & Dining"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	BillsUtilities Category = "Bills & Utilities"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Other          Category = "Other"
)

// DateLayout is the wire and storage format for expense dates.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	Category string

	Date struct {
		time.Time
	}

	// ExpenseFields holds everything a user can enter for an expense.
	ExpenseFields struct {
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
		Description string   `json:"description"`
	}

	Expense struct {
		ID string `json:"id"`
		ExpenseFields
	}
)

var categories = []Category{
	FoodDining,
	Transportation,
	Shopping,
	BillsUtilities,
	Entertainment,
	Healthcare,
	Other,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s against the category set, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range categories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", ErrInvalidCategory
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsAfter reports whether d falls on a later calendar day than other.
func (d Date) IsAfter(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Validate checks the fields against the rules of the expense form. now
// decides what "the future" is.
func (f ExpenseFields) Validate(now time.Time) error {
	if err := f.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !f.Category.IsValid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	if err := f.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if f.Date.IsAfter(DateOf(now)) {
		return &ValidationError{Field: "date", Err: ErrFutureDate}
	}
	if strings.TrimSpace(f.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len(f.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

// Normalize trims free text fields.
func (f ExpenseFields) Normalize() ExpenseFields {
	f.Description = strings.TrimSpace(f.Description)
	return f
}
