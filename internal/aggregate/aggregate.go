// Package aggregate computes the derived numbers shown in the charts and
// quoted by the assistant. Every function is pure: it reads the slice it is
// given and never modifies it.
package aggregate

import (
	"sort"

	"finassist/internal/core"
)

// MonthLabelLayout renders an expense date as its short month name.
const MonthLabelLayout = "Jan"

// Summary bundles every aggregate for one expense list.
type Summary struct {
	Count      int                   `json:"count"`
	Total      core.Money            `json:"total"`
	ByCategory []core.CategoryAmount `json:"byCategory"`
	ByMonth    []core.MonthAmount    `json:"byMonth"`
	Highest    *core.Expense         `json:"highest,omitempty"`
}

// Total sums all amounts; an empty list totals zero.
func Total(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory groups amounts by category in first-seen order. Categories
// without expenses do not appear.
func ByCategory(expenses []core.Expense) []core.CategoryAmount {
	index := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryAmount{Category: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// ByMonth groups amounts by short month label in first-seen order. The label
// carries no year, so the same month of different years shares a bucket.
func ByMonth(expenses []core.Expense) []core.MonthAmount {
	index := make(map[string]int)
	var out []core.MonthAmount
	for _, e := range expenses {
		label := MonthLabel(e.Date)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, core.MonthAmount{Label: label})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

func MonthLabel(d core.Date) string {
	return d.Format(MonthLabelLayout)
}

// Highest returns the expense with the largest amount. On ties the first one
// in list order wins.
func Highest(expenses []core.Expense) (core.Expense, error) {
	if len(expenses) == 0 {
		return core.Expense{}, core.ErrEmptyCollection
	}
	highest := expenses[0]
	for _, e := range expenses[1:] {
		if e.Amount.Cents > highest.Amount.Cents {
			highest = e
		}
	}
	return highest, nil
}

// Savings is what is left of income after all expenses. It goes negative
// when spending exceeds income.
func Savings(income core.Money, expenses []core.Expense) core.Money {
	return income.Sub(Total(expenses))
}

// Categories lists the distinct categories in first-seen order.
func Categories(expenses []core.Expense) []core.Category {
	seen := make(map[core.Category]struct{})
	var out []core.Category
	for _, e := range expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// SortByAmount returns a copy ordered by amount, largest first. Equal
// amounts keep their relative order.
func SortByAmount(in []core.CategoryAmount) []core.CategoryAmount {
	out := append([]core.CategoryAmount(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

func Summarize(expenses []core.Expense) Summary {
	s := Summary{
		Count:      len(expenses),
		Total:      Total(expenses),
		ByCategory: ByCategory(expenses),
		ByMonth:    ByMonth(expenses),
	}
	if h, err := Highest(expenses); err == nil {
		s.Highest = &h
	}
	return s
}
