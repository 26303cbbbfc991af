package http

import (
	"html/template"
	"math"
	"strings"

	"finassist/internal/core"
)

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// barWidth scales part against max as a rounded percentage. Non-zero parts
// get at least 2% so they stay visible.
func barWidth(part, max int64) int {
	if max <= 0 || part <= 0 {
		return 0
	}
	width := int(math.Round(float64(part) * 100 / float64(max)))
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

type barView struct {
	Label  string
	Amount core.Money
	Width  int
}

func categoryBars(rows []core.CategoryAmount) []barView {
	var max int64
	for _, r := range rows {
		max = maxInt64(max, r.Amount.Cents)
	}
	out := make([]barView, 0, len(rows))
	for _, r := range rows {
		out = append(out, barView{Label: r.Category.String(), Amount: r.Amount, Width: barWidth(r.Amount.Cents, max)})
	}
	return out
}

func monthBars(rows []core.MonthAmount) []barView {
	var max int64
	for _, r := range rows {
		max = maxInt64(max, r.Amount.Cents)
	}
	out := make([]barView, 0, len(rows))
	for _, r := range rows {
		out = append(out, barView{Label: r.Label, Amount: r.Amount, Width: barWidth(r.Amount.Cents, max)})
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(s.deps.Assistant.Currency()) },
		"lines": func(text string) []string { return strings.Split(text, "\n") },
	}
}
