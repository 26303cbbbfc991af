// Package assistant answers chat questions about the user's spending with
// canned, template-filled responses.
//
// Rules are tried top to bottom and the first match wins; ordering is the only
// disambiguation, so "saving categories" is answered by the savings rule.
package assistant

import (
	"errors"
	"strings"

	"finassist/internal/aggregate"
	"finassist/internal/core"
)

const (
	DefaultCurrency = "₹"
)

// DefaultMonthlyIncome is the income the savings answer is computed against.
var DefaultMonthlyIncome = core.Money{Cents: 50000 * 100}

var ErrEmptyQuery = errors.New("empty chat message")

type Engine struct {
	rules    []Rule
	income   core.Money
	currency string
	fallback string
	observe  func(rule string)
}

type Option func(*Engine)

func WithMonthlyIncome(m core.Money) Option {
	return func(e *Engine) { e.income = m }
}

func WithCurrency(symbol string) Option {
	return func(e *Engine) { e.currency = symbol }
}

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = append([]Rule(nil), rules...) }
}

func WithFallback(text string) Option {
	return func(e *Engine) { e.fallback = text }
}

// WithObserver registers a callback invoked with the name of every rule
// that answered, including RuleFallback.
func WithObserver(fn func(rule string)) Option {
	return func(e *Engine) { e.observe = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		rules:    DefaultRules(),
		income:   DefaultMonthlyIncome,
		currency: DefaultCurrency,
		fallback: FallbackText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MonthlyIncome is the income savings answers are computed against.
func (e *Engine) MonthlyIncome() core.Money {
	return e.income
}

// Currency is the symbol amounts are rendered with.
func (e *Engine) Currency() string {
	return e.currency
}

// Rules returns the active rules in precedence order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Reply picks the first matching rule for query and renders its answer
// against expenses.
func (e *Engine) Reply(query string, expenses []core.Expense) Reply {
	q := NewQuery(query)
	for _, r := range e.rules {
		if r.Match == nil || r.Respond == nil || !r.Match(q) {
			continue
		}
		reply := r.Respond(q, e.facts(expenses))
		if reply.Rule == "" {
			reply.Rule = r.Name
		}
		e.notify(reply.Rule)
		return reply
	}
	e.notify(RuleFallback)
	return Reply{Rule: RuleFallback, Text: e.fallback}
}

// Respond is Reply without the metadata.
func (e *Engine) Respond(query string, expenses []core.Expense) string {
	return e.Reply(query, expenses).Text
}

// Converse records query and the answer to it in t and returns both
// messages. Blank queries are ignored.
func (e *Engine) Converse(t *Transcript, query string, expenses []core.Expense) ([]Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	reply := e.Reply(query, expenses)
	user := t.Append(query, true, nil)
	bot := t.Append(reply.Text, false, reply.FollowUps)
	return []Message{user, bot}, nil
}

func (e *Engine) facts(expenses []core.Expense) Facts {
	return Facts{
		Expenses:      expenses,
		Summary:       aggregate.Summarize(expenses),
		MonthlyIncome: e.income,
		Currency:      e.currency,
	}
}

func (e *Engine) notify(rule string) {
	if e.observe != nil {
		e.observe(rule)
	}
}
