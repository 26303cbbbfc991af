package assistant

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Query is a chat message prepared for matching. Matching happens on the
// case-folded text so "TOTAL Expenses" and "total expenses" are the same.
type Query struct {
	Raw    string
	folded string
	words  map[string]struct{}
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func NewQuery(raw string) Query {
	folded := fold(strings.TrimSpace(raw))
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
	}
	return Query{Raw: raw, folded: folded, words: words}
}

// Contains reports whether key occurs anywhere in the query.
func (q Query) Contains(key string) bool {
	return strings.Contains(q.folded, fold(key))
}

// HasWord reports whether word appears as a whole word.
func (q Query) HasWord(word string) bool {
	_, ok := q.words[fold(word)]
	return ok
}

// ContainsAny builds a predicate matching any of keys as a substring.
func ContainsAny(keys ...string) func(Query) bool {
	return func(q Query) bool {
		for _, k := range keys {
			if q.Contains(k) {
				return true
			}
		}
		return false
	}
}

// AnyWord builds a predicate matching any of words as a whole word.
func AnyWord(words ...string) func(Query) bool {
	return func(q Query) bool {
		for _, w := range words {
			if q.HasWord(w) {
				return true
			}
		}
		return false
	}
}
