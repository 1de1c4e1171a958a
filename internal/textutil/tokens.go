package textutil

import (
	"sort"
	"strings"
	"unicode"
)

// TokenSet is a set of distinct tokens.
type TokenSet map[string]struct{}

// Tokenize splits text on any rune that is not a letter or digit. Text is
// expected to be folded already; no case conversion happens here.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NewTokenSet builds a set from the tokens of text.
func NewTokenSet(text string) TokenSet {
	tokens := Tokenize(text)
	set := make(TokenSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Sorted returns the set members in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for token := range s {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets are identical (1); one
// empty set against a non-empty one shares nothing (0).
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for token := range small {
		if _, ok := large[token]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
