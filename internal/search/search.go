package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Matcher decides whether a needle fuzzily matches a haystack.
type Matcher interface {
	Matches(haystack, needle string) bool
}

// Fuzzy is a case-insensitive subsequence Matcher backed by sahilm/fuzzy.
// The zero value is ready to use.
type Fuzzy struct{}

// Matches reports whether every rune of needle appears in haystack in order.
// An empty needle matches everything.
func (Fuzzy) Matches(haystack, needle string) bool {
	_, ok := Score(haystack, needle)
	return ok
}

// Score returns the fuzzy match score of needle against haystack and whether
// it matched at all. Results in this module are never ranked by score; it is
// exposed for diagnostics.
func Score(haystack, needle string) (int, bool) {
	if needle == "" {
		return 0, true
	}

	matches := fuzzy.Find(strings.ToLower(needle), []string{strings.ToLower(haystack)})
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Score, true
}

// MatchesAny reports whether needle matches at least one of the haystacks.
func MatchesAny(m Matcher, needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if m.Matches(h, needle) {
			return true
		}
	}
	return false
}
