// Package textkit centralizes the text heuristics shared by the feature
// handlers: length bounding, keyword extraction, sentence splitting and the
// classification predicates (math expression, Bangla script). Each decision
// point lives here exactly once so the handlers cannot drift apart.
package textkit

import (
	"sort"
	"strings"
	"unicode"
)

// TruncationMarker is appended to any text shortened by TruncateWords.
const TruncationMarker = "…"

// Word-count bounds for the two answer formats.
const (
	ShortWordLimit = 75
	LongWordLimit  = 350
)

// mathTokens are the operator substrings that mark a query as a math
// expression rather than a search query.
var mathTokens = []string{"+", "-", "*", "/", "^", "=", "integrate", "diff"}

// TruncateWords bounds text to at most limit words. Text at or under the
// limit is returned unchanged; longer text keeps the first limit words and
// gains a trailing marker.
func TruncateWords(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + " " + TruncationMarker
}

// Summary returns the first limit words of text with a marker if shortened.
func Summary(text string, limit int) string {
	return TruncateWords(text, limit)
}

// Keywords extracts the distinct words of text longer than minLen runes,
// capped at max entries. The result is a set: duplicates in the source never
// repeat, and the returned order is sorted so callers see a stable value.
func Keywords(text string, minLen, max int) []string {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		w = strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if len([]rune(w)) <= minLen {
			continue
		}
		seen[w] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// SplitSentences splits notes into sentence-like segments on '.', dropping
// empty and whitespace-only segments. No clause-level analysis is attempted.
func SplitSentences(notes string) []string {
	var out []string
	for _, seg := range strings.Split(notes, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// LooksLikeMath reports whether a free-text query should be routed to the
// math adapter instead of search. The token set is deliberately small; a '-'
// inside an ordinary hyphenated word does not count.
func LooksLikeMath(query string) bool {
	for _, tok := range mathTokens {
		if tok == "-" {
			// Only treat '-' as math when it sits next to a digit or space,
			// not inside a hyphenated word.
			if containsMathMinus(query) {
				return true
			}
			continue
		}
		if strings.Contains(query, tok) {
			return true
		}
	}
	return false
}

func containsMathMinus(q string) bool {
	runes := []rune(q)
	for i, r := range runes {
		if r != '-' {
			continue
		}
		prevLetter := i > 0 && unicode.IsLetter(runes[i-1])
		nextLetter := i+1 < len(runes) && unicode.IsLetter(runes[i+1])
		if !(prevLetter && nextLetter) {
			return true
		}
	}
	return false
}

// IsBangla reports whether text contains any character from the Bengali
// Unicode block (U+0980–U+09FF).
func IsBangla(text string) bool {
	for _, r := range text {
		if r >= 0x0980 && r <= 0x09FF {
			return true
		}
	}
	return false
}
