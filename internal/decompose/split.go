package decompose

import (
	"strings"
	"unicode"

	"github.com/pmorrow/flowplan/pkg/models"
)

// splitSentences breaks text into clause-like units. Boundaries are sentence
// punctuation followed by whitespace, newlines, and "; " separators.
func splitSentences(text string) []string {
	var parts []string
	var cur strings.Builder
	runes := []rune(text)

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			flush()
		case r == ';' && (i+1 >= len(runes) || unicode.IsSpace(runes[i+1])):
			flush()
		case r == '.' || r == '!' || r == '?':
			cur.WriteRune(r)
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return parts
}

// refineClauses applies the granularity hint: low merges adjacent clauses
// into coarser steps, high splits every clause on secondary connectives,
// medium splits only overlong clauses once.
func refineClauses(clauses []string, granularity models.Granularity) []string {
	switch granularity {
	case models.GranularityHigh:
		var out []string
		for _, c := range clauses {
			out = append(out, splitConnectives(c, -1)...)
		}
		return out
	case models.GranularityLow:
		return mergeAdjacent(clauses)
	default:
		var out []string
		for _, c := range clauses {
			if len(c) > longSentenceLen {
				out = append(out, splitConnectives(c, 1)...)
			} else {
				out = append(out, c)
			}
		}
		return out
	}
}

// splitConnectives splits a clause on commas and the connectives "and" and
// "then". max bounds the number of splits; -1 means unlimited.
func splitConnectives(s string, max int) []string {
	var out []string
	rest := s
	for max != 0 {
		idx, width := findConnective(rest)
		if idx < 0 {
			break
		}
		if head := strings.TrimSpace(rest[:idx]); head != "" {
			out = append(out, head)
		}
		rest = rest[idx+width:]
		if max > 0 {
			max--
		}
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		out = append(out, rest)
	}
	if len(out) == 0 {
		return []string{s}
	}
	return out
}

// findConnective returns the byte offset and width of the earliest
// connective in s, or (-1, 0) when none is present.
func findConnective(s string) (int, int) {
	best, width := -1, 0
	if i := strings.IndexByte(s, ','); i >= 0 {
		best, width = i, 1
	}
	for _, conn := range []string{" and ", " then "} {
		if i := indexFold(s, conn); i >= 0 && (best < 0 || i < best) {
			best, width = i, len(conn)
		}
	}
	return best, width
}

// indexFold finds the first case-insensitive occurrence of the all-ASCII
// needle in s. Matching happens directly against s, never a lowered copy:
// lowercasing can change a rune's byte length, so offsets computed on a
// folded string are not valid in the original.
func indexFold(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], needle) {
			return i
		}
	}
	return -1
}

// mergeAdjacent joins clause pairs into single coarser steps.
func mergeAdjacent(clauses []string) []string {
	if len(clauses) < 2 {
		return clauses
	}
	var out []string
	for i := 0; i < len(clauses); i += 2 {
		if i+1 < len(clauses) {
			out = append(out, strings.TrimRight(clauses[i], ".!?")+"; "+clauses[i+1])
		} else {
			out = append(out, clauses[i])
		}
	}
	return out
}
