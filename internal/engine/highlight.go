package engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/query"
)

// buildHighlights locates the query's terms and phrases in the verse text.
// Matches are case-insensitive, aligned to word boundaries, non-overlapping
// (phrases claim their spans first), and sorted by start offset.
func buildHighlights(verseText string, pq *query.ParsedQuery) []Highlight {
	lower := strings.ToLower(verseText)
	var spans []Highlight

	for _, phrase := range pq.Phrases {
		spans = appendMatches(spans, verseText, lower, strings.ToLower(phrase), HighlightPhrase)
	}
	terms := pq.Keywords
	for _, corr := range pq.TypoCorrections {
		terms = append(terms, corr.Suggestion)
	}
	for _, term := range terms {
		spans = appendMatches(spans, verseText, lower, strings.ToLower(term), HighlightKeyword)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// appendMatches adds every word-boundary occurrence of needle that does not
// overlap an already-claimed span.
func appendMatches(spans []Highlight, verseText, lower, needle string, kind HighlightKind) []Highlight {
	if needle == "" {
		return spans
	}
	from := 0
	for {
		i := strings.Index(lower[from:], needle)
		if i < 0 {
			return spans
		}
		start := from + i
		end := start + len(needle)
		from = start + 1
		if !atWordBoundary(lower, start, end) {
			continue
		}
		if overlaps(spans, start, end) {
			continue
		}
		spans = append(spans, Highlight{
			Text:  verseText[start:end],
			Start: start,
			End:   end,
			Kind:  kind,
		})
		from = end
	}
}

// atWordBoundary reports whether [start, end) is bounded by non-letter,
// non-digit runes (or the string edges).
func atWordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func overlaps(spans []Highlight, start, end int) bool {
	for _, sp := range spans {
		if start < sp.End && sp.Start < end {
			return true
		}
	}
	return false
}
