package engine

import (
	"sort"
	"strings"
)

// rank orders results by the requested sort. Relevance is score-descending
// with canonical order breaking ties; canonical follows book/chapter/verse
// order; popularity puts curated popular verses first, then keyword density.
func (e *Engine) rank(results []Result, order SortOrder) {
	switch order {
	case SortCanonical:
		sort.Slice(results, func(i, j int) bool {
			return e.artifacts.Verses.CanonicalRank(results[i].VerseID) <
				e.artifacts.Verses.CanonicalRank(results[j].VerseID)
		})
	case SortPopularity:
		sort.Slice(results, func(i, j int) bool {
			pi, pj := e.popularityKey(results[i].VerseID), e.popularityKey(results[j].VerseID)
			if pi != pj {
				return pi < pj
			}
			di, dj := e.keywordDensity(results[i].VerseID), e.keywordDensity(results[j].VerseID)
			if di != dj {
				return di > dj
			}
			return e.artifacts.Verses.CanonicalRank(results[i].VerseID) <
				e.artifacts.Verses.CanonicalRank(results[j].VerseID)
		})
	default: // SortRelevance
		sort.Slice(results, func(i, j int) bool {
			if results[i].Score != results[j].Score {
				return results[i].Score > results[j].Score
			}
			return e.artifacts.Verses.CanonicalRank(results[i].VerseID) <
				e.artifacts.Verses.CanonicalRank(results[j].VerseID)
		})
	}
}

// popularityKey is the verse's index in the curated popular list, or a large
// sentinel for everything uncurated.
func (e *Engine) popularityKey(verseID string) int {
	if rank, ok := e.popRank[verseID]; ok {
		return rank
	}
	return len(e.popRank) + 1
}

// keywordDensity is taxonomy keyword matches per token, precomputed at build
// time on the stored verse.
func (e *Engine) keywordDensity(verseID string) float64 {
	sv := e.artifacts.Verses.Get(verseID)
	if sv == nil || sv.TokenCount == 0 {
		return 0
	}
	return float64(len(sv.Keywords)) / float64(sv.TokenCount)
}

// applyFilters keeps results matching every filter (AND semantics). Runs
// after ranking and before the cap, so filtering never changes relative
// order and the cap applies to the filtered set.
func (e *Engine) applyFilters(results []Result, filters []Filter) []Result {
	if len(filters) == 0 {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if e.matchesAll(r.VerseID, filters) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (e *Engine) matchesAll(verseID string, filters []Filter) bool {
	sv := e.artifacts.Verses.Get(verseID)
	if sv == nil {
		return false
	}
	for _, f := range filters {
		var field string
		switch f.Field {
		case FilterBook:
			field = sv.Book
			// Allow aliases and prefixes the same way references do.
			if book, ok := e.tax.ResolveBook(f.Value); ok {
				if matched := strings.EqualFold(sv.Book, book.Name); matched == f.Negate {
					return false
				}
				continue
			}
		case FilterTestament:
			field = sv.Testament
		case FilterGenre:
			field = sv.Genre
		default:
			return false
		}
		if matched := strings.EqualFold(field, f.Value); matched == f.Negate {
			return false
		}
	}
	return true
}
