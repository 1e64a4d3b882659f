package index

import (
	"sort"
)

// ConceptIndex maps a taxonomy concept id (life situation, theological
// concept, or character trait) to the sorted, deduplicated list of matching
// verse ids.
type ConceptIndex map[string][]string

// NewConceptIndex returns an empty concept index.
func NewConceptIndex() ConceptIndex {
	return make(ConceptIndex)
}

// Add records a verse under a concept. Duplicates are tolerated; Finalize
// removes them.
func (ci ConceptIndex) Add(conceptID, verseID string) {
	if conceptID == "" || verseID == "" {
		return
	}
	ci[conceptID] = append(ci[conceptID], verseID)
}

// Finalize sorts and deduplicates every verse list. Call once after the build
// completes; lookups before Finalize may see duplicates.
func (ci ConceptIndex) Finalize() {
	for concept, ids := range ci {
		sort.Strings(ids)
		deduped := ids[:0]
		for i, id := range ids {
			if i == 0 || id != ids[i-1] {
				deduped = append(deduped, id)
			}
		}
		ci[concept] = deduped
	}
}

// Lookup returns the verse ids for a concept, or nil.
func (ci ConceptIndex) Lookup(conceptID string) []string {
	return ci[conceptID]
}

// Concepts returns all concept ids, sorted.
func (ci ConceptIndex) Concepts() []string {
	out := make([]string, 0, len(ci))
	for id := range ci {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
