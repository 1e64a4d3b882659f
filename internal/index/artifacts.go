package index

import (
	"fmt"
)

// Artifacts groups everything the builder produces and the search engine
// serves from. Treated as immutable once loaded.
type Artifacts struct {
	Inverted *InvertedIndex
	Trie     *Trie
	Concepts ConceptIndex
	Semantic SemanticVectors
	Verses   *VerseStore
}

// Validate checks the structural invariants the builder guarantees: postings
// consistency between VerseIDs and Positions, frequency accounting, suggestion
// list bounds, and that every indexed verse id resolves in the verse store.
func (a *Artifacts) Validate() error {
	if a.Inverted == nil || a.Trie == nil || a.Concepts == nil || a.Semantic == nil || a.Verses == nil {
		return fmt.Errorf("artifacts incomplete")
	}
	for term, entry := range a.Inverted.Entries {
		if len(entry.VerseIDs) != len(entry.Positions) {
			return fmt.Errorf("term %q: %d verse ids but %d position lists",
				term, len(entry.VerseIDs), len(entry.Positions))
		}
		var total uint64
		for _, id := range entry.VerseIDs {
			positions, ok := entry.Positions[id]
			if !ok {
				return fmt.Errorf("term %q: verse %s missing from positions", term, id)
			}
			if a.Verses.Get(id) == nil {
				return fmt.Errorf("term %q: verse %s not in verse store", term, id)
			}
			total += uint64(len(positions))
		}
		if total != entry.Frequency {
			return fmt.Errorf("term %q: frequency %d but %d positions", term, entry.Frequency, total)
		}
	}
	for i := range a.Trie.Nodes {
		if len(a.Trie.Nodes[i].Suggestions) > MaxSuggestions {
			return fmt.Errorf("trie node %d: %d suggestions exceeds cap", i, len(a.Trie.Nodes[i].Suggestions))
		}
	}
	return nil
}
