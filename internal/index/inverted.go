// Package index defines the four immutable artifacts produced by the offline
// builder: the inverted index, the autocomplete trie, the concept index, and
// the per-verse semantic feature vectors, plus the frozen verse table they
// reference. All artifacts are built once and shared read-only while serving.
package index

import (
	"sort"
)

// Entry holds the postings for a single term.
type Entry struct {
	// VerseIDs is sorted lexicographically; every id in Positions appears
	// here and vice versa.
	VerseIDs []string `json:"verse_ids"`
	// Positions maps verse id to the term's token positions in that verse.
	Positions map[string][]int `json:"positions"`
	// Frequency is the total occurrence count across the corpus and equals
	// the sum of the position-list lengths.
	Frequency uint64 `json:"frequency"`
}

// InvertedIndex maps terms to postings.
type InvertedIndex struct {
	Entries  map[string]*Entry `json:"entries"`
	DocCount int               `json:"doc_count"`
}

// NewInvertedIndex returns an empty inverted index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		Entries: make(map[string]*Entry),
	}
}

// Add merges one verse's occurrences of a term. Positions are token positions
// within the verse.
func (ii *InvertedIndex) Add(term, verseID string, positions []int) {
	if term == "" || len(positions) == 0 {
		return
	}
	entry, ok := ii.Entries[term]
	if !ok {
		entry = &Entry{
			Positions: make(map[string][]int),
		}
		ii.Entries[term] = entry
	}
	if _, seen := entry.Positions[verseID]; !seen {
		entry.VerseIDs = insertSorted(entry.VerseIDs, verseID)
	}
	entry.Positions[verseID] = append(entry.Positions[verseID], positions...)
	entry.Frequency += uint64(len(positions))
}

// Lookup returns the postings entry for a term, or nil.
func (ii *InvertedIndex) Lookup(term string) *Entry {
	return ii.Entries[term]
}

// DocFreq returns the number of verses containing the term.
func (ii *InvertedIndex) DocFreq(term string) int {
	if entry, ok := ii.Entries[term]; ok {
		return len(entry.VerseIDs)
	}
	return 0
}

// TermFrequency returns the corpus-wide occurrence count of the term.
func (ii *InvertedIndex) TermFrequency(term string) uint64 {
	if entry, ok := ii.Entries[term]; ok {
		return entry.Frequency
	}
	return 0
}

// Terms returns all indexed terms, sorted.
func (ii *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(ii.Entries))
	for term := range ii.Entries {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// insertSorted inserts id into a sorted slice, keeping it sorted and unique.
func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
