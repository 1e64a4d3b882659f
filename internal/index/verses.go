package index

import "sync"

// StoredVerse is the frozen, searchable form of a corpus verse: the raw
// fields plus the build-time derivations the serving path needs (normalized
// text, taxonomy keyword matches, token count, and book metadata for
// filtering).
type StoredVerse struct {
	ID             string   `json:"id"`
	Book           string   `json:"book"`
	Chapter        int      `json:"chapter"`
	Verse          int      `json:"verse"`
	Text           string   `json:"text"`
	NormalizedText string   `json:"normalized_text"`
	Keywords       []string `json:"keywords,omitempty"`
	TokenCount     int      `json:"token_count"`
	Testament      string   `json:"testament,omitempty"`
	Genre          string   `json:"genre,omitempty"`
}

// VerseStore holds every frozen verse plus the canonical
// book/chapter/verse ordering.
type VerseStore struct {
	Verses map[string]*StoredVerse `json:"verses"`
	Order  []string                `json:"order"`

	rankOnce sync.Once
	rank     map[string]int
}

// NewVerseStore returns an empty store.
func NewVerseStore() *VerseStore {
	return &VerseStore{
		Verses: make(map[string]*StoredVerse),
	}
}

// Get returns the stored verse for an id, or nil.
func (vs *VerseStore) Get(id string) *StoredVerse {
	return vs.Verses[id]
}

// Len returns the number of stored verses.
func (vs *VerseStore) Len() int {
	return len(vs.Verses)
}

// CanonicalRank returns the verse's position in canonical order, or the
// store length for unknown ids so they sort last. Safe for concurrent use:
// the rank table is built exactly once, on first call.
func (vs *VerseStore) CanonicalRank(id string) int {
	vs.rankOnce.Do(vs.buildRank)
	if r, ok := vs.rank[id]; ok {
		return r
	}
	return len(vs.Order)
}

func (vs *VerseStore) buildRank() {
	vs.rank = make(map[string]int, len(vs.Order))
	for i, id := range vs.Order {
		vs.rank[id] = i
	}
}
