package engine

import (
	"math"
	"sort"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/corpus"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/query"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/text"
)

// candidate accumulates a verse's best score across strategies.
type candidate struct {
	score      float64
	strategies []string
}

// candidateSet merges strategy hits with max-score-wins semantics.
type candidateSet map[string]*candidate

func (cs candidateSet) add(verseID string, score float64, strategy string) {
	c, ok := cs[verseID]
	if !ok {
		cs[verseID] = &candidate{score: score, strategies: []string{strategy}}
		return
	}
	if score > c.score {
		c.score = score
	}
	for _, s := range c.strategies {
		if s == strategy {
			return
		}
	}
	c.strategies = append(c.strategies, strategy)
}

// maxChapterVerses bounds the scan when expanding a chapter-only reference.
// No chapter in the corpus exceeds Psalm 119's 176 verses.
const maxChapterVerses = 200

// referenceStrategy resolves explicit verse references. Hits score a full
// 1.0; a reference that resolves to nothing contributes nothing.
func (e *Engine) referenceStrategy(pq *query.ParsedQuery, cs candidateSet) {
	for _, ref := range pq.References {
		switch {
		case ref.Verse == 0:
			// Whole chapter: verse numbers are contiguous from 1.
			for v := 1; v <= maxChapterVerses; v++ {
				id := corpus.VerseID(ref.Book, ref.Chapter, v)
				if e.artifacts.Verses.Get(id) == nil {
					break
				}
				cs.add(id, 1.0, strategyReference)
			}
		case ref.EndVerse > ref.Verse:
			for v := ref.Verse; v <= ref.EndVerse; v++ {
				id := corpus.VerseID(ref.Book, ref.Chapter, v)
				if e.artifacts.Verses.Get(id) != nil {
					cs.add(id, 1.0, strategyReference)
				}
			}
		default:
			id := corpus.VerseID(ref.Book, ref.Chapter, ref.Verse)
			if e.artifacts.Verses.Get(id) != nil {
				cs.add(id, 1.0, strategyReference)
			}
		}
	}
}

// conceptStrategy scores every verse curated under the given concept ids at
// a flat weight. Used for both life situations and topics, which differ only
// in weight.
func (e *Engine) conceptStrategy(ids []string, weight float64, strategy string, cs candidateSet) {
	for _, id := range ids {
		for _, verseID := range e.artifacts.Concepts.Lookup(id) {
			cs.add(verseID, weight, strategy)
		}
	}
}

// keywordStrategy scores verses by log-normalized TF-IDF over the query
// keywords, then rescales so the best keyword hit lands at 1.0. Phrase,
// AND, and NEAR operators restrict the candidate set before rescaling.
func (e *Engine) keywordStrategy(pq *query.ParsedQuery, cs candidateSet) {
	terms := keywordTerms(pq)
	if len(terms) == 0 {
		return
	}
	docCount := e.artifacts.Inverted.DocCount
	raw := make(map[string]float64)
	for _, term := range terms {
		entry := e.artifacts.Inverted.Lookup(term)
		if entry == nil {
			continue
		}
		idf := math.Log(1 + float64(docCount)/float64(len(entry.VerseIDs)))
		for _, verseID := range entry.VerseIDs {
			tf := float64(len(entry.Positions[verseID]))
			raw[verseID] += (1 + math.Log(tf)) * idf
		}
	}
	if len(raw) == 0 {
		return
	}

	e.applyPhraseConstraints(pq, raw)
	e.applyProximityConstraints(pq, raw)
	applyConjunctions(pq, e.artifacts.Inverted, raw)
	if len(raw) == 0 {
		return
	}

	max := 0.0
	for _, score := range raw {
		if score > max {
			max = score
		}
	}
	for verseID, score := range raw {
		cs.add(verseID, score/max, strategyKeyword)
	}
}

// keywordTerms is the term set the keyword strategy scores: extracted
// keywords plus any phrase terms not already covered.
func keywordTerms(pq *query.ParsedQuery) []string {
	seen := make(map[string]struct{}, len(pq.Keywords))
	terms := make([]string, 0, len(pq.Keywords))
	for _, kw := range pq.Keywords {
		if _, ok := seen[kw]; !ok {
			seen[kw] = struct{}{}
			terms = append(terms, kw)
		}
	}
	for _, phrase := range pq.Phrases {
		for _, term := range text.Terms(phrase) {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				terms = append(terms, term)
			}
		}
	}
	return terms
}

// applyPhraseConstraints drops candidates that do not contain every quoted
// phrase as consecutive tokens.
func (e *Engine) applyPhraseConstraints(pq *query.ParsedQuery, raw map[string]float64) {
	for _, phrase := range pq.Phrases {
		terms := text.Terms(phrase)
		if len(terms) < 2 {
			continue
		}
		for verseID := range raw {
			if !containsPhrase(e.artifacts.Inverted, terms, verseID) {
				delete(raw, verseID)
			}
		}
	}
}

// containsPhrase reports whether the terms appear at consecutive token
// positions in the verse.
func containsPhrase(inv *index.InvertedIndex, terms []string, verseID string) bool {
	first := inv.Lookup(terms[0])
	if first == nil {
		return false
	}
	for _, start := range first.Positions[verseID] {
		matched := true
		for i := 1; i < len(terms); i++ {
			entry := inv.Lookup(terms[i])
			if entry == nil || !containsPosition(entry.Positions[verseID], start+i) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func containsPosition(positions []int, want int) bool {
	for _, p := range positions {
		if p == want {
			return true
		}
	}
	return false
}

// applyProximityConstraints enforces NEAR operators: both operand terms must
// occur within the operator's token distance.
func (e *Engine) applyProximityConstraints(pq *query.ParsedQuery, raw map[string]float64) {
	for _, op := range pq.Operators {
		if op.Kind != query.OpNear || len(op.Args) < 2 {
			continue
		}
		a := e.artifacts.Inverted.Lookup(op.Args[0])
		b := e.artifacts.Inverted.Lookup(op.Args[1])
		for verseID := range raw {
			if a == nil || b == nil || !withinDistance(a.Positions[verseID], b.Positions[verseID], op.Distance) {
				delete(raw, verseID)
			}
		}
	}
}

func withinDistance(a, b []int, k int) bool {
	for _, pa := range a {
		for _, pb := range b {
			d := pa - pb
			if d < 0 {
				d = -d
			}
			if d <= k {
				return true
			}
		}
	}
	return false
}

// applyConjunctions enforces AND operators: every operand term must be
// present in the verse.
func applyConjunctions(pq *query.ParsedQuery, inv *index.InvertedIndex, raw map[string]float64) {
	for _, op := range pq.Operators {
		if op.Kind != query.OpAnd {
			continue
		}
		for _, arg := range op.Args {
			for _, term := range text.Terms(arg) {
				entry := inv.Lookup(term)
				for verseID := range raw {
					if entry == nil || len(entry.Positions[verseID]) == 0 {
						delete(raw, verseID)
					}
				}
			}
		}
	}
}

// applyExclusions removes verses containing any NOT-negated term. Runs over
// the merged candidate set so exclusions bind across strategies.
func (e *Engine) applyExclusions(pq *query.ParsedQuery, cs candidateSet) {
	for _, op := range pq.Operators {
		if op.Kind != query.OpNot {
			continue
		}
		for _, arg := range op.Args {
			for _, term := range text.Terms(arg) {
				entry := e.artifacts.Inverted.Lookup(term)
				if entry == nil {
					continue
				}
				for _, verseID := range entry.VerseIDs {
					delete(cs, verseID)
				}
			}
		}
	}
}

// semanticFallbackThreshold: the semantic strategy only runs when the other
// strategies produced fewer candidates than this.
const semanticFallbackThreshold = 10

// semanticStrategy compares the query's concept vector against every verse
// vector and admits the closest matches, scaled down so feature-overlap hits
// never outrank direct matches.
func (e *Engine) semanticStrategy(pq *query.ParsedQuery, cs candidateSet, limit int) {
	conceptIDs := append(append([]string{}, pq.LifeSituations...), pq.Topics...)
	if len(conceptIDs) == 0 {
		return
	}
	queryVec := e.features.QueryVector(conceptIDs)

	type hit struct {
		verseID string
		score   float64
	}
	hits := make([]hit, 0, limit)
	for verseID, vec := range e.artifacts.Semantic {
		sim := index.Cosine(queryVec, vec)
		if sim <= 0 {
			continue
		}
		hits = append(hits, hit{verseID, sim * e.cfg.SemanticWeight})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].verseID < hits[j].verseID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		cs.add(h.verseID, h.score, strategySemantic)
	}
}
