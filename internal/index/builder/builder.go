// Package builder turns the raw corpus and taxonomy into the immutable index
// artifacts. Verses are processed in fixed-size batches: analysis (tokenize,
// keyword extraction, semantic features) fans out to a worker pool, and the
// merge into the shared structures is sequential so the output is fully
// deterministic. After every batch the estimated memory footprint is checked
// against the configured soft and hard thresholds.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/corpus"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/text"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
)

// Builder constructs index artifacts from a verse corpus.
type Builder struct {
	cfg     config.BuilderConfig
	tax     *taxonomy.Taxonomy
	metrics *metrics.Metrics
	logger  *slog.Logger

	features *index.FeatureSchema
	// Multi-word taxonomy keywords need a substring scan; single tokens go
	// through the keyword map.
	phraseKeywords []string
}

// New creates a Builder. The metrics handle may be nil (offline CLI runs).
func New(cfg config.BuilderConfig, tax *taxonomy.Taxonomy, m *metrics.Metrics) *Builder {
	b := &Builder{
		cfg:      cfg,
		tax:      tax,
		metrics:  m,
		logger:   slog.Default().With("component", "index-builder"),
		features: index.NewFeatureSchema(tax),
	}
	for _, e := range tax.Entries() {
		for _, kw := range e.Keywords {
			if strings.Contains(kw, " ") {
				b.phraseKeywords = append(b.phraseKeywords, strings.ToLower(kw))
			}
		}
	}
	sort.Strings(b.phraseKeywords)
	return b
}

// analysis is the per-verse output of the parallel phase.
type analysis struct {
	verse    corpus.Verse
	tokens   []text.Token
	keywords []string
	vector   index.Vector
}

// Build processes the corpus and returns the complete artifact set.
func (b *Builder) Build(ctx context.Context, verses []corpus.Verse) (*index.Artifacts, error) {
	if len(verses) == 0 {
		return nil, fmt.Errorf("empty corpus")
	}
	pool, err := ants.NewPool(b.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	inverted := index.NewInvertedIndex()
	concepts := index.NewConceptIndex()
	semantic := make(index.SemanticVectors, len(verses))
	store := index.NewVerseStore()
	est := newMemoryEstimator()

	batchSize := b.cfg.BatchSize
	for start := 0; start < len(verses); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}
		end := start + batchSize
		if end > len(verses) {
			end = len(verses)
		}
		batch := verses[start:end]
		results := make([]analysis, len(batch))

		// Parallel analysis: no cross-verse dependency inside a batch.
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			i := i
			if err := pool.Submit(func() {
				defer wg.Done()
				results[i] = b.analyze(batch[i])
			}); err != nil {
				wg.Done()
				results[i] = b.analyze(batch[i])
			}
		}
		wg.Wait()

		// Sequential merge keeps ordering deterministic.
		for i := range results {
			b.merge(&results[i], inverted, concepts, semantic, store, est)
		}
		if b.metrics != nil {
			b.metrics.VersesIndexedTotal.Add(float64(len(batch)))
		}
		b.checkMemory(est, inverted, start/batchSize)
	}
	inverted.DocCount = store.Len()

	b.applyTaxonomyMappings(concepts, store)
	concepts.Finalize()

	trie := b.buildTrie(inverted)
	store.Order = b.canonicalOrder(store)

	artifacts := &index.Artifacts{
		Inverted: inverted,
		Trie:     trie,
		Concepts: concepts,
		Semantic: semantic,
		Verses:   store,
	}
	if err := artifacts.Validate(); err != nil {
		return nil, fmt.Errorf("artifact validation: %w", err)
	}
	b.logger.Info("build complete",
		"verses", store.Len(),
		"terms", len(inverted.Entries),
		"trie_nodes", trie.Len(),
		"concepts", len(concepts),
	)
	return artifacts, nil
}

// analyze runs the per-verse derivations: tokens with positions, taxonomy
// keyword matches, and the semantic feature vector.
func (b *Builder) analyze(v corpus.Verse) analysis {
	tokens := text.Tokenize(v.Text)
	normalized := text.NormalizeVerse(v.Text)

	keywordSet := make(map[string]struct{})
	for _, tok := range tokens {
		if len(b.tax.ConceptsForKeyword(tok.Term)) > 0 {
			keywordSet[tok.Term] = struct{}{}
		}
	}
	for _, phrase := range b.phraseKeywords {
		if strings.Contains(normalized, phrase) {
			keywordSet[phrase] = struct{}{}
		}
	}
	keywords := make([]string, 0, len(keywordSet))
	for kw := range keywordSet {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	conceptSet := make(map[string]struct{})
	for _, kw := range keywords {
		for _, id := range b.tax.ConceptsForKeyword(kw) {
			conceptSet[id] = struct{}{}
		}
	}
	conceptIDs := make([]string, 0, len(conceptSet))
	for id := range conceptSet {
		conceptIDs = append(conceptIDs, id)
	}
	sort.Strings(conceptIDs)

	genre := ""
	if book, ok := b.tax.ResolveBook(v.Book); ok {
		genre = book.Genre
	}

	return analysis{
		verse:    v,
		tokens:   tokens,
		keywords: keywords,
		vector:   b.features.VerseVector(conceptIDs, len(tokens), len(keywords), genre),
	}
}

// merge folds one analysed verse into the shared structures.
func (b *Builder) merge(
	a *analysis,
	inverted *index.InvertedIndex,
	concepts index.ConceptIndex,
	semantic index.SemanticVectors,
	store *index.VerseStore,
	est *memoryEstimator,
) {
	positions := make(map[string][]int)
	for _, tok := range a.tokens {
		positions[tok.Term] = append(positions[tok.Term], tok.Position)
	}
	terms := make([]string, 0, len(positions))
	for term := range positions {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		inverted.Add(term, a.verse.ID, positions[term])
		est.addPosting(term, a.verse.ID, len(positions[term]))
	}

	// Keyword-match discovery: a verse whose text carries a taxonomy keyword
	// joins that keyword's concepts.
	for _, kw := range a.keywords {
		for _, conceptID := range b.tax.ConceptsForKeyword(kw) {
			concepts.Add(conceptID, a.verse.ID)
		}
	}

	sv := &index.StoredVerse{
		ID:             a.verse.ID,
		Book:           a.verse.Book,
		Chapter:        a.verse.Chapter,
		Verse:          a.verse.Verse,
		Text:           a.verse.Text,
		NormalizedText: text.NormalizeVerse(a.verse.Text),
		Keywords:       a.keywords,
		TokenCount:     len(a.tokens),
	}
	if book, ok := b.tax.ResolveBook(a.verse.Book); ok {
		sv.Testament = book.Testament
		sv.Genre = book.Genre
	}
	store.Verses[a.verse.ID] = sv
	semantic[a.verse.ID] = a.vector

	est.addVerse(sv)
	a.tokens = nil // analysis buffers are not needed past the merge
}

// checkMemory evaluates the deterministic memory estimate after a batch. The
// soft threshold triggers a compaction pass, the hard threshold only logs a
// warning; neither aborts the build.
func (b *Builder) checkMemory(est *memoryEstimator, inverted *index.InvertedIndex, batch int) {
	estimate := est.estimate()
	pressure := "ok"
	switch {
	case b.cfg.HardMemoryThreshold > 0 && estimate >= b.cfg.HardMemoryThreshold:
		pressure = "hard"
		b.logger.Warn("estimated memory above hard threshold",
			"batch", batch,
			"estimate_bytes", estimate,
			"threshold_bytes", b.cfg.HardMemoryThreshold,
		)
	case b.cfg.SoftMemoryThreshold > 0 && estimate >= b.cfg.SoftMemoryThreshold:
		pressure = "soft"
		released := compactPostings(inverted)
		est.compacted(released)
		b.logger.Info("soft memory threshold reached, compacted postings",
			"batch", batch,
			"estimate_bytes", estimate,
			"released_bytes", released,
		)
	}
	if b.metrics != nil {
		b.metrics.BuildBatchesTotal.WithLabelValues(pressure).Inc()
		b.metrics.BuildMemoryEstimate.Set(float64(est.estimate()))
	}
}

// applyTaxonomyMappings unions the explicit taxonomy verse lists into the
// concept index. References to verses the corpus does not contain are skipped
// with a warning; that is non-fatal by design.
func (b *Builder) applyTaxonomyMappings(concepts index.ConceptIndex, store *index.VerseStore) {
	for _, e := range b.tax.Entries() {
		for _, verseID := range e.Verses {
			if store.Get(verseID) == nil {
				b.logger.Warn("taxonomy references unknown verse, skipping",
					"concept", e.ID,
					"verse_id", verseID,
				)
				continue
			}
			concepts.Add(e.ID, verseID)
		}
	}
}

// buildTrie seeds the autocomplete trie with the taxonomy vocabulary, book
// names and aliases, and known typo variants. Terms are inserted in sorted
// order and suggestion ties resolve lexicographically, so rebuilds are
// reproducible.
func (b *Builder) buildTrie(inverted *index.InvertedIndex) *index.Trie {
	trie := index.NewTrie()
	terms := b.tax.AllTerms()
	for typo := range b.tax.TypoCorrections {
		terms = append(terms, strings.ToLower(typo))
	}
	sort.Strings(terms)
	for _, term := range terms {
		freq := inverted.TermFrequency(term)
		// Multi-word terms are not single index tokens; approximate their
		// frequency by their rarest word so they still rank.
		if freq == 0 && strings.Contains(term, " ") {
			freq = phraseFrequency(inverted, term)
		}
		trie.Insert(term, freq)
	}
	return trie
}

func phraseFrequency(inverted *index.InvertedIndex, phrase string) uint64 {
	var freq uint64
	for i, word := range strings.Fields(phrase) {
		f := inverted.TermFrequency(word)
		if i == 0 || f < freq {
			freq = f
		}
	}
	return freq
}

// canonicalOrder sorts verse ids by taxonomy book order, then chapter, then
// verse. Books missing from the taxonomy sort after the known ones, by name.
func (b *Builder) canonicalOrder(store *index.VerseStore) []string {
	bookRank := make(map[string]int, len(b.tax.Books))
	for i, book := range b.tax.Books {
		bookRank[strings.ToLower(book.Name)] = i
	}
	rank := func(sv *index.StoredVerse) int {
		if r, ok := bookRank[strings.ToLower(sv.Book)]; ok {
			return r
		}
		return len(b.tax.Books)
	}
	ids := make([]string, 0, store.Len())
	for id := range store.Verses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, c := store.Verses[ids[i]], store.Verses[ids[j]]
		ra, rc := rank(a), rank(c)
		if ra != rc {
			return ra < rc
		}
		if a.Book != c.Book {
			return a.Book < c.Book
		}
		if a.Chapter != c.Chapter {
			return a.Chapter < c.Chapter
		}
		return a.Verse < c.Verse
	})
	return ids
}

// compactPostings re-allocates position slices at exact capacity, returning
// the estimated bytes released.
func compactPostings(inverted *index.InvertedIndex) int64 {
	var released int64
	for _, entry := range inverted.Entries {
		for id, positions := range entry.Positions {
			if cap(positions) > len(positions) {
				released += int64((cap(positions) - len(positions)) * 8)
				compacted := make([]int, len(positions))
				copy(compacted, positions)
				entry.Positions[id] = compacted
			}
		}
		if cap(entry.VerseIDs) > len(entry.VerseIDs) {
			compacted := make([]string, len(entry.VerseIDs))
			copy(compacted, entry.VerseIDs)
			entry.VerseIDs = compacted
		}
	}
	return released
}
