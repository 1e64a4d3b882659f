// Package benchmark contains Go benchmarks for the tokenizer, the index
// builder, and the search engine, measuring throughput and allocation
// behaviour over synthetic corpora.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/corpus"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index/builder"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
)

const benchTaxonomy = `
lifeSituations:
  - id: anxiety
    keywords: [anxious, worry, afraid]
    verses: []
    relatedTopics: [peace]
theologicalConcepts:
  - id: faith
    keywords: [faith, believe, trust]
    verses: []
  - id: love
    keywords: [love, loved, beloved]
    verses: []
characterTraits: []
books:
  - name: Genesis
    aliases: [gen]
    testament: old
    genre: law
  - name: Psalms
    aliases: [psalm, ps]
    testament: old
    genre: poetry
  - name: Matthew
    aliases: [matt]
    testament: new
    genre: gospel
  - name: John
    aliases: [jn]
    testament: new
    genre: gospel
typoCorrections:
  pslams: psalms
popularVerses: []
`

var benchWords = []string{
	"lord", "god", "faith", "love", "peace", "hope", "grace", "mercy",
	"heart", "spirit", "light", "truth", "anxious", "fear", "joy",
	"strength", "shepherd", "prayer", "righteous", "blessed", "glory",
	"wisdom", "trust", "comfort", "salvation", "heaven", "earth",
}

func benchTax(b *testing.B) *taxonomy.Taxonomy {
	b.Helper()
	path := filepath.Join(b.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(benchTaxonomy), 0o644); err != nil {
		b.Fatal(err)
	}
	tax, err := taxonomy.Load(path)
	if err != nil {
		b.Fatal(err)
	}
	return tax
}

// benchVerses generates n synthetic verses cycling through the taxonomy's
// books with deterministic word choices.
func benchVerses(n int) []corpus.Verse {
	books := []string{"Genesis", "Psalms", "Matthew", "John"}
	verses := make([]corpus.Verse, n)
	for i := 0; i < n; i++ {
		book := books[i%len(books)]
		chapter := i/len(books)%50 + 1
		verse := i%30 + 1
		var sb strings.Builder
		for w := 0; w < 12; w++ {
			if w > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(benchWords[(i*7+w*3)%len(benchWords)])
		}
		verses[i] = corpus.Verse{
			Book:    book,
			Chapter: chapter,
			Verse:   verse,
			Text:    sb.String(),
			ID:      corpus.VerseID(book, chapter, verse),
		}
	}
	return verses
}

func benchArtifacts(b *testing.B, n int) (*index.Artifacts, *taxonomy.Taxonomy) {
	b.Helper()
	tax := benchTax(b)
	cfg := config.BuilderConfig{BatchSize: 100, Workers: 4}
	artifacts, err := builder.New(cfg, tax, nil).Build(context.Background(), benchVerses(n))
	if err != nil {
		b.Fatal(err)
	}
	return artifacts, tax
}

// BenchmarkInvertedIndexAdd measures per-posting insert throughput.
func BenchmarkInvertedIndexAdd(b *testing.B) {
	inv := index.NewInvertedIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		term := benchWords[i%len(benchWords)]
		verseID := fmt.Sprintf("bench-%d-%d", i/30+1, i%30+1)
		inv.Add(term, verseID, []int{i % 12})
	}
}

// BenchmarkInvertedIndexLookup measures single-term lookup latency over a
// populated index.
func BenchmarkInvertedIndexLookup(b *testing.B) {
	artifacts, _ := benchArtifacts(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entry := artifacts.Inverted.Lookup(benchWords[i%len(benchWords)])
		_ = entry
	}
}

// BenchmarkTrieInsert measures trie insert cost including per-node
// suggestion-list maintenance.
func BenchmarkTrieInsert(b *testing.B) {
	trie := index.NewTrie()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trie.Insert(benchWords[i%len(benchWords)], uint64(i%100))
	}
}

// BenchmarkTrieSuggest measures prefix lookup against precomputed
// suggestion lists.
func BenchmarkTrieSuggest(b *testing.B) {
	artifacts, _ := benchArtifacts(b, 5000)
	prefixes := []string{"fa", "lo", "pe", "sh", "an"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		got := artifacts.Trie.Suggest(prefixes[i%len(prefixes)], 10)
		_ = got
	}
}

// BenchmarkBuild measures full artifact builds at various corpus sizes.
func BenchmarkBuild(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("verses_%d", n), func(b *testing.B) {
			tax := benchTax(b)
			verses := benchVerses(n)
			cfg := config.BuilderConfig{BatchSize: 100, Workers: 4}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				artifacts, err := builder.New(cfg, tax, nil).Build(context.Background(), verses)
				if err != nil {
					b.Fatal(err)
				}
				_ = artifacts
			}
		})
	}
}
