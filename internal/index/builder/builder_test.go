package builder

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/corpus"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
)

const testTaxonomy = `
lifeSituations:
  - id: anxiety
    keywords: [anxious, worry, worried]
    verses: [philippians-4-6, matthew-6-34]
    relatedTopics: [peace]
theologicalConcepts:
  - id: love
    keywords: [love, loved]
    verses: [john-3-16]
characterTraits:
  - id: patience
    keywords: [patience, patient]
    verses: []
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
  - name: Philippians
    aliases: [phil]
    testament: new
    genre: epistle
typoCorrections:
  pslams: psalms
popularVerses: [john-3-16]
`

func testVerses() []corpus.Verse {
	mk := func(book string, chapter, verse int, text string) corpus.Verse {
		return corpus.Verse{
			Book:    book,
			Chapter: chapter,
			Verse:   verse,
			Text:    text,
			ID:      corpus.VerseID(book, chapter, verse),
		}
	}
	return []corpus.Verse{
		mk("Genesis", 1, 1, "In the beginning God created the heavens and the earth."),
		mk("Psalms", 23, 1, "The Lord is my shepherd; I shall not want."),
		mk("Psalms", 23, 2, "He makes me lie down in green pastures."),
		mk("Matthew", 6, 34, "Therefore do not be anxious about tomorrow."),
		mk("John", 3, 16, "For God so loved the world, that he gave his only Son."),
		mk("Philippians", 4, 6, "Do not be anxious about anything, but in everything by prayer let your requests be made known to God."),
	}
}

func testBuild(t *testing.T) (*index.Artifacts, *taxonomy.Taxonomy) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(testTaxonomy), 0o644); err != nil {
		t.Fatal(err)
	}
	tax, err := taxonomy.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.BuilderConfig{
		BatchSize:           2,
		Workers:             2,
		SoftMemoryThreshold: 64 * 1024 * 1024,
		HardMemoryThreshold: 128 * 1024 * 1024,
	}
	artifacts, err := New(cfg, tax, nil).Build(context.Background(), testVerses())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return artifacts, tax
}

// TestBuildPostings verifies tokenized terms land in the inverted index with
// the structural invariants intact.
func TestBuildPostings(t *testing.T) {
	artifacts, _ := testBuild(t)
	if err := artifacts.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	entry := artifacts.Inverted.Lookup("shepherd")
	if entry == nil {
		t.Fatal("expected postings for 'shepherd'")
	}
	if !reflect.DeepEqual(entry.VerseIDs, []string{"psalms-23-1"}) {
		t.Fatalf("shepherd postings = %v, want [psalms-23-1]", entry.VerseIDs)
	}

	// "anxious" occurs in two verses.
	if got := artifacts.Inverted.DocFreq("anxious"); got != 2 {
		t.Fatalf("DocFreq(anxious) = %d, want 2", got)
	}
	// Stop words never reach the index.
	if artifacts.Inverted.Lookup("the") != nil || artifacts.Inverted.Lookup("shall") != nil {
		t.Fatal("stop words must not be indexed")
	}
	if artifacts.Inverted.DocCount != len(testVerses()) {
		t.Fatalf("DocCount = %d, want %d", artifacts.Inverted.DocCount, len(testVerses()))
	}
}

// TestBuildConceptIndex checks both curated taxonomy verse lists and
// keyword-match discovery feed the concept index, sorted and deduplicated.
func TestBuildConceptIndex(t *testing.T) {
	artifacts, _ := testBuild(t)

	// philippians-4-6 is both curated and discovered via "anxious"; it must
	// appear once.
	want := []string{"matthew-6-34", "philippians-4-6"}
	if got := artifacts.Concepts.Lookup("anxiety"); !reflect.DeepEqual(got, want) {
		t.Fatalf("Lookup(anxiety) = %v, want %v", got, want)
	}
	// "loved" in John 3:16 maps to the love concept.
	if got := artifacts.Concepts.Lookup("love"); !reflect.DeepEqual(got, []string{"john-3-16"}) {
		t.Fatalf("Lookup(love) = %v, want [john-3-16]", got)
	}
}

// TestBuildCanonicalOrder verifies verse ordering follows the taxonomy book
// sequence, then chapter and verse.
func TestBuildCanonicalOrder(t *testing.T) {
	artifacts, _ := testBuild(t)
	want := []string{
		"genesis-1-1",
		"psalms-23-1",
		"psalms-23-2",
		"matthew-6-34",
		"john-3-16",
		"philippians-4-6",
	}
	if !reflect.DeepEqual(artifacts.Verses.Order, want) {
		t.Fatalf("Order = %v, want %v", artifacts.Verses.Order, want)
	}
}

// TestBuildTrieSeeds verifies the trie carries taxonomy keywords, book
// names, aliases, and typo variants.
func TestBuildTrieSeeds(t *testing.T) {
	artifacts, _ := testBuild(t)
	for _, term := range []string{"anxiety", "anxious", "psalms", "psalm", "pslams", "genesis"} {
		if !artifacts.Trie.Contains(term) {
			t.Errorf("trie missing term %q", term)
		}
	}
	got := artifacts.Trie.Suggest("anx", 10)
	if len(got) < 2 {
		t.Fatalf("Suggest(anx) = %v, want anxiety and anxious", got)
	}
}

// TestBuildStoredVerseMetadata verifies book metadata and derived fields
// reach the verse store.
func TestBuildStoredVerseMetadata(t *testing.T) {
	artifacts, _ := testBuild(t)
	sv := artifacts.Verses.Get("philippians-4-6")
	if sv == nil {
		t.Fatal("philippians-4-6 missing from store")
	}
	if sv.Testament != "new" || sv.Genre != "epistle" {
		t.Fatalf("metadata = %s/%s, want new/epistle", sv.Testament, sv.Genre)
	}
	if sv.TokenCount == 0 || len(sv.Keywords) == 0 {
		t.Fatalf("derived fields missing: tokens=%d keywords=%v", sv.TokenCount, sv.Keywords)
	}
	if _, ok := artifacts.Semantic["philippians-4-6"]; !ok {
		t.Fatal("semantic vector missing for philippians-4-6")
	}
}

// TestBuildDeterministic verifies two builds over the same input produce
// identical artifacts.
func TestBuildDeterministic(t *testing.T) {
	a1, _ := testBuild(t)
	a2, _ := testBuild(t)

	if !reflect.DeepEqual(a1.Inverted, a2.Inverted) {
		t.Error("inverted index differs across builds")
	}
	if !reflect.DeepEqual(a1.Verses.Order, a2.Verses.Order) {
		t.Error("canonical order differs across builds")
	}
	if !reflect.DeepEqual(a1.Concepts, a2.Concepts) {
		t.Error("concept index differs across builds")
	}
	if !reflect.DeepEqual(a1.Semantic, a2.Semantic) {
		t.Error("semantic vectors differ across builds")
	}
	if !reflect.DeepEqual(a1.Trie.Nodes, a2.Trie.Nodes) {
		t.Error("trie differs across builds")
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(testTaxonomy), 0o644); err != nil {
		t.Fatal(err)
	}
	tax, err := taxonomy.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.BuilderConfig{BatchSize: 10, Workers: 1}
	if _, err := New(cfg, tax, nil).Build(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
}

func TestBuildCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(testTaxonomy), 0o644); err != nil {
		t.Fatal(err)
	}
	tax, err := taxonomy.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.BuilderConfig{BatchSize: 1, Workers: 1}
	if _, err := New(cfg, tax, nil).Build(ctx, testVerses()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
