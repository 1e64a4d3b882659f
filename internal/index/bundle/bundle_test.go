package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	apperrors "github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/errors"
)

func testArtifacts() *index.Artifacts {
	a := &index.Artifacts{
		Inverted: index.NewInvertedIndex(),
		Trie:     index.NewTrie(),
		Concepts: index.NewConceptIndex(),
		Semantic: make(index.SemanticVectors),
		Verses:   index.NewVerseStore(),
	}
	a.Verses.Verses["john-3-16"] = &index.StoredVerse{
		ID: "john-3-16", Book: "John", Chapter: 3, Verse: 16,
		Text: "For God so loved the world.", NormalizedText: "for god so loved the world.",
		TokenCount: 3, Testament: "new", Genre: "gospel",
	}
	a.Verses.Order = []string{"john-3-16"}
	a.Inverted.Add("loved", "john-3-16", []int{1})
	a.Inverted.Add("world", "john-3-16", []int{2})
	a.Inverted.DocCount = 1
	a.Trie.Insert("loved", 1)
	a.Concepts.Add("love", "john-3-16")
	a.Concepts.Finalize()
	var vec index.Vector
	vec[0] = 1
	a.Semantic["john-3-16"] = vec
	return a
}

// TestBundleRoundTrip verifies a written bundle loads back identically.
func TestBundleRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bundle")
	src := testArtifacts()

	manifest, err := Write(dir, src)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if manifest.FormatVersion != FormatVersion || manifest.BundleID == "" {
		t.Fatalf("manifest = %+v, want format version and bundle id set", manifest)
	}
	if manifest.VerseCount != 1 || manifest.TermCount != 2 {
		t.Fatalf("manifest counts = %d/%d, want 1 verse, 2 terms", manifest.VerseCount, manifest.TermCount)
	}

	loaded, loadedManifest, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loadedManifest.BundleID != manifest.BundleID {
		t.Fatal("bundle id changed across round trip")
	}
	if !reflect.DeepEqual(loaded.Inverted, src.Inverted) {
		t.Error("inverted index differs after round trip")
	}
	if !reflect.DeepEqual(loaded.Concepts, src.Concepts) {
		t.Error("concept index differs after round trip")
	}
	if !reflect.DeepEqual(loaded.Semantic, src.Semantic) {
		t.Error("semantic vectors differ after round trip")
	}
	if !reflect.DeepEqual(loaded.Verses.Order, src.Verses.Order) {
		t.Error("canonical order differs after round trip")
	}
	if got := loaded.Trie.Suggest("lo", 10); len(got) != 1 || got[0] != "loved" {
		t.Errorf("trie Suggest(lo) after round trip = %v, want [loved]", got)
	}
}

// TestBundleReplacesPrior verifies writing over an existing bundle swaps it
// atomically and leaves no temp or parking directories behind.
func TestBundleReplacesPrior(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bundle")
	if _, err := Write(dir, testArtifacts()); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	second, err := Write(dir, testArtifacts())
	if err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	loaded, manifest, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if manifest.BundleID != second.BundleID {
		t.Fatal("expected the second bundle to be active")
	}
	if loaded.Verses.Len() != 1 {
		t.Fatalf("verses = %d, want 1", loaded.Verses.Len())
	}
	if _, err := os.Stat(dir + ".old"); !os.IsNotExist(err) {
		t.Error("parking directory left behind")
	}
}

// TestBundleDetectsCorruption verifies a flipped byte in an artifact file
// fails the digest check on load.
func TestBundleDetectsCorruption(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bundle")
	if _, err := Write(dir, testArtifacts()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	path := filepath.Join(dir, FileInverted)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err = Load(dir)
	if !errors.Is(err, apperrors.ErrBundleInvalid) {
		t.Fatalf("Load() error = %v, want ErrBundleInvalid", err)
	}
}

func TestBundleMissingManifest(t *testing.T) {
	_, _, err := Load(t.TempDir())
	if !errors.Is(err, apperrors.ErrBundleInvalid) {
		t.Fatalf("Load() error = %v, want ErrBundleInvalid", err)
	}
}

// TestBundleRejectsWrongVersion verifies a format version bump is fatal for
// older readers.
func TestBundleRejectsWrongVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bundle")
	if _, err := Write(dir, testArtifacts()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	mutated := strings.Replace(string(data), `"format_version": 1`, `"format_version": 99`, 1)
	if err := os.WriteFile(path, []byte(mutated), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err = Load(dir)
	if !errors.Is(err, apperrors.ErrBundleInvalid) {
		t.Fatalf("Load() error = %v, want ErrBundleInvalid", err)
	}
}

// TestBundleRejectsInvalidArtifacts verifies Write refuses an artifact set
// that fails validation.
func TestBundleRejectsInvalidArtifacts(t *testing.T) {
	a := testArtifacts()
	a.Inverted.Entries["loved"].Frequency = 42
	_, err := Write(filepath.Join(t.TempDir(), "bundle"), a)
	if !errors.Is(err, apperrors.ErrBundleWrite) {
		t.Fatalf("Write() error = %v, want ErrBundleWrite", err)
	}
}
