package index

import (
	"fmt"
	"reflect"
	"testing"
)

// TestTrieSuggestOrdering verifies suggestions rank by frequency descending
// with lexicographic tie-breaks.
func TestTrieSuggestOrdering(t *testing.T) {
	tr := NewTrie()
	tr.Insert("faith", 50)
	tr.Insert("faithful", 20)
	tr.Insert("faithfulness", 20)
	tr.Insert("fair", 5)

	got := tr.Suggest("fai", 10)
	want := []string{"faith", "faithful", "faithfulness", "fair"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Suggest(fai) = %v, want %v", got, want)
	}
}

// TestTrieSuggestionCap checks no node holds more than MaxSuggestions
// entries and the kept entries are the highest-frequency ones.
func TestTrieSuggestionCap(t *testing.T) {
	tr := NewTrie()
	for i := 0; i < MaxSuggestions+5; i++ {
		tr.Insert(fmt.Sprintf("grace%02d", i), uint64(i))
	}

	got := tr.Suggest("gr", 0)
	if len(got) != MaxSuggestions {
		t.Fatalf("got %d suggestions, want %d", len(got), MaxSuggestions)
	}
	// Highest frequency was inserted last.
	if got[0] != fmt.Sprintf("grace%02d", MaxSuggestions+4) {
		t.Fatalf("top suggestion = %q, want highest-frequency term", got[0])
	}
	for _, n := range tr.Nodes {
		if len(n.Suggestions) > MaxSuggestions {
			t.Fatalf("node holds %d suggestions, cap is %d", len(n.Suggestions), MaxSuggestions)
		}
	}
}

// TestTrieShortPrefix verifies the two-character minimum.
func TestTrieShortPrefix(t *testing.T) {
	tr := NewTrie()
	tr.Insert("peace", 10)
	if got := tr.Suggest("p", 10); got != nil {
		t.Fatalf("Suggest(p) = %v, want nil for one-character prefix", got)
	}
	if got := tr.Suggest("pe", 10); len(got) != 1 || got[0] != "peace" {
		t.Fatalf("Suggest(pe) = %v, want [peace]", got)
	}
}

func TestTrieUnknownPrefix(t *testing.T) {
	tr := NewTrie()
	tr.Insert("mercy", 3)
	if got := tr.Suggest("zz", 10); got != nil {
		t.Fatalf("Suggest(zz) = %v, want nil", got)
	}
}

func TestTrieContains(t *testing.T) {
	tr := NewTrie()
	tr.Insert("salvation", 7)
	if !tr.Contains("salvation") {
		t.Error("expected Contains(salvation) to be true")
	}
	if tr.Contains("salva") {
		t.Error("prefix of an inserted term must not be contained")
	}
}

// TestTrieInsertIdempotent checks re-inserting a term does not duplicate
// suggestions or grow the arena.
func TestTrieInsertIdempotent(t *testing.T) {
	tr := NewTrie()
	tr.Insert("hope", 9)
	nodes := tr.Len()
	tr.Insert("hope", 9)
	if tr.Len() != nodes {
		t.Fatalf("arena grew from %d to %d on duplicate insert", nodes, tr.Len())
	}
	if got := tr.Suggest("ho", 10); len(got) != 1 {
		t.Fatalf("Suggest(ho) = %v, want a single entry", got)
	}
}
