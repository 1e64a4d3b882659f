package index

import (
	"sort"
	"strings"
)

// MaxSuggestions bounds the per-node suggestion list.
const MaxSuggestions = 10

// Edge links a node to a child by rune. Edges are kept sorted by rune so
// traversal is a binary search instead of a map lookup per character.
type Edge struct {
	R    rune  `json:"r"`
	Node int32 `json:"n"`
}

// Node is a single trie node. Nodes live in the Trie's arena and refer to
// children by arena index, not by pointer.
type Node struct {
	Edges       []Edge   `json:"e,omitempty"`
	IsEnd       bool     `json:"w,omitempty"`
	Suggestions []string `json:"s,omitempty"`
	Frequency   uint64   `json:"f,omitempty"`
}

// Trie is the autocomplete prefix tree. Node 0 is the root. TermFreq holds
// the global frequency (resolved from the inverted index) of every inserted
// term, which orders the per-node suggestion lists.
type Trie struct {
	Nodes    []Node            `json:"nodes"`
	TermFreq map[string]uint64 `json:"term_freq"`
}

// NewTrie returns a trie containing only the root node.
func NewTrie() *Trie {
	return &Trie{
		Nodes:    make([]Node, 1),
		TermFreq: make(map[string]uint64),
	}
}

func (t *Trie) child(node int32, r rune) (int32, bool) {
	edges := t.Nodes[node].Edges
	i := sort.Search(len(edges), func(i int) bool { return edges[i].R >= r })
	if i < len(edges) && edges[i].R == r {
		return edges[i].Node, true
	}
	return 0, false
}

func (t *Trie) ensureChild(node int32, r rune) int32 {
	edges := t.Nodes[node].Edges
	i := sort.Search(len(edges), func(i int) bool { return edges[i].R >= r })
	if i < len(edges) && edges[i].R == r {
		return edges[i].Node
	}
	t.Nodes = append(t.Nodes, Node{})
	childIdx := int32(len(t.Nodes) - 1)
	edges = append(edges, Edge{})
	copy(edges[i+1:], edges[i:])
	edges[i] = Edge{R: r, Node: childIdx}
	t.Nodes[node].Edges = edges
	return childIdx
}

// Insert adds a term with its global frequency, updating the suggestion list
// of every prefix node along the path. Suggestion lists stay sorted by
// frequency descending, ties broken lexicographically, capped at
// MaxSuggestions entries.
func (t *Trie) Insert(term string, freq uint64) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	if old, ok := t.TermFreq[term]; !ok || freq > old {
		t.TermFreq[term] = freq
	}
	node := int32(0)
	for _, r := range term {
		node = t.ensureChild(node, r)
		t.updateSuggestions(node, term)
	}
	t.Nodes[node].IsEnd = true
	t.Nodes[node].Frequency = t.TermFreq[term]
}

func (t *Trie) updateSuggestions(node int32, term string) {
	n := &t.Nodes[node]
	for _, s := range n.Suggestions {
		if s == term {
			t.sortSuggestions(n)
			return
		}
	}
	n.Suggestions = append(n.Suggestions, term)
	t.sortSuggestions(n)
	if len(n.Suggestions) > MaxSuggestions {
		n.Suggestions = n.Suggestions[:MaxSuggestions]
	}
}

func (t *Trie) sortSuggestions(n *Node) {
	sort.SliceStable(n.Suggestions, func(i, j int) bool {
		fi, fj := t.TermFreq[n.Suggestions[i]], t.TermFreq[n.Suggestions[j]]
		if fi != fj {
			return fi > fj
		}
		return n.Suggestions[i] < n.Suggestions[j]
	})
}

// Walk returns the arena index of the node reached by prefix, if the path
// exists.
func (t *Trie) Walk(prefix string) (int32, bool) {
	node := int32(0)
	for _, r := range strings.ToLower(prefix) {
		next, ok := t.child(node, r)
		if !ok {
			return 0, false
		}
		node = next
	}
	return node, true
}

// Suggest returns up to max precomputed suggestions for the prefix. Prefixes
// shorter than two characters or with no matching path yield nil.
func (t *Trie) Suggest(prefix string, max int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len([]rune(prefix)) < 2 {
		return nil
	}
	node, ok := t.Walk(prefix)
	if !ok {
		return nil
	}
	suggestions := t.Nodes[node].Suggestions
	if max <= 0 || max > len(suggestions) {
		max = len(suggestions)
	}
	out := make([]string, max)
	copy(out, suggestions[:max])
	return out
}

// Contains reports whether the exact term was inserted.
func (t *Trie) Contains(term string) bool {
	node, ok := t.Walk(term)
	return ok && t.Nodes[node].IsEnd
}

// Len returns the number of nodes in the arena, root included.
func (t *Trie) Len() int {
	return len(t.Nodes)
}
