// Package autocomplete serves prefix suggestions from the prebuilt trie.
// Suggestions were ranked at build time (frequency descending, ties
// alphabetical), so serving is a pure read with no per-request scoring.
package autocomplete

import (
	"strings"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/text"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
)

// MinPrefixLen is the shortest prefix that produces suggestions.
const MinPrefixLen = 2

// Service answers autocomplete lookups.
type Service struct {
	trie    *index.Trie
	metrics *metrics.Metrics
}

// New builds a Service over a loaded trie. Metrics may be nil.
func New(trie *index.Trie, m *metrics.Metrics) *Service {
	return &Service{trie: trie, metrics: m}
}

// Suggest returns up to max completions for the prefix, best first. Prefixes
// shorter than MinPrefixLen return nil.
func (s *Service) Suggest(prefix string, max int) []string {
	if s.metrics != nil {
		s.metrics.SuggestRequestsTotal.Inc()
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len([]rune(prefix)) < MinPrefixLen {
		return nil
	}
	if max <= 0 || max > index.MaxSuggestions {
		max = index.MaxSuggestions
	}
	return s.trie.Suggest(text.Normalize(prefix), max)
}
