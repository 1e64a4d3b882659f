// Package engine runs parsed queries against the loaded index artifacts.
// Retrieval strategies run in a fixed order, duplicate hits keep their
// maximum score, results are ranked then filtered then capped, and whole
// responses are cached. The engine only reads the artifacts; it is safe for
// concurrent use.
package engine

import (
	"time"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/query"
)

// SortOrder selects the ranking applied to results.
type SortOrder string

const (
	SortRelevance  SortOrder = "relevance"
	SortCanonical  SortOrder = "canonical"
	SortPopularity SortOrder = "popularity"
)

// FilterField names a filterable verse attribute.
type FilterField string

const (
	FilterBook      FilterField = "book"
	FilterTestament FilterField = "testament"
	FilterGenre     FilterField = "genre"
)

// Filter restricts results by one verse attribute. Negate inverts the match.
// Filters compose with AND semantics.
type Filter struct {
	Field  FilterField `json:"field"`
	Value  string      `json:"value"`
	Negate bool        `json:"negate,omitempty"`
}

// Options controls one search call. Zero values fall back to config defaults.
type Options struct {
	Limit    int       `json:"limit,omitempty"`
	MinScore float64   `json:"min_score,omitempty"`
	Sort     SortOrder `json:"sort,omitempty"`
	Filters  []Filter  `json:"filters,omitempty"`
	// SemanticFallback overrides the configured semantic-fallback default
	// for this call; nil means use the config value.
	SemanticFallback *bool `json:"semantic_fallback_enabled,omitempty"`
	Bypass           bool  `json:"-"` // skip the cache, for debugging
}

// HighlightKind distinguishes what a highlight matched.
type HighlightKind string

const (
	HighlightKeyword HighlightKind = "keyword"
	HighlightPhrase  HighlightKind = "phrase"
)

// Highlight marks one matched span in a verse's text. Offsets are byte
// offsets into Text, aligned to word boundaries, non-overlapping, sorted by
// Start.
type Highlight struct {
	Text  string        `json:"text"`
	Start int           `json:"start"`
	End   int           `json:"end"`
	Kind  HighlightKind `json:"kind"`
}

// Result is one scored verse.
type Result struct {
	VerseID    string      `json:"verse_id"`
	Book       string      `json:"book"`
	Chapter    int         `json:"chapter"`
	Verse      int         `json:"verse"`
	Text       string      `json:"text"`
	Score      float64     `json:"score"`
	Strategies []string    `json:"strategies,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`
}

// Stats describes how a response was produced.
type Stats struct {
	TotalResults   int           `json:"total_results"`
	SearchTime     time.Duration `json:"-"`
	SearchTimeMS   float64       `json:"search_time_ms"`
	CacheHit       bool          `json:"cache_hit"`
	StrategiesUsed []string      `json:"strategies_used,omitempty"`
	FiltersApplied int           `json:"filters_applied"`
}

// Response is a complete search response.
type Response struct {
	Query   *query.ParsedQuery `json:"query"`
	Results []Result           `json:"results"`
	Stats   Stats              `json:"stats"`
}

// strategy names used in stats and metrics labels.
const (
	strategyReference = "reference"
	strategySituation = "situation"
	strategyTopic     = "topic"
	strategyKeyword   = "keyword"
	strategySemantic  = "semantic"
)
