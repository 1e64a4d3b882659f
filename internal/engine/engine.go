package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/engine/cache"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/query"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/tracing"
)

// Engine executes searches over a loaded artifact set.
type Engine struct {
	cfg       config.SearchConfig
	artifacts *index.Artifacts
	tax       *taxonomy.Taxonomy
	parser    *query.Parser
	features  *index.FeatureSchema
	cache     *cache.Cache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	popRank   map[string]int
}

// New wires an Engine. Cache and metrics may be nil.
func New(cfg config.SearchConfig, artifacts *index.Artifacts, tax *taxonomy.Taxonomy, c *cache.Cache, m *metrics.Metrics) *Engine {
	popRank := make(map[string]int, len(tax.PopularVerses))
	for i, id := range tax.PopularVerses {
		if _, ok := popRank[id]; !ok {
			popRank[id] = i
		}
	}
	return &Engine{
		cfg:       cfg,
		artifacts: artifacts,
		tax:       tax,
		parser:    query.New(tax),
		features:  index.NewFeatureSchema(tax),
		cache:     c,
		metrics:   m,
		logger:    logger.WithComponent("engine"),
		popRank:   popRank,
	}
}

// Parser exposes the engine's query parser, for handlers that only need
// classification.
func (e *Engine) Parser() *query.Parser {
	return e.parser
}

// Cache returns the result cache, or nil when caching is disabled.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Search parses and executes one query. The cache stores complete responses
// keyed on normalized query text plus options; a hit is returned with its
// stats restamped for this call.
func (e *Engine) Search(ctx context.Context, rawQuery string, opts Options) (*Response, error) {
	start := time.Now()
	pq := e.parser.Parse(rawQuery)
	opts = e.normalizeOptions(opts)
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(string(pq.Type)).Inc()
	}

	var (
		resp *Response
		hit  bool
		err  error
	)
	if e.cache != nil && !opts.Bypass {
		var v any
		v, hit, err = e.cache.GetOrCompute(cacheKey(pq.Normalized, opts), func() (any, error) {
			return e.run(ctx, pq, opts)
		})
		if err == nil {
			resp = v.(*Response)
		}
	} else {
		resp, err = e.run(ctx, pq, opts)
	}
	if err != nil {
		return nil, err
	}
	// GetOrCompute publishes the response before this call stamps its stats,
	// so the stored copy is shared either way. Always stamp a clone.
	clone := *resp
	resp = &clone

	elapsed := time.Since(start)
	resp.Stats.CacheHit = hit
	resp.Stats.SearchTime = elapsed
	resp.Stats.SearchTimeMS = float64(elapsed.Microseconds()) / 1000
	if e.metrics != nil {
		status := "miss"
		if hit {
			status = "hit"
		} else if e.cache == nil || opts.Bypass {
			status = "bypass"
		}
		e.metrics.SearchLatency.WithLabelValues(status).Observe(elapsed.Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(resp.Results)))
	}
	if e.cfg.QueryBudget > 0 && elapsed > e.cfg.QueryBudget {
		e.logger.Warn("query exceeded latency budget",
			"query", pq.Normalized,
			"type", pq.Type,
			"elapsed", elapsed,
			"budget", e.cfg.QueryBudget,
		)
	}
	return resp, nil
}

// run executes the retrieval strategies for an already-parsed query. Each
// strategy runs under a child span; the span tree is logged when a query
// blows its latency budget.
func (e *Engine) run(ctx context.Context, pq *query.ParsedQuery, opts Options) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, "search", logger.RequestID(ctx))
	span.SetAttr("query_type", string(pq.Type))
	defer func() {
		if elapsed := span.End(); e.cfg.QueryBudget > 0 && elapsed > e.cfg.QueryBudget {
			span.Log()
		}
	}()

	cs := make(candidateSet)
	var used []string
	record := func(name string) {
		used = append(used, name)
		if e.metrics != nil {
			e.metrics.StrategyRunsTotal.WithLabelValues(name).Inc()
		}
	}
	timed := func(name string, fn func()) {
		_, child := tracing.StartChildSpan(ctx, name)
		fn()
		child.End()
		child.SetAttr("candidates", len(cs))
	}

	if pq.Type == query.TypeVerseLookup && len(pq.References) > 0 {
		// An explicit reference is answered directly; nothing else runs.
		timed(strategyReference, func() { e.referenceStrategy(pq, cs) })
		record(strategyReference)
	} else {
		if len(pq.LifeSituations) > 0 {
			timed(strategySituation, func() {
				e.conceptStrategy(pq.LifeSituations, e.cfg.SituationWeight, strategySituation, cs)
			})
			record(strategySituation)
		}
		if len(pq.Topics) > 0 {
			timed(strategyTopic, func() {
				e.conceptStrategy(pq.Topics, e.cfg.TopicWeight, strategyTopic, cs)
			})
			record(strategyTopic)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(pq.Keywords) > 0 || len(pq.Phrases) > 0 {
			timed(strategyKeyword, func() { e.keywordStrategy(pq, cs) })
			record(strategyKeyword)
		}
		if *opts.SemanticFallback && len(cs) < semanticFallbackThreshold {
			before := len(cs)
			timed(strategySemantic, func() { e.semanticStrategy(pq, cs, e.cfg.MaxResults) })
			if len(cs) > before {
				record(strategySemantic)
			}
		}
	}
	e.applyExclusions(pq, cs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(cs))
	for verseID, c := range cs {
		if c.score < opts.MinScore {
			continue
		}
		sv := e.artifacts.Verses.Get(verseID)
		if sv == nil {
			continue
		}
		sort.Strings(c.strategies)
		results = append(results, Result{
			VerseID:    verseID,
			Book:       sv.Book,
			Chapter:    sv.Chapter,
			Verse:      sv.Verse,
			Text:       sv.Text,
			Score:      c.score,
			Strategies: c.strategies,
		})
	}

	e.rank(results, opts.Sort)
	results = e.applyFilters(results, opts.Filters)
	total := len(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	for i := range results {
		results[i].Highlights = buildHighlights(results[i].Text, pq)
	}

	sort.Strings(used)
	return &Response{
		Query:   pq,
		Results: results,
		Stats: Stats{
			TotalResults:   total,
			StrategiesUsed: used,
			FiltersApplied: len(opts.Filters),
		},
	}, nil
}

func (e *Engine) normalizeOptions(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	if opts.Limit > e.cfg.MaxResults {
		opts.Limit = e.cfg.MaxResults
	}
	if opts.MinScore <= 0 {
		opts.MinScore = e.cfg.MinScore
	}
	if opts.Sort == "" {
		opts.Sort = SortRelevance
	}
	if opts.SemanticFallback == nil {
		fallback := e.cfg.SemanticFallback
		opts.SemanticFallback = &fallback
	}
	return opts
}

// cacheKey derives a stable key from the normalized query and every
// result-shaping option.
func cacheKey(normalized string, opts Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%g|%s|%t", normalized, opts.Limit, opts.MinScore, opts.Sort, *opts.SemanticFallback)
	for _, f := range opts.Filters {
		fmt.Fprintf(h, "|%s=%s:%t", f.Field, f.Value, f.Negate)
	}
	return hex.EncodeToString(h.Sum(nil))
}
