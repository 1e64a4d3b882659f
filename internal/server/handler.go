// Package server exposes the search service over HTTP: search, autocomplete,
// cache administration, and health probes.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/autocomplete"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/engine"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
)

// Handler holds the HTTP endpoints for the search service.
type Handler struct {
	engine   *engine.Engine
	suggest  *autocomplete.Service
	maxLimit int
	logger   *slog.Logger
}

// NewHandler wires the endpoint handler.
func NewHandler(eng *engine.Engine, suggest *autocomplete.Service, maxLimit int) *Handler {
	return &Handler{
		engine:   eng,
		suggest:  suggest,
		maxLimit: maxLimit,
		logger:   logger.WithComponent("http-handler"),
	}
}

// Search handles GET /api/v1/search. Filters arrive as repeated query
// params (book, testament, genre); a leading "-" negates one.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts, err := h.parseOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.engine.Search(ctx, q, opts)
	if err != nil {
		log.Error("search failed", "query", q, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	log.Info("search completed",
		"query", q,
		"type", resp.Query.Type,
		"total", resp.Stats.TotalResults,
		"returned", len(resp.Results),
		"cache_hit", resp.Stats.CacheHit,
		"latency_ms", resp.Stats.SearchTimeMS,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) parseOptions(r *http.Request) (engine.Options, error) {
	var opts engine.Options
	params := r.URL.Query()

	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, errBadParam("limit must be a positive integer")
		}
		if limit > h.maxLimit {
			limit = h.maxLimit
		}
		opts.Limit = limit
	}
	if scoreStr := params.Get("min_score"); scoreStr != "" {
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil || score < 0 || score > 1 {
			return opts, errBadParam("min_score must be between 0 and 1")
		}
		opts.MinScore = score
	}
	switch sort := params.Get("sort"); sort {
	case "", string(engine.SortRelevance):
		opts.Sort = engine.SortRelevance
	case string(engine.SortCanonical):
		opts.Sort = engine.SortCanonical
	case string(engine.SortPopularity):
		opts.Sort = engine.SortPopularity
	default:
		return opts, errBadParam("sort must be relevance, canonical, or popularity")
	}
	for _, field := range []engine.FilterField{engine.FilterBook, engine.FilterTestament, engine.FilterGenre} {
		for _, value := range params[string(field)] {
			negate := strings.HasPrefix(value, "-")
			value = strings.TrimPrefix(value, "-")
			if value == "" {
				return opts, errBadParam(string(field) + " filter value is empty")
			}
			opts.Filters = append(opts.Filters, engine.Filter{
				Field:  field,
				Value:  value,
				Negate: negate,
			})
		}
	}
	if fallbackStr := params.Get("semantic_fallback_enabled"); fallbackStr != "" {
		fallback, err := strconv.ParseBool(fallbackStr)
		if err != nil {
			return opts, errBadParam("semantic_fallback_enabled must be true or false")
		}
		opts.SemanticFallback = &fallback
	}
	if params.Get("nocache") == "1" {
		opts.Bypass = true
	}
	return opts, nil
}

type errBadParam string

func (e errBadParam) Error() string { return string(e) }

// Suggest handles GET /api/v1/suggest.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	if len(strings.TrimSpace(prefix)) < autocomplete.MinPrefixLen {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"prefix":      prefix,
			"suggestions": []string{},
		})
		return
	}
	max := index.MaxSuggestions
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		max = parsed
	}
	suggestions := h.suggest.Suggest(prefix, max)
	if suggestions == nil {
		suggestions = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"prefix":      prefix,
		"suggestions": suggestions,
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Cache()
	if c == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, c.Stats())
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Cache()
	if c == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	dropped := c.Invalidate()
	h.logger.Info("cache invalidated", "dropped", dropped)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "invalidated",
		"dropped": dropped,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
