// Package tracing instruments the query pipeline with in-process spans. A
// root span covers one search; each retrieval strategy runs under a child.
// Span trees are only ever logged when a query overruns its latency budget,
// so the hot path pays for little more than two time.Now calls per span.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed stage of a query. Spans attached to the same request
// share its RequestID so slow-query logs can be joined with access logs.
type Span struct {
	Name      string
	RequestID string
	Started   time.Time
	Duration  time.Duration
	Attrs     map[string]any

	mu       sync.Mutex
	children []*Span
}

// StartSpan opens a root span for a request and stores it in the returned
// context so strategy code can hang children off it.
func StartSpan(ctx context.Context, name, requestID string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		RequestID: requestID,
		Started:   time.Now(),
		Attrs:     make(map[string]any),
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChildSpan opens a span under the one stored in ctx. Without a parent
// in ctx the child is still usable, just detached.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{
		Name:    name,
		Started: time.Now(),
		Attrs:   make(map[string]any),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		child.RequestID = parent.RequestID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// End stops the span's clock and returns the elapsed time.
func (s *Span) End() time.Duration {
	s.Duration = time.Since(s.Started)
	return s.Duration
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// Log emits the span and its subtree at warn level, one record per span.
// Meant for queries that blew their latency budget.
func (s *Span) Log() {
	s.logTree(0)
}

func (s *Span) logTree(depth int) {
	attrs := []any{
		"request_id", s.RequestID,
		"span", s.Name,
		"duration_ms", float64(s.Duration.Microseconds()) / 1000,
		"depth", depth,
	}
	s.mu.Lock()
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	children := s.children
	s.mu.Unlock()
	slog.Warn("slow query span", attrs...)

	for _, child := range children {
		child.logTree(depth + 1)
	}
}
