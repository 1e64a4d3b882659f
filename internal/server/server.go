package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/health"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/middleware"
)

// Server is the HTTP front for the search service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the server with its full middleware chain and routes.
func New(cfg config.ServerConfig, handler *Handler, checker *health.Checker, m *metrics.Metrics) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", handler.Search)
	mux.HandleFunc("GET /api/v1/suggest", handler.Suggest)
	mux.HandleFunc("GET /api/v1/cache/stats", handler.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", handler.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var root http.Handler = mux
	if m != nil {
		root = middleware.Metrics(m)(root)
	}
	root = middleware.Timeout(cfg.WriteTimeout)(root)
	root = middleware.RequestID(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      root,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger.WithComponent("http-server"),
	}
}

// Handler returns the root handler with the full middleware chain, for
// serving through a test listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown or a listen error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
