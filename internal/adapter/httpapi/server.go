// Package httpapi exposes the query, overlay, import, and operational
// endpoints over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climascope/climate-grid-engine/internal/engine"
	"github.com/climascope/climate-grid-engine/internal/ingest"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
// The grid store's Ping satisfies it.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Importer runs a scoped import on demand. Satisfied by *ingest.Pipeline.
type Importer interface {
	Run(ctx context.Context, opts ingest.Options, progress ingest.ProgressSink) (ingest.Summary, error)
}

// Server exposes the climate API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	resolver   *engine.Resolver
	importer   Importer
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer wires the router. allowedOrigins configures CORS; empty
// disables cross-origin access.
func NewServer(addr string, resolver *engine.Resolver, importer Importer, ready ReadinessChecker, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		resolver: resolver,
		importer: importer,
		ready:    ready,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/climate", func(r chi.Router) {
			r.Post("/query", s.handleQuery)
			r.Post("/overlay", s.handleOverlay)
		})
		r.Get("/indicators", s.handleIndicators)
		r.Get("/stats", s.handleStats)
		r.Post("/admin/import", s.handleImport)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // live-tier resolution can wait on upstream fetches
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.resolver.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
