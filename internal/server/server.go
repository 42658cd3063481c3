// Package server exposes turn processing and the safety/observability surface
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/brightling/companiond/internal/orchestrator"
	"github.com/brightling/companiond/internal/storage"
)

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	httpd  *http.Server
}

// New wires the middleware stack and routes. The orchestrator serves the
// chat entry point; the admin store serves read-only observability queries.
func New(port int, requestTimeout time.Duration, logger *slog.Logger, orch *orchestrator.Orchestrator, admin storage.AdminStore) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(requestTimeout))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "companiond")
	})

	h := &handlers{orch: orch, admin: admin, logger: logger}

	r.Get("/healthz", h.health)
	r.Post("/v1/chat", h.chat)
	r.Get("/v1/sessions/{sessionID}/history", h.history)
	r.Get("/v1/safety/violations", h.violations)
	r.Get("/v1/stats", h.stats)
	r.Get("/v1/search", h.search)

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
		httpd: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
	}
}

// Start serves until Shutdown is called or the listener fails. A graceful
// shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.httpd.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to drain, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpd.Shutdown(ctx)
}
