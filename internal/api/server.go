// Package api provides the HTTP surface for the credit decision service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-finance/harrier/internal/credit"
	"github.com/opensource-finance/harrier/internal/domain"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server. The reader key guards all /api/v1
// routes; the admin key additionally guards rule replacement.
func NewServer(cfg domain.ServerConfig, auth domain.AuthConfig, service *credit.Service, repo domain.Repository, cache domain.Cache, bus domain.EventBus, version string) *Server {
	handler := NewHandler(service, repo, cache, bus, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no API key required)
	router.Get("/health", handler.Health)
	router.Get("/api/v1/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (key required)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyMiddleware(auth.APIKey))
		r.Use(RateLimitMiddleware(cache, cfg.RateLimitPerMinute))

		r.Post("/credit/check", handler.CheckCredit)
		r.Get("/credit/factors", handler.GetCreditFactors)
		r.Get("/credit/decisions/{id}", handler.GetDecision)
		r.Get("/clients/{id}/applications", handler.ListClientApplications)

		r.Get("/rules", handler.GetRules)

		// Rule replacement needs the admin key on top of the reader key
		r.With(AdminKeyMiddleware(auth.AdminAPIKey)).Put("/rules", handler.UpdateRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
