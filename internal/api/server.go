package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rgehrsitz/payoutgo/internal/calculation"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultConfig listens on :8080 with 30 second timeouts.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  Config
}

// NewServer creates a new API server.
func NewServer(cfg Config, engine *calculation.CalculationEngine, version string) *Server {
	handler := NewHandler(engine, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware(cfg.AllowedOrigins)) // CORS for browser clients
	router.Use(RecoverMiddleware)                  // Recover from panics
	router.Use(RequestIDMiddleware)                // Request IDs
	router.Use(TracingMiddleware)                  // OpenTelemetry spans
	router.Use(LoggingMiddleware)                  // Request logging
	router.Use(middleware.RealIP)                  // Extract real IP

	router.Get("/health", handler.Health)

	router.Route("/api/v1", func(r chi.Router) {
		// Pricing
		r.Post("/quote", handler.Quote)
		r.Post("/classify", handler.Classify)
		r.Post("/menu", handler.Menu)
		r.Post("/solve", handler.Solve)

		// Reference data
		r.Get("/funds", handler.Funds)
		r.Get("/minimum-pension", handler.MinimumPension)
		r.Get("/life-table/{sex}", handler.LifeTable)
		r.Get("/retirement-age", handler.RetirementAge)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start listens on the configured address. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
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
