// Package httpserver provides the HTTP REST API of the bibliomatch service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/localmatch"
	"github.com/helixir/bibliomatch-service/internal/observability"
)

// Reconciler runs the reconciliation pipeline.
type Reconciler interface {
	Reconcile(ctx context.Context, query string, criteria domain.QueryCriteria) (*domain.Reconciliation, error)
}

// LocalSearcher ranks the curated dataset.
type LocalSearcher interface {
	Search(q localmatch.Query, opts localmatch.Options) []domain.LocalMatch
	Len() int
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one reconciliation; zero leaves it to the client.
	RequestTimeout time.Duration
	// LocalOptions are the search defaults a request may override.
	LocalOptions localmatch.Options
}

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	reconciler   Reconciler
	local        LocalSearcher
	localOptions localmatch.Options
	timeout      time.Duration
	validate     *validator.Validate
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewServer creates the HTTP server. local may be nil when no dataset is
// configured; the local search endpoint then answers 503. metrics may be nil.
func NewServer(
	cfg Config,
	reconciler Reconciler,
	local LocalSearcher,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		reconciler:   reconciler,
		local:        local,
		localOptions: cfg.LocalOptions,
		timeout:      cfg.RequestTimeout,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		metrics:      metrics,
		logger:       logger.With().Str("component", "http-server").Logger(),
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)
	if s.localOptions.TopK <= 0 {
		s.localOptions = localmatch.DefaultOptions()
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1/references", func(r chi.Router) {
		r.Post("/local-search", s.localSearch)
		r.Post("/reconcile", s.reconcile)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports ready once the local dataset is loaded.
func (s *Server) readinessHandler(w http.ResponseWriter, _ *http.Request) {
	if s.local == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":        "not_ready",
			"local_dataset": "not_loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"local_dataset":      "loaded",
		"local_dataset_rows": s.local.Len(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorCode writes a JSON error response carrying a machine-readable code.
func writeErrorCode(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}
