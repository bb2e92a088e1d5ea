// Package api provides the read-only HTTP API over received pages.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pokesag/pokesag/internal/config"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// PageSource is the store operation the API needs.
type PageSource interface {
	Pages(ctx context.Context, plan query.Plan) ([]store.Message, error)
}

// Server represents the HTTP API server.
type Server struct {
	cfg         *config.Config
	source      PageSource
	planner     query.Planner
	logger      *slog.Logger
	router      chi.Router
	rateLimiter *RateLimiter

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewServer creates a new API server. source may be nil, in which case the
// page routes answer 503.
func NewServer(cfg *config.Config, source PageSource, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		source:  source,
		planner: query.NewPlanner(cfg.Client.PageSize),
		logger:  logger,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(chimw.Compress(5, "application/json"))

	r.Use(CORSMiddleware(CORSConfig{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         s.cfg.Server.CORSMaxAge,
	}))

	s.rateLimiter = NewRateLimiter(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst)
	r.Use(RateLimitMiddleware(s.rateLimiter))

	r.Get("/health", s.handleHealth)
	r.Get("/settings.json", s.handleSettings)
	r.Get("/hoverCodes.json", s.handleHoverCodes)

	// Each page route answers with and without a trailing slash. Slashes
	// are not stripped by middleware because chi would then route on the
	// decoded path and split queries containing %2F.
	getBoth(r, "/pages", s.handleLatest)
	getBoth(r, "/pages/{page}", s.handleLatest)
	getBoth(r, "/pages/search/{mode}/{q}", s.handleSearch)
	getBoth(r, "/pages/search/{mode}/{q}/{page}", s.handleSearch)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

func getBoth(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Get(pattern+"/", h)
}

// Start begins listening for HTTP requests. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := s.cfg.ListenAddr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("starting API server", "addr", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down API server")
	err := srv.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// loggerMiddleware logs HTTP requests.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
