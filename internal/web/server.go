// Package web provides the JSON HTTP API for the recommender.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server is the HTTP server for the recommender API.
type Server struct {
	router          chi.Router
	server          *http.Server
	handlers        *Handlers
	log             *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handlers *Handlers, log *zap.Logger) *Server {
	router := chi.NewRouter()

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	s := &Server{
		router:          router,
		handlers:        handlers,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.Health)

	s.router.Post("/analyze-taste", s.handlers.AnalyzeTaste)
	s.router.Post("/recommendations", s.handlers.Recommendations)
	s.router.Post("/similar-tracks", s.handlers.SimilarTracks)
	s.router.Get("/vibe-name", s.handlers.VibeName)

	s.router.Post("/interactions", s.handlers.RecordInteraction)
	s.router.Get("/profile/{userID}", s.handlers.GetProfile)
	s.router.Post("/profile/{userID}/retrain", s.handlers.Retrain)

	s.router.Get("/auth/authorize", s.handlers.Authorize)
	s.router.Post("/auth/token", s.handlers.ExchangeToken)
	s.router.Post("/auth/refresh", s.handlers.RefreshToken)

	s.router.Get("/deezer/search", s.handlers.DeezerSearch)
	s.router.Get("/deezer/preview/{trackID}", s.handlers.DeezerPreview)
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
