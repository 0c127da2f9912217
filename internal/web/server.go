package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/go-emotion-color/internal/clustering"
	"github.com/justestif/go-emotion-color/internal/history"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	TemplatesFS  fs.FS
	StaticFS     fs.FS
	Service      *history.Service
	HistoryLimit int
	Moods        clustering.MoodConfig
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	visitors  *VisitorStore
	handlers  *Handlers
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("history service is required")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}

	// Create template manager
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	visitors := NewVisitorStore()

	handlers := NewHandlers(cfg.Service, visitors, templates, HandlerConfig{
		HistoryLimit: cfg.HistoryLimit,
		Moods:        cfg.Moods,
	})

	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		visitors:  visitors,
		handlers:  handlers,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	// Static files
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.Post("/derive", s.handlers.Derive)
	s.router.Get("/history", s.handlers.History)
	s.router.Get("/moods", s.handlers.Moods)

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/derive", s.handlers.APIDerive)
		r.Post("/derive/batch", s.handlers.APIDeriveBatch)
		r.Post("/blend", s.handlers.APIBlend)
		r.Get("/derivations/{id}", s.handlers.APIGetDerivation)
	})

	s.router.Get("/healthz", s.handlers.Healthz)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("starting server", "url", "http://"+s.server.Addr)
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
		slog.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
