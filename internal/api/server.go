// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/coinview/internal/api/handler/api"
	"github.com/newthinker/coinview/internal/api/handler/web"
	"github.com/newthinker/coinview/internal/api/middleware"
	"github.com/newthinker/coinview/internal/coinview"
	"github.com/newthinker/coinview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for coinview
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	deps       Dependencies
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	APIKey string

	MetricsEnabled bool
	MetricsPath    string
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	Fetcher coinview.Fetcher
	Builder *coinview.Builder
	Web     web.Options
	// Metrics is optional; nil disables instrumentation and /metrics.
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("coin fetcher is required")
	}
	if deps.Builder == nil {
		deps.Builder = coinview.NewBuilder(nil)
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
		deps:   deps,
	}

	// Set up routes
	if err := s.setupRoutes(cfg); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	mws := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(logger)}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}

	// The write timeout leaves room for the render wait on coin pages.
	writeTimeout := 15 * time.Second
	if w := deps.Web.RenderWait + 10*time.Second; w > writeTimeout {
		writeTimeout = w
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config) error {
	// Web UI routes
	webHandler, err := web.NewHandler(s.deps.Fetcher, s.deps.Builder, s.deps.Web, s.logger)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}
	if s.deps.Metrics != nil {
		webHandler.SetMetrics(s.deps.Metrics)
	}

	s.mux.HandleFunc("GET /{$}", webHandler.Home)
	s.mux.HandleFunc("GET /search", webHandler.Search)
	s.mux.HandleFunc("GET /coins/{coinId}", webHandler.Coin)

	// API routes
	coins := apihandler.NewCoinsHandler(s.deps.Fetcher, s.deps.Builder, s.deps.Web.RenderWait, s.logger)
	if s.deps.Metrics != nil {
		coins.SetStaleRecorder(s.deps.Metrics)
	}

	auth := middleware.APIKeyAuth(cfg.APIKey)
	s.mux.Handle("GET /api/v1/coins/{coinId}", auth(http.HandlerFunc(coins.Get)))
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if cfg.MetricsEnabled && s.deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
