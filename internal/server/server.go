// Package server exposes the catalog over a JSON and WebSocket HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/config"
	"github.com/nikbrunner/aidir/internal/model"
)

// Catalog is the read side of the catalog loader.
type Catalog interface {
	AllTools() []model.Tool
	PopularTools() []model.Tool
	FilterTools(query string, categories []string) []model.Tool
	ToolDetails(ctx context.Context, toolID string) (*model.Tool, error)
}

// SavedStore manages per-user saved tools.
type SavedStore interface {
	Save(ctx context.Context, userID, toolID string) error
	Remove(ctx context.Context, userID, toolID string) error
	List(ctx context.Context, userID string) ([]model.SavedTool, error)
}

// Params holds the server's dependencies.
type Params struct {
	Addr           string
	Catalog        Catalog
	Saved          SavedStore
	Hub            *Hub                  // optional, a private hub if nil
	Client         config.ClientConfig   // served by /api/config
	AllowedOrigins []string              // optional, any origin if empty
	Registerer     prometheus.Registerer // optional, DefaultRegisterer if nil
	Gatherer       prometheus.Gatherer   // optional, DefaultGatherer if nil
	Logger         *zap.Logger           // optional
}

// Server is the HTTP API.
type Server struct {
	addr    string
	catalog Catalog
	saved   SavedStore
	hub     *Hub
	client  config.ClientConfig
	logger  *zap.Logger
	metrics *httpMetrics
	router  chi.Router
}

// New creates a Server with its routes mounted.
func New(params Params) *Server {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")
	hub := params.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		addr:    params.Addr,
		catalog: params.Catalog,
		saved:   params.Saved,
		hub:     hub,
		client:  params.Client,
		logger:  logger,
		metrics: newHTTPMetrics(params.Registerer),
	}
	s.router = s.buildRouter(params.AllowedOrigins, gatherer)
	return s
}

func (s *Server) buildRouter(origins []string, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleClientConfig)
		r.Get("/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(s.metrics.middleware)
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/tools", s.handleListTools)
			r.Get("/tools/popular", s.handlePopular)
			r.Get("/tools/{id}", s.handleToolDetails)
			r.Get("/recommend", s.handleRecommend)
			r.Post("/recommend", s.handleRecommend)

			r.Route("/users/{uid}/saved", func(r chi.Router) {
				r.Get("/", s.handleListSaved)
				r.Put("/{toolID}", s.handleSave)
				r.Delete("/{toolID}", s.handleUnsave)
			})
		})
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the hub live clients are attached to.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", zap.String("addr", s.addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("api server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("api server stopped")
		return nil
	}
}
