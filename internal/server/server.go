package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/panecast/panecast/internal/api/v1"
	"github.com/panecast/panecast/internal/api/ws"
	"github.com/panecast/panecast/internal/config"
	"github.com/panecast/panecast/internal/server/middleware"
	"github.com/panecast/panecast/internal/store/postgres"
	redisstore "github.com/panecast/panecast/internal/store/redis"
)

// Server is the HTTP server that wires the relay lifecycle API and the
// live WebSocket relay. It holds no session state of its own; all
// lifecycle decisions belong to the callers of the API.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	wsHub      *ws.Hub
}

// New creates a Server with all routes wired.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, engine v1.StreamEngine) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	hub := ws.NewHub(pubsub)

	s := &Server{
		router: router,
		wsHub:  hub,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Lifecycle API. Snapshot capture shells out to tmux per request, so
	// it carries a per-IP rate limit.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, 50, 100))

		apiConfig := huma.DefaultConfig("Panecast API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		v1.RegisterStreamRoutes(api, store, engine)
	})

	// WebSocket routes for the live feeds.
	router.Route("/ws", func(r chi.Router) {
		r.Get("/streams/{sessionID}", hub.ServeStream)
		r.Get("/streams/{sessionID}/snapshots", hub.ServeSnapshots)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
