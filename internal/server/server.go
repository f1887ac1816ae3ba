// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"locbook/internal/config"
	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
	"locbook/internal/metrics"
	"locbook/internal/server/handlers"
)

// Dependencies are the services the routes are built on
type Dependencies struct {
	Places    place.Service
	Config    siteconfig.Service
	Discovery handlers.Discovery
	// NATS may be nil; the event stream then answers 503
	NATS      *nats.Conn
	ImagesDir string
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, admin config.AdminConfig, deps Dependencies) *Server {
	router := NewRouter(cfg, admin, deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, admin config.AdminConfig, deps Dependencies) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", AdminTokenHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler dependencies
	placeHandler := handlers.NewPlaceHandler(deps.Places)
	configHandler := handlers.NewConfigHandler(deps.Config)
	discoverHandler := handlers.NewDiscoverHandler(deps.Discovery)

	requireAdmin := RequireAdmin(admin.Token)
	limitWrites := RateLimitByIP(admin.RateLimit, admin.RateLimitWindow)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", handlers.Health)

		r.Route("/places", func(r chi.Router) {
			r.Get("/", placeHandler.ListPlaces)
			r.Get("/{id}", placeHandler.GetPlace)

			r.Group(func(r chi.Router) {
				r.Use(limitWrites, requireAdmin)
				r.Post("/", placeHandler.CreatePlace)
				r.Put("/{id}", placeHandler.UpdatePlace)
				r.Delete("/{id}", placeHandler.DeletePlace)
			})
		})

		r.Get("/stats", placeHandler.GetStats)

		r.Route("/config", func(r chi.Router) {
			r.Get("/", configHandler.GetConfig)
			r.With(limitWrites, requireAdmin).Put("/", configHandler.PutConfig)
		})

		r.Route("/discover", func(r chi.Router) {
			r.Get("/home", discoverHandler.Home)
			r.Get("/search", discoverHandler.Search)
		})
	})

	// WebSocket endpoint for change notifications
	router.Get("/ws/events", handlers.EventsWebSocketHandler(deps.NATS, handlers.DefaultWebSocketConfig()))

	if deps.ImagesDir != "" {
		images := http.StripPrefix("/images/", http.FileServer(http.Dir(deps.ImagesDir)))
		router.Get("/images/*", images.ServeHTTP)
	}

	router.Handle("/metrics", promhttp.Handler())

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
