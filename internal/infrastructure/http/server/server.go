// Package server provides the HTTP server for the JSON API
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/handlers"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/http/middleware"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/monitoring"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/security"
	"github.com/Aethermaxx/ChefCulina/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// compressionLevel is shared by gzip and brotli.
const compressionLevel = 5

// Options carries the optional collaborators of the router. A nil Metrics
// disables /metrics; a nil Limiter disables rate limiting.
type Options struct {
	Metrics *monitoring.MetricsCollector
	Health  *healthcheck.HealthCheck
	Limiter *security.KeyedLimiter
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.APIHandlers,
	auth middleware.Authenticator,
	opts Options,
) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("http"),
	}
	s.router = NewRouter(cfg, s.logger, h, auth, opts)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:           otelhttp.NewHandler(s.router, "chefculina"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// NewRouter builds the chi router with every API route.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.APIHandlers,
	auth middleware.Authenticator,
	opts Options,
) *chi.Mux {
	r := chi.NewRouter()

	healthPath := cfg.Monitoring.HealthCheckPath
	metricsPath := cfg.Monitoring.MetricsPath

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.HTTPMiddleware)
	}
	r.Use(middleware.Logger(logger, healthPath, metricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if cfg.Server.EnableCORS {
		r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	}
	if cfg.Server.EnableCompression {
		r.Use(middleware.Compress(compressionLevel))
	}
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}

	if opts.Health != nil && healthPath != "" {
		r.Get(healthPath, opts.Health.Handler())
		r.Get(healthPath+"/live", opts.Health.LivenessHandler())
	}
	if opts.Metrics != nil && cfg.Monitoring.EnableMetrics && metricsPath != "" {
		r.Handle(metricsPath, opts.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middleware.RateLimit(opts.Limiter, logger))
		}
		r.Use(middleware.JSONOnly(cfg.Server.MaxBodyBytes, logger))
		r.Use(middleware.Authenticate(auth, logger))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Post("/refresh", h.Refresh)
			r.Post("/social/{provider}", h.SocialLogin)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.Profile)
			r.Get("/restrictions", h.Restrictions)
			r.Post("/restrictions", h.AddRestriction)
			r.Delete("/restrictions/{index}", h.RemoveRestriction)
		})

		r.Get("/settings", h.Settings)
		r.Put("/settings", h.UpdateSettings)

		r.Post("/recipes/generate", h.GenerateRecipes)
		r.Post("/recipes/image", h.GenerateImage)
		r.Post("/ingredients/analyze", h.AnalyzeIngredients)
		r.Get("/inspiration", h.Inspiration)

		r.Route("/cookbook", func(r chi.Router) {
			r.Get("/", h.ListCookbook)
			r.Put("/", h.SaveRecipe)
			r.Get("/facets", h.Facets)
			r.Post("/cooked", h.MarkCooked)
			r.Get("/{id}", h.GetRecipe)
			r.Delete("/{id}", h.DeleteRecipe)
		})

		r.Post("/share", h.CreateShare)
		r.Get("/share", h.OpenShare)
	})

	return r
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
