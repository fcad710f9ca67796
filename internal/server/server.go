// Package server exposes geoproj engines over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pspoerri/geoproj/internal/config"
	"github.com/pspoerri/geoproj/internal/encode"
	"github.com/pspoerri/geoproj/internal/metrics"
	"github.com/pspoerri/geoproj/internal/registry"
)

const engineCacheSize = 256

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
	engines  *engineCache
	registry *registry.Static
}

// New builds the fiber app and registers all routes.
func New(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		engines:  newEngineCache(engineCacheSize),
		registry: registry.Default(),
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             64 * 1024 * 1024,
		AppName:               "geoproj",
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(m.Middleware())
	s.app.Use(requestid.New())
	s.app.Use(accessLog(logger))

	s.app.Get("/health", s.health)
	s.app.Get("/metrics", m.Handler())

	v1 := s.app.Group("/v1")
	v1.Post("/project", s.project)
	v1.Post("/convert", s.convert)
	v1.Get("/definition", s.definition)
	v1.Get("/crs", s.listCRS)
	v1.Get("/crs/:id", s.getCRS)
	v1.Get("/preview", s.preview)
	return s
}

// App returns the underlying fiber app, for tests and embedding.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on the configured address until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("server starting", slog.String("addr", s.cfg.Server.Addr))
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) encoder(format string) (encode.Encoder, error) {
	if format == "" {
		format = s.cfg.Preview.Format
	}
	return encode.NewEncoder(format, s.cfg.Preview.Quality)
}
