package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/git"
)

// Runner triggers backup runs. *backup.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context) (*backup.Record, error)
	Last() *backup.Record
}

// Server is the API server for inspecting the archive and repository.
type Server struct {
	config  Config
	store   *archive.Store
	gateway git.Gateway
	runner  Runner
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The runner may be nil, in which case POST /v1/backups answers 503.
func NewServer(config Config, store *archive.Store, gateway git.Gateway, runner Runner, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		store:   store,
		gateway: gateway,
		runner:  runner,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/snapshots", s.handleListSnapshots)
	v1.Get("/snapshots/latest", s.handleLatestSnapshot)
	v1.Get("/snapshots/latest/search", s.handleSearchLatest)
	v1.Get("/snapshots/:name", s.handleGetSnapshot)
	v1.Get("/stats", s.handleStats)
	v1.Get("/status", s.handleStatus)
	v1.Post("/backups", s.handleTriggerBackup)
	v1.Get("/backups/last", s.handleLastBackup)

	if config.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
