// Package app assembles memvault components from a resolved configuration.
// Commands and the API server share it so a backup triggered from any entry
// point runs through identical wiring.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/eventstream"
	"github.com/papercomputeco/memvault/pkg/eventstream/kafka"
	"github.com/papercomputeco/memvault/pkg/eventstream/nop"
	"github.com/papercomputeco/memvault/pkg/git"
	"github.com/papercomputeco/memvault/pkg/logger"
	"github.com/papercomputeco/memvault/pkg/metrics"
	"github.com/papercomputeco/memvault/pkg/producer"
	"github.com/papercomputeco/memvault/pkg/producer/jsonl"
	"github.com/papercomputeco/memvault/pkg/producer/mcp"
	"github.com/papercomputeco/memvault/pkg/schema"
)

// Producer provider names accepted in producer.provider.
const (
	ProviderJSONL = "jsonl"
	ProviderMCP   = "mcp"
)

// Event provider names accepted in events.provider.
const (
	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// ErrUnknownProvider is returned for a producer or events provider that has
// no implementation.
var ErrUnknownProvider = errors.New("unknown provider")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewLogger returns the CLI logger. Logs go to stderr so command output on
// stdout stays machine readable; terminals get the pretty handler.
func NewLogger(debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(IsTerminal(os.Stderr)),
		logger.WithWriter(os.Stderr),
	)
}

// NewServiceLogger returns the logger for long-running commands. With a
// logFile, every record is also appended to that file as JSON. The returned
// func closes the file.
func NewServiceLogger(debug bool, logFile string) (*slog.Logger, func() error, error) {
	log := NewLogger(debug)
	if logFile == "" {
		return log, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(debug),
		logger.WithWriter(f),
	)
	return logger.Multi(log, file), f.Close, nil
}

// LoadConfig resolves the configuration for cmd: registered flags, then
// MEMVAULT_* environment variables, then config.toml, then defaults. The
// result is validated.
func LoadConfig(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg := config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RepositoryRoot returns the absolute repository root from cfg.
func RepositoryRoot(cfg *config.Config) (string, error) {
	root, err := filepath.Abs(cfg.Git.RepositoryRoot)
	if err != nil {
		return "", fmt.Errorf("resolving repository root: %w", err)
	}
	return root, nil
}

// NewValidator returns the schema validator selected by cfg.
func NewValidator(cfg *config.Config) *schema.Validator {
	return schema.NewValidator(schema.WithReferentialIntegrity(cfg.Validation.ReferentialIntegrity))
}

// NewStore opens the archive under the repository root.
func NewStore(cfg *config.Config, log *slog.Logger) (*archive.Store, error) {
	root, err := RepositoryRoot(cfg)
	if err != nil {
		return nil, err
	}

	return archive.NewStore(
		backup.ResolveDir(root, cfg.Archive.Dir),
		int(cfg.Archive.MaxEntries),
		archive.WithLogger(log),
		archive.WithValidator(NewValidator(cfg)),
	), nil
}

// NewGateway returns a git client rooted at the repository root.
func NewGateway(cfg *config.Config, log *slog.Logger) (*git.Client, error) {
	root, err := RepositoryRoot(cfg)
	if err != nil {
		return nil, err
	}

	return git.NewClient(root,
		git.WithLogger(log),
		git.WithRemote(cfg.Git.Remote),
	), nil
}

// NewProducer returns the graph producer named by producer.provider.
func NewProducer(cfg *config.Config, log *slog.Logger) (producer.Producer, error) {
	switch cfg.Producer.Provider {
	case ProviderJSONL:
		return jsonl.New(cfg.Producer.Path, jsonl.WithLogger(log)), nil
	case ProviderMCP:
		p, err := mcp.New(mcp.Config{Command: cfg.Producer.Command}, mcp.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: producer %q", ErrUnknownProvider, cfg.Producer.Provider)
	}
}

// NewPublisher returns the event publisher named by events.provider.
func NewPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case EventsNop, "":
		return nop.NewPublisher(), nil
	case EventsKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			WriteTimeout: 10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: events %q", ErrUnknownProvider, cfg.Events.Provider)
	}
}

// Components is everything a backup run needs.
type Components struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        *archive.Store
	Gateway      *git.Client
	Producer     producer.Producer
	Publisher    eventstream.Publisher
	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics
	Orchestrator *backup.Orchestrator
}

// Build wires an orchestrator and its collaborators from cfg.
func Build(cfg *config.Config, log *slog.Logger) (*Components, error) {
	root, err := RepositoryRoot(cfg)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(cfg, log)
	if err != nil {
		return nil, err
	}

	gateway, err := NewGateway(cfg, log)
	if err != nil {
		return nil, err
	}

	p, err := NewProducer(cfg, log)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	orch, err := backup.New(backup.Config{
		RepositoryRoot: root,
		ArchiveDir:     cfg.Archive.Dir,
		Remote:         cfg.Git.Remote,
		Branch:         cfg.Git.Branch,
		Retention:      int(cfg.Archive.MaxEntries),
		Retry: git.RetryPolicy{
			MaxAttempts: int(cfg.Git.PushAttempts),
			Backoff:     time.Duration(cfg.Git.PushBackoffMs) * time.Millisecond,
		},
		CommitPrefix: cfg.Git.CommitPrefix,
	}, p, store, gateway,
		backup.WithLogger(log),
		backup.WithValidator(NewValidator(cfg)),
		backup.WithPublisher(publisher),
		backup.WithMetrics(m),
	)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	return &Components{
		Config:       cfg,
		Logger:       log,
		Store:        store,
		Gateway:      gateway,
		Producer:     p,
		Publisher:    publisher,
		Registry:     reg,
		Metrics:      m,
		Orchestrator: orch,
	}, nil
}

// Close releases the event publisher.
func (c *Components) Close() error {
	return c.Publisher.Close()
}
