// Package backup runs the memory backup pipeline: produce the graph, validate
// it, archive it, prune old snapshots and version the archive in git.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/eventstream"
	"github.com/papercomputeco/memvault/pkg/eventstream/nop"
	"github.com/papercomputeco/memvault/pkg/git"
	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/logger"
	"github.com/papercomputeco/memvault/pkg/metrics"
	"github.com/papercomputeco/memvault/pkg/producer"
	"github.com/papercomputeco/memvault/pkg/schema"
)

// DefaultCommitPrefix starts every backup commit message.
const DefaultCommitPrefix = "memory backup"

// Config controls a backup run.
type Config struct {
	// RepositoryRoot is the git work tree the archive lives in.
	RepositoryRoot string

	// ArchiveDir is the snapshot directory staged after each write.
	// Relative paths are resolved against RepositoryRoot. Defaults to the
	// store's directory.
	ArchiveDir string

	Remote       string
	Branch       string
	Retention    int
	Retry        git.RetryPolicy
	CommitPrefix string
}

func (c Config) withDefaults() Config {
	if c.Remote == "" {
		c.Remote = git.DefaultRemote
	}
	if c.Branch == "" {
		c.Branch = git.DefaultBranch
	}
	if c.Retention < 1 {
		c.Retention = archive.DefaultMaxEntries
	}
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = git.DefaultMaxAttempts
	}
	if c.Retry.Backoff <= 0 {
		c.Retry.Backoff = git.DefaultBackoff
	}
	if c.CommitPrefix == "" {
		c.CommitPrefix = DefaultCommitPrefix
	}
	return c
}

// Orchestrator runs backups one at a time.
type Orchestrator struct {
	config    Config
	producer  producer.Producer
	store     *archive.Store
	gateway   git.Gateway
	validator *schema.Validator
	publisher eventstream.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	last *Record
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithValidator replaces the default schema validator.
func WithValidator(v *schema.Validator) Option {
	return func(o *Orchestrator) {
		o.validator = v
	}
}

// WithPublisher sets where run events are published.
func WithPublisher(p eventstream.Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithMetrics sets the metrics the orchestrator records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the clock used for run timing and commit messages.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator.
func New(c Config, p producer.Producer, store *archive.Store, gw git.Gateway, opts ...Option) (*Orchestrator, error) {
	if p == nil {
		return nil, errors.New("producer is required")
	}
	if store == nil {
		return nil, errors.New("archive store is required")
	}
	if gw == nil {
		return nil, errors.New("git gateway is required")
	}

	o := &Orchestrator{
		config:    c.withDefaults(),
		producer:  p,
		store:     store,
		gateway:   gw,
		validator: schema.NewValidator(),
		publisher: nop.NewPublisher(),
		logger:    logger.Nop(),
		now:       time.Now,
	}
	if o.config.ArchiveDir == "" {
		o.config.ArchiveDir = store.Dir()
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.config
}

// Store returns the archive the orchestrator writes to.
func (o *Orchestrator) Store() *archive.Store {
	return o.store
}

// Last returns the record of the most recent run, or nil before the first.
func (o *Orchestrator) Last() *Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Run performs one backup. Overlapping calls wait for each other. On a
// fatal failure the partially filled record is returned with the error.
func (o *Orchestrator) Run(ctx context.Context) (*Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec := &Record{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	log := o.logger.With("run_id", rec.RunID)
	log.Info("backup started")

	err := o.run(ctx, log, rec)
	rec.CompletedAt = o.now()
	if err != nil {
		rec.Outcome = OutcomeFailed
		rec.Error = err.Error()
		log.Error("backup failed", "error", err, "duration", rec.Duration())
	} else {
		log.Info("backup finished",
			"outcome", rec.Outcome,
			"filename", rec.Filename,
			"duration", rec.Duration(),
		)
	}

	o.metrics.ObserveRun(string(rec.Outcome), rec.Duration(), rec.CompletedAt, rec.Filepath != "")
	o.publish(ctx, log, rec)
	o.last = rec

	return rec, err
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, rec *Record) error {
	g, err := o.producer.ProduceGraph(ctx)
	if err != nil {
		return &ExtractionError{Err: err}
	}
	if g == nil {
		return &ExtractionError{Err: errors.New("producer returned no graph")}
	}

	snapshot := g.Clone()
	if err := o.validator.ValidateGraph(snapshot); err != nil {
		return err
	}
	rec.EntityCount = len(snapshot.Entities)
	rec.RelationCount = len(snapshot.Relations)

	path, err := o.store.Write(snapshot, "")
	if err != nil {
		return err
	}
	rec.Filepath = path
	rec.Filename = filepath.Base(path)
	o.metrics.ObserveSnapshot(rec.EntityCount, rec.RelationCount)
	log.Info("snapshot written",
		"filename", rec.Filename,
		"entities", rec.EntityCount,
		"relations", rec.RelationCount,
	)

	retention, err := o.store.EnforceRetention(o.config.Retention)
	if err != nil {
		log.Warn("retention pass failed", "error", err)
	} else {
		rec.Retention = retention
		o.metrics.ObserveRetention(retention.Deleted, len(retention.Failures))
		if retention.Deleted > 0 {
			log.Info("pruned old snapshots", "deleted", retention.Deleted, "remaining", retention.Remaining)
		}
	}

	if err := o.gateway.Stage(ctx, o.pathspec()); err != nil {
		return err
	}

	commit, err := o.gateway.Commit(ctx, o.commitMessage(rec.StartedAt))
	if err != nil {
		return err
	}
	if commit.Skipped {
		rec.Skipped = true
		rec.SkippedReason = "nothing to commit"
		rec.Outcome = OutcomeCommitSkipped
		log.Info("nothing to commit, snapshot matches the last backup")
		return nil
	}
	rec.Committed = true

	push := o.gateway.PushWithRetry(ctx,
		git.RemoteRef{Remote: o.config.Remote, Branch: o.config.Branch},
		o.config.Retry,
	)
	rec.Attempts = push.Attempts
	rec.Pushed = push.Success
	o.metrics.ObservePush(push.Attempts)

	if !push.Success {
		rec.Outcome = OutcomeCommittedNotPushed
		rec.Warning = fmt.Sprintf("push failed after %d attempts: %v; %s", push.Attempts, push.LastErr, PushDeferredNote)
		log.Warn("push failed, "+PushDeferredNote,
			"remote", o.config.Remote,
			"branch", o.config.Branch,
			"attempts", push.Attempts,
			"error", push.LastErr,
		)
		return nil
	}

	rec.Outcome = OutcomeSynced
	return nil
}

// ResolveDir resolves a relative archive directory against the repository
// root.
func ResolveDir(root, dir string) string {
	if filepath.IsAbs(dir) || root == "" {
		return dir
	}
	return filepath.Join(root, dir)
}

// pathspec returns the archive directory relative to the repository root,
// falling back to the directory itself when it lies outside the root.
func (o *Orchestrator) pathspec() string {
	dir := ResolveDir(o.config.RepositoryRoot, o.config.ArchiveDir)
	if o.config.RepositoryRoot == "" {
		return dir
	}

	root, err := filepath.Abs(o.config.RepositoryRoot)
	if err != nil {
		return dir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dir
	}
	return filepath.ToSlash(rel)
}

func (o *Orchestrator) commitMessage(t time.Time) string {
	return o.config.CommitPrefix + " " + graph.FormatTimestamp(t)
}

func (o *Orchestrator) publish(ctx context.Context, log *slog.Logger, rec *Record) {
	host, _ := os.Hostname()

	event := &eventstream.BackupCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeBackupCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     o.now().UTC(),
		Source: eventstream.EventSource{
			Host:           host,
			RepositoryRoot: o.config.RepositoryRoot,
			Remote:         o.config.Remote,
			Branch:         o.config.Branch,
		},
		Run: eventstream.RunMeta{
			RunID:       rec.RunID,
			Outcome:     string(rec.Outcome),
			Error:       rec.Error,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
			DurationMs:  rec.Duration().Milliseconds(),
		},
		Snapshot: eventstream.SnapshotMeta{
			Filename:      rec.Filename,
			EntityCount:   rec.EntityCount,
			RelationCount: rec.RelationCount,
		},
		Git: eventstream.GitMeta{
			Committed:     rec.Committed,
			Pushed:        rec.Pushed,
			PushAttempts:  rec.Attempts,
			SkippedReason: rec.SkippedReason,
		},
	}
	if rec.Retention != nil {
		event.Retention = &eventstream.RetentionMeta{
			Deleted:   rec.Retention.Deleted,
			Remaining: rec.Retention.Remaining,
			Failures:  len(rec.Retention.Failures),
		}
	}

	if err := o.publisher.PublishBackup(ctx, event); err != nil {
		log.Warn("failed to publish backup event", "error", err)
	}
}
