// Package archive manages the on-disk collection of memory graph snapshots:
// one pretty-printed JSON file per snapshot in a single directory, pruned to
// a fixed number of entries by modification time.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/logger"
	"github.com/papercomputeco/memvault/pkg/schema"
)

const (
	// DefaultMaxEntries is the retention cap used when none is configured.
	DefaultMaxEntries = 100

	snapshotExt    = ".json"
	snapshotPrefix = "backup-"
)

// Entry is one snapshot file in the archive.
type Entry struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	ModTime  time.Time `json:"modTime"`
	Size     int64     `json:"size"`
}

// RetentionResult reports what a retention pass did.
type RetentionResult struct {
	Deleted   int             `json:"deleted"`
	Total     int             `json:"total"`
	Remaining int             `json:"remaining"`
	Failures  []DeleteFailure `json:"failures,omitempty"`
}

// DeleteFailure records a snapshot that could not be removed.
type DeleteFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Stats describes the archive for status reporting.
type Stats struct {
	TotalSnapshots int       `json:"totalSnapshots"`
	MaxEntries     int       `json:"maxEntries"`
	Path           string    `json:"path"`
	Latest         string    `json:"latest,omitempty"`
	LatestModTime  time.Time `json:"latestModTime,omitzero"`
}

// Store reads and writes snapshots under a single directory.
type Store struct {
	dir        string
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger
	validator  *schema.Validator
	remove     func(string) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to name new snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for per-file retention failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithValidator sets the validator used when reading snapshots back.
func WithValidator(v *schema.Validator) Option {
	return func(s *Store) {
		s.validator = v
	}
}

// NewStore creates a Store rooted at dir. A maxEntries below one falls back
// to DefaultMaxEntries.
func NewStore(dir string, maxEntries int, opts ...Option) *Store {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}

	s := &Store{
		dir:        dir,
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     logger.Nop(),
		validator:  schema.NewValidator(),
		remove:     os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the archive directory.
func (s *Store) Dir() string {
	return s.dir
}

// MaxEntries returns the configured retention cap.
func (s *Store) MaxEntries() int {
	return s.maxEntries
}

// Filename returns the snapshot file name for a write at t, e.g.
// backup-2026-10-15T04-09-01-123Z.json.
func Filename(t time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(graph.FormatTimestamp(t))
	return snapshotPrefix + stamp + snapshotExt
}

// Write serializes g as pretty-printed JSON into the archive and returns the
// path written. The file is named from the current time unless filenameHint
// is set. Missing directories are created. The write goes through a
// temporary file and a rename so a crash never leaves a truncated snapshot.
func (s *Store) Write(g *graph.MemoryGraph, filenameHint string) (string, error) {
	name := filenameHint
	if name == "" {
		name = Filename(s.now())
	}
	if err := checkName(name); err != nil {
		return "", &IOError{Op: "write", Path: name, Err: err}
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: s.dir, Err: err}
	}

	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}

	return path, nil
}

// List returns every *.json file in the archive, newest modification time
// first. Equal times are ordered by file name, descending. A missing
// directory is an empty archive.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, &IOError{Op: "list", Path: s.dir, Err: err}
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != snapshotExt {
			continue
		}

		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}

		entries = append(entries, Entry{
			Filename: de.Name(),
			Path:     filepath.Join(s.dir, de.Name()),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Filename > entries[j].Filename
	})

	return entries, nil
}

// EnforceRetention deletes every snapshot past the newest maxEntries. A
// failed delete is recorded and logged and the pass carries on with the
// remaining files.
func (s *Store) EnforceRetention(maxEntries int) (*RetentionResult, error) {
	if maxEntries < 1 {
		return nil, fmt.Errorf("retention cap must be at least 1, got %d", maxEntries)
	}

	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	result := &RetentionResult{
		Total:     len(entries),
		Remaining: len(entries),
	}
	if len(entries) <= maxEntries {
		return result, nil
	}

	for _, entry := range entries[maxEntries:] {
		if err := s.remove(entry.Path); err != nil {
			s.logger.Warn("failed to delete old snapshot",
				"filename", entry.Filename,
				"error", err,
			)
			result.Failures = append(result.Failures, DeleteFailure{
				Filename: entry.Filename,
				Error:    err.Error(),
			})
			continue
		}

		s.logger.Debug("deleted old snapshot", "filename", entry.Filename)
		result.Deleted++
	}

	result.Remaining = result.Total - result.Deleted
	return result, nil
}

// Stats reports the snapshot count, cap and newest snapshot.
func (s *Store) Stats() (*Stats, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalSnapshots: len(entries),
		MaxEntries:     s.maxEntries,
		Path:           s.dir,
	}
	if len(entries) > 0 {
		stats.Latest = entries[0].Filename
		stats.LatestModTime = entries[0].ModTime
	}

	return stats, nil
}

// Read loads and validates the named snapshot.
func (s *Store) Read(name string) (*graph.MemoryGraph, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	return s.validator.Decode(data)
}

// Latest loads the newest snapshot. It returns fs.ErrNotExist when the
// archive is empty.
func (s *Store) Latest() (*graph.MemoryGraph, *Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("no snapshots in %s: %w", s.dir, fs.ErrNotExist)
	}

	g, err := s.Read(entries[0].Filename)
	if err != nil {
		return nil, nil, err
	}

	return g, &entries[0], nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if filepath.Ext(name) != snapshotExt {
		return fmt.Errorf("%w: %q must end in %s", ErrInvalidName, name, snapshotExt)
	}
	return nil
}
