package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lastRunFile = "last_run.json"
)

// LastRun is the persisted summary of the most recent backup run, shown by
// `memvault status`.
type LastRun struct {
	RunID       string    `json:"runId"`
	Outcome     string    `json:"outcome"`
	Filename    string    `json:"filename,omitempty"`
	Warning     string    `json:"warning,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// LoadLastRun loads .memvault/last_run.json from the target directory.
// Returns nil, nil if no run has been recorded.
func (m *Manager) LoadLastRun(overrideDir string) (*LastRun, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	run := &LastRun{}
	if err := json.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("parsing last run: %w", err)
	}

	return run, nil
}

// SaveLastRun persists run to the target .memvault/last_run.json. It is a
// no-op when no .memvault/ directory is resolved.
func (m *Manager) SaveLastRun(run *LastRun, overrideDir string) error {
	if run == nil {
		return errors.New("cannot save nil run")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last run: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastRunFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}

	return nil
}
