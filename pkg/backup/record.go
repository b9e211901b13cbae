package backup

import (
	"time"

	"github.com/papercomputeco/memvault/pkg/archive"
)

// Outcome classifies how far a run got.
type Outcome string

const (
	// OutcomeSynced means the snapshot was committed and pushed.
	OutcomeSynced Outcome = "synced"

	// OutcomeCommittedNotPushed means every push attempt failed. The commit
	// stays local and the next run pushes it.
	OutcomeCommittedNotPushed Outcome = "committed_not_pushed"

	// OutcomeCommitSkipped means the snapshot matched what was already
	// committed.
	OutcomeCommitSkipped Outcome = "commit_skipped"

	// OutcomeFailed means a fatal stage failed.
	OutcomeFailed Outcome = "failed"
)

// PushDeferredNote is attached to runs whose push was exhausted.
const PushDeferredNote = "local backup preserved, will retry on next run"

// Record describes one backup run.
type Record struct {
	RunID         string                   `json:"runId"`
	Filename      string                   `json:"filename,omitempty"`
	Filepath      string                   `json:"filepath,omitempty"`
	EntityCount   int                      `json:"entityCount"`
	RelationCount int                      `json:"relationCount"`
	Committed     bool                     `json:"committed"`
	Skipped       bool                     `json:"skipped"`
	SkippedReason string                   `json:"skippedReason,omitempty"`
	Pushed        bool                     `json:"pushed"`
	Attempts      int                      `json:"attempts"`
	Retention     *archive.RetentionResult `json:"retention,omitempty"`
	Outcome       Outcome                  `json:"outcome"`
	Warning       string                   `json:"warning,omitempty"`
	Error         string                   `json:"error,omitempty"`
	StartedAt     time.Time                `json:"startedAt"`
	CompletedAt   time.Time                `json:"completedAt"`
}

// Duration returns how long the run took.
func (r *Record) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run reached a non-fatal terminal state.
// Exhausted pushes count as success.
func (r *Record) Succeeded() bool {
	return r.Outcome != OutcomeFailed
}
