package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeBackupCompleted is emitted after every backup run, successful or not.
	EventTypeBackupCompleted = "memvault.backup.completed"
)

// BackupCompletedEvent is a transport-neutral event payload for a finished
// backup run.
type BackupCompletedEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	Source        EventSource    `json:"source"`
	Run           RunMeta        `json:"run"`
	Snapshot      SnapshotMeta   `json:"snapshot"`
	Git           GitMeta        `json:"git"`
	Retention     *RetentionMeta `json:"retention,omitempty"`
}

// EventSource identifies the repository the backup was written to.
type EventSource struct {
	Host           string `json:"host,omitempty"`
	RepositoryRoot string `json:"repository_root"`
	Remote         string `json:"remote,omitempty"`
	Branch         string `json:"branch,omitempty"`
}

// RunMeta captures run lifecycle metadata.
type RunMeta struct {
	RunID       string    `json:"run_id"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// SnapshotMeta describes the snapshot file written by the run.
type SnapshotMeta struct {
	Filename      string `json:"filename,omitempty"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
}

// GitMeta captures what happened on the version control side.
type GitMeta struct {
	Committed     bool   `json:"committed"`
	Pushed        bool   `json:"pushed"`
	PushAttempts  int    `json:"push_attempts"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}

// RetentionMeta summarizes the retention pass.
type RetentionMeta struct {
	Deleted   int `json:"deleted"`
	Remaining int `json:"remaining"`
	Failures  int `json:"failures,omitempty"`
}
