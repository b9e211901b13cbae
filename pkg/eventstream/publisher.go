package eventstream

import "context"

// Publisher publishes backup events to an event stream backend.
type Publisher interface {
	PublishBackup(ctx context.Context, event *BackupCompletedEvent) error
	Close() error
}
