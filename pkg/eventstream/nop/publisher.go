package nop

import (
	"context"

	"github.com/papercomputeco/memvault/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishBackup validates input and otherwise does nothing.
func (p *Publisher) PublishBackup(_ context.Context, event *eventstream.BackupCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilBackupEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
