// Package kafka publishes backup events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/memvault/pkg/eventstream"
)

// ErrNoBrokers is returned when the publisher is configured without brokers.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Publisher writes one message per backup run, keyed by repository root so
// events for one repository stay ordered within a partition.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithWriter replaces the underlying Kafka writer.
func WithWriter(w MessageWriter) Option {
	return func(p *Publisher) {
		p.writer = w
	}
}

// NewPublisher creates a Kafka publisher for cfg.
func NewPublisher(cfg Config, opts ...Option) (*Publisher, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	p := &Publisher{timeout: cfg.WriteTimeout}
	if p.timeout <= 0 {
		p.timeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.writer == nil {
		if len(cfg.Brokers) == 0 {
			return nil, ErrNoBrokers
		}
		p.writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           p.timeout,
		}
	}

	return p, nil
}

// PublishBackup encodes event as JSON and writes it to the topic.
func (p *Publisher) PublishBackup(ctx context.Context, event *eventstream.BackupCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilBackupEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding backup event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.Source.RepositoryRoot),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing backup event %s: %w", event.EventID, err)
	}

	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
