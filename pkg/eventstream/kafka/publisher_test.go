package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/memvault/pkg/eventstream"
	"github.com/papercomputeco/memvault/pkg/eventstream/kafka"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
		event  *eventstream.BackupCompletedEvent
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		var err error
		pub, err = kafka.NewPublisher(kafka.Config{Topic: "memvault.backups"}, kafka.WithWriter(writer))
		Expect(err).NotTo(HaveOccurred())

		event = &eventstream.BackupCompletedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeBackupCompleted,
			EventID:       "evt_1",
			EmittedAt:     time.Unix(1735689600, 0).UTC(),
			Source:        eventstream.EventSource{RepositoryRoot: "/srv/memory"},
			Run:           eventstream.RunMeta{RunID: "run_1", Outcome: "synced"},
		}
	})

	It("requires a topic", func() {
		_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(HaveOccurred())
	})

	It("requires brokers when no writer is injected", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
		Expect(err).To(MatchError(kafka.ErrNoBrokers))
	})

	It("builds a real writer from brokers", func() {
		p, err := kafka.NewPublisher(kafka.Config{Topic: "t", Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("rejects nil events", func() {
		Expect(pub.PublishBackup(context.Background(), nil)).To(MatchError(eventstream.ErrNilBackupEvent))
	})

	It("writes one JSON message keyed by repository root", func() {
		Expect(pub.PublishBackup(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("/srv/memory"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{
			Key: "event_type", Value: []byte(eventstream.EventTypeBackupCompleted),
		}))

		var got eventstream.BackupCompletedEvent
		Expect(json.Unmarshal(msg.Value, &got)).To(Succeed())
		Expect(got.Run.RunID).To(Equal("run_1"))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker down")
		err := pub.PublishBackup(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("evt_1")))
		Expect(errors.Is(err, writer.err)).To(BeTrue())
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
