package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals BackupCompletedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.BackupCompletedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeBackupCompleted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source: eventstream.EventSource{
				Host:           "nas",
				RepositoryRoot: "/srv/memory",
				Remote:         "origin",
				Branch:         "main",
			},
			Run: eventstream.RunMeta{
				RunID:       "run_1",
				Outcome:     "synced",
				StartedAt:   now.Add(-2 * time.Second),
				CompletedAt: now,
				DurationMs:  2000,
			},
			Snapshot: eventstream.SnapshotMeta{
				Filename:      "backup-2025-01-01T00-00-00-000Z.json",
				EntityCount:   3,
				RelationCount: 1,
			},
			Git: eventstream.GitMeta{
				Committed:    true,
				Pushed:       true,
				PushAttempts: 1,
			},
			Retention: &eventstream.RetentionMeta{Deleted: 1, Remaining: 100},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("run"))
		Expect(got).To(HaveKey("snapshot"))
		Expect(got).To(HaveKey("git"))
		Expect(got).To(HaveKey("retention"))
	})

	It("omits retention when no pass ran", func() {
		payload, err := json.Marshal(eventstream.BackupCompletedEvent{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).NotTo(ContainSubstring("retention"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeBackupCompleted).To(Equal("memvault.backup.completed"))
	})

	It("provides ErrNilBackupEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilBackupEvent).To(MatchError("nil backup event"))
	})
})
