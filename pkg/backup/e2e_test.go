package backup_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/git"
	testutils "github.com/papercomputeco/memvault/pkg/utils/test"
)

var _ = Describe("Orchestrator against a real repository", Ordered, func() {
	var (
		ctx    context.Context
		repo   string
		remote string
		o      *backup.Orchestrator
	)

	gitIn := func(dir string, args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		Expect(err).NotTo(HaveOccurred(), string(out))
		return string(out)
	}

	BeforeAll(func() {
		if _, err := exec.LookPath("git"); err != nil {
			Skip("git binary not available")
		}

		ctx = context.Background()
		base := GinkgoT().TempDir()
		remote = filepath.Join(base, "remote.git")
		repo = filepath.Join(base, "repo")

		gitIn(base, "init", "--bare", "-b", "main", remote)
		gitIn(base, "init", "-b", "main", repo)
		gitIn(repo, "config", "user.email", "backup@example.com")
		gitIn(repo, "config", "user.name", "Backup Bot")
		gitIn(repo, "remote", "add", "origin", remote)

		prod := testutils.NewMockProducer()
		prod.Graph = testutils.NewTestGraph(fixedNow)

		archiveDir := filepath.Join(repo, "backups", "memory")
		store := archive.NewStore(archiveDir, 100, archive.WithClock(clock))

		var err error
		o, err = backup.New(backup.Config{
			RepositoryRoot: repo,
			Retry:          git.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond},
		}, prod, store, git.NewClient(repo), backup.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())
	})

	It("commits and pushes the first snapshot", func() {
		rec, err := o.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.EntityCount).To(Equal(2))
		Expect(rec.RelationCount).To(Equal(1))
		Expect(rec.Committed).To(BeTrue())
		Expect(rec.Pushed).To(BeTrue())
		Expect(rec.Outcome).To(Equal(backup.OutcomeSynced))

		Expect(gitIn(remote, "log", "--format=%s", "main")).To(ContainSubstring("memory backup 2026-10-15T04:09:01.123Z"))
	})

	It("skips the commit when the graph has not changed", func() {
		rec, err := o.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Committed).To(BeFalse())
		Expect(rec.Skipped).To(BeTrue())
		Expect(rec.Outcome).To(Equal(backup.OutcomeCommitSkipped))
	})
})
