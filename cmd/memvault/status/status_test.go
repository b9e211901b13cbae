package statuscmder_test

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	statuscmder "github.com/papercomputeco/memvault/cmd/memvault/status"
	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/dotdir"
	"github.com/papercomputeco/memvault/pkg/git"
)

var _ = Describe("Report", func() {
	var (
		info  *git.Info
		stats *archive.Stats
	)

	BeforeEach(func() {
		info = &git.Info{
			Branch:           "main",
			Remote:           "git@example.com:notes.git",
			LastCommit:       "abc1234 - memory backup 2024-05-01T12:00:00.000Z (Backup Bot, 2 hours ago)",
			WorkingDirectory: "/srv/notes",
		}
		stats = &archive.Stats{
			TotalSnapshots: 3,
			MaxEntries:     100,
			Path:           "/srv/notes/backups/memory",
			Latest:         "backup-2024-05-01T12-00-00-000Z.json",
			LatestModTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
	})

	It("includes repository and archive details", func() {
		report := statuscmder.Report(info, &git.Status{}, stats, nil)
		Expect(report).To(ContainSubstring("**Branch:** main"))
		Expect(report).To(ContainSubstring("git@example.com:notes.git"))
		Expect(report).To(ContainSubstring("**Snapshots:** 3 of 100"))
		Expect(report).To(ContainSubstring("backup-2024-05-01T12-00-00-000Z.json (2024-05-01T12:00:00Z)"))
		Expect(report).To(ContainSubstring("Clean."))
		Expect(report).To(ContainSubstring("No backup recorded."))
	})

	It("lists uncommitted changes", func() {
		status := &git.Status{
			HasChanges: true,
			Changes:    []git.Change{{Code: "??", Path: "backups/memory/new.json"}},
		}
		report := statuscmder.Report(info, status, stats, nil)
		Expect(report).To(ContainSubstring("- `??` backups/memory/new.json"))
	})

	It("notes when git status is unavailable", func() {
		report := statuscmder.Report(info, nil, stats, nil)
		Expect(report).To(ContainSubstring("Not a git repository."))
	})

	It("shows the last run with its warning", func() {
		report := statuscmder.Report(info, &git.Status{}, stats, &dotdir.LastRun{
			RunID:       "run-1",
			Outcome:     "committed_not_pushed",
			Filename:    "backup-x.json",
			Warning:     "local backup preserved, will retry on next run",
			CompletedAt: time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC),
		})
		Expect(report).To(ContainSubstring("**Outcome:** committed_not_pushed"))
		Expect(report).To(ContainSubstring("**Warning:** local backup preserved"))
	})
})

var _ = Describe("Status command execution", func() {
	It("reports an empty archive outside a repository", func() {
		base := GinkgoT().TempDir()

		var out bytes.Buffer
		root := &cobra.Command{Use: "memvault", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(statuscmder.NewStatusCmd())
		root.SetOut(&out)
		root.SetArgs([]string{"status", "--raw", "--config-dir", base, "--repo", base})

		Expect(root.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("# memvault status"))
		Expect(out.String()).To(ContainSubstring("**Snapshots:** 0 of 100"))
		Expect(out.String()).To(ContainSubstring("**Latest:** none"))
	})
})
