package archive_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/graph"
)

var baseTime = time.Date(2026, 10, 15, 4, 9, 1, 123_000_000, time.UTC)

func testGraph() *graph.MemoryGraph {
	return graph.New(
		[]graph.Entity{
			{Name: "Ann", EntityType: "person", Observations: []string{"uses a NAS"}},
			{Name: "memvault", EntityType: "system", Observations: []string{"pushes to git"}},
		},
		[]graph.Relation{{From: "Ann", To: "memvault", RelationType: "develops"}},
		"test", "", baseTime,
	)
}

// seed writes n snapshot files whose modification times increase by one
// minute, so backup-000.json is the oldest.
func seed(dir string, n int) {
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("backup-%03d.json", i))
		Expect(os.WriteFile(path, []byte("{}"), 0o644)).To(Succeed())
		mtime := baseTime.Add(time.Duration(i) * time.Minute)
		Expect(os.Chtimes(path, mtime, mtime)).To(Succeed())
	}
}

func filenames(entries []archive.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Filename)
	}
	return names
}

var _ = Describe("Filename", func() {
	It("replaces colons and dots in the timestamp", func() {
		Expect(archive.Filename(baseTime)).To(Equal("backup-2026-10-15T04-09-01-123Z.json"))
	})
})

var _ = Describe("Store", func() {
	var (
		dir   string
		store *archive.Store
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "backups", "memory")
		store = archive.NewStore(dir, 3, archive.WithClock(func() time.Time { return baseTime }))
	})

	Describe("Write", func() {
		It("creates missing directories and names the file from the clock", func() {
			path, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(dir, "backup-2026-10-15T04-09-01-123Z.json")))
			Expect(path).To(BeARegularFile())
		})

		It("writes pretty-printed JSON", func() {
			path, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(HavePrefix("{\n  \"timestamp\": \"2026-10-15T04:09:01.123Z\""))
			Expect(string(data)).To(HaveSuffix("}\n"))
		})

		It("honors a filename hint", func() {
			path, err := store.Write(testGraph(), "direct-test-backup.json")
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(path)).To(Equal("direct-test-backup.json"))
		})

		It("rejects hints that escape the archive", func() {
			_, err := store.Write(testGraph(), "../escape.json")
			var ioErr *archive.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(err).To(MatchError(archive.ErrInvalidName))
		})

		It("returns an IOError when the directory cannot be created", func() {
			blocker := filepath.Join(GinkgoT().TempDir(), "file")
			Expect(os.WriteFile(blocker, []byte("x"), 0o644)).To(Succeed())

			blocked := archive.NewStore(filepath.Join(blocker, "sub"), 3)
			_, err := blocked.Write(testGraph(), "")

			var ioErr *archive.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("mkdir"))
		})

		It("leaves no temporary files behind", func() {
			_, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())

			files, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))
		})
	})

	Describe("List", func() {
		It("returns an empty list when the directory does not exist", func() {
			entries, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("returns exactly the new entry right after a write", func() {
			_, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())

			entries, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Filename).To(ContainSubstring("2026-10-15T04-09-01-123Z"))
		})

		It("sorts newest first and ignores other files", func() {
			seed(dir, 4)
			Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)).To(Succeed())
			Expect(os.Mkdir(filepath.Join(dir, "nested.json"), 0o755)).To(Succeed())

			entries, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(filenames(entries)).To(Equal([]string{
				"backup-003.json", "backup-002.json", "backup-001.json", "backup-000.json",
			}))
		})
	})

	Describe("EnforceRetention", func() {
		It("deletes the oldest files beyond the cap", func() {
			seed(dir, 6)

			result, err := store.EnforceRetention(4)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(Equal(2))
			Expect(result.Total).To(Equal(6))
			Expect(result.Remaining).To(Equal(4))

			Expect(filepath.Join(dir, "backup-000.json")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, "backup-001.json")).NotTo(BeAnExistingFile())

			entries, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(filenames(entries)).To(Equal([]string{
				"backup-005.json", "backup-004.json", "backup-003.json", "backup-002.json",
			}))
		})

		It("deletes nothing when the archive is within the cap", func() {
			seed(dir, 3)

			result, err := store.EnforceRetention(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(Equal(0))
			Expect(result.Remaining).To(Equal(3))
		})

		It("keeps going when a single delete fails", func() {
			seed(dir, 5)
			archive.SetRemove(store, func(path string) error {
				if strings.HasSuffix(path, "backup-000.json") {
					return fs.ErrPermission
				}
				return os.Remove(path)
			})

			result, err := store.EnforceRetention(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(Equal(2))
			Expect(result.Remaining).To(Equal(3))
			Expect(result.Failures).To(HaveLen(1))
			Expect(result.Failures[0].Filename).To(Equal("backup-000.json"))
			Expect(filepath.Join(dir, "backup-000.json")).To(BeAnExistingFile())
			Expect(filepath.Join(dir, "backup-001.json")).NotTo(BeAnExistingFile())
		})

		It("rejects a cap below one", func() {
			_, err := store.EnforceRetention(0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Stats", func() {
		It("reports the newest file by modification time", func() {
			seed(dir, 3)
			// Make the lexically first file the newest.
			newest := baseTime.Add(time.Hour)
			Expect(os.Chtimes(filepath.Join(dir, "backup-000.json"), newest, newest)).To(Succeed())

			stats, err := store.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalSnapshots).To(Equal(3))
			Expect(stats.MaxEntries).To(Equal(3))
			Expect(stats.Path).To(Equal(dir))
			Expect(stats.Latest).To(Equal("backup-000.json"))
		})

		It("reports an empty archive", func() {
			stats, err := store.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalSnapshots).To(Equal(0))
			Expect(stats.Latest).To(BeEmpty())
		})
	})

	Describe("Read and Latest", func() {
		It("reads back a written snapshot equal to the original", func() {
			path, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())

			g, err := store.Read(filepath.Base(path))
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(Equal(testGraph()))
		})

		It("returns the newest snapshot", func() {
			_, err := store.Write(testGraph(), "")
			Expect(err).NotTo(HaveOccurred())

			g, entry, err := store.Latest()
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Filename).To(Equal(archive.Filename(baseTime)))
			Expect(g.Metadata.EntityCount).To(Equal(2))
		})

		It("reports an empty archive as not existing", func() {
			_, _, err := store.Latest()
			Expect(err).To(MatchError(fs.ErrNotExist))
		})

		It("rejects snapshots that fail validation", func() {
			seed(dir, 1)
			_, err := store.Read("backup-000.json")
			Expect(err).To(MatchError(ContainSubstring("missing required field")))
		})

		It("refuses path traversal", func() {
			_, err := store.Read("../../etc/passwd.json")
			Expect(err).To(MatchError(archive.ErrInvalidName))
		})
	})
})
