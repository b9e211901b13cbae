package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/dotdir"
)

// isolate moves into an empty working directory with HOME pointing at it, so
// no real .memvault directory is discovered.
func isolate(dir string) {
	origDir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(func() { _ = os.Chdir(origDir) })

	GinkgoT().Setenv("HOME", dir)
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("returns the override dir even when a local .memvault dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".memvault"), 0o755)).To(Succeed())
			isolate(tmpDir)

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .memvault dir when it exists", func() {
			local := filepath.Join(tmpDir, ".memvault")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			isolate(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to the home .memvault dir", func() {
			work := filepath.Join(tmpDir, "work")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())
			isolate(work)

			home := filepath.Join(tmpDir, "home")
			global := filepath.Join(home, ".memvault")
			Expect(os.MkdirAll(global, 0o755)).To(Succeed())
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(global))
		})

		It("returns empty string when no directory is found", func() {
			isolate(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})

	Describe("Init", func() {
		It("creates .memvault under the parent", func() {
			result, err := m.Init(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(tmpDir, ".memvault")))
			Expect(result).To(BeADirectory())
		})

		It("is idempotent", func() {
			_, err := m.Init(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Init(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
