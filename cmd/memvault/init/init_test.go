package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/memvault/cmd/memvault/init"
	"github.com/papercomputeco/memvault/pkg/config"
)

var _ = Describe("Init command", func() {
	var (
		dir string
		out bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out.Reset()

		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(os.Chdir, wd)
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	load := func() *config.Config {
		cfger, err := config.NewConfiger(filepath.Join(dir, ".memvault"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	It("creates .memvault with a default config", func() {
		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("preset local"))

		Expect(filepath.Join(dir, ".memvault", "config.toml")).To(BeARegularFile())
		cfg := load()
		defaults := config.NewDefaultConfig()
		Expect(cfg.Archive).To(Equal(defaults.Archive))
		Expect(cfg.Git).To(Equal(defaults.Git))
		Expect(cfg.Producer).To(Equal(defaults.Producer))
	})

	It("keeps an existing config without a preset", func() {
		Expect(execute()).To(Succeed())
		out.Reset()

		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})

	It("applies a preset over an existing config", func() {
		Expect(execute()).To(Succeed())
		out.Reset()

		Expect(execute("--preset", "mcp")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("preset mcp"))
		Expect(load().Producer.Provider).To(Equal("mcp"))
	})

	It("rejects unknown presets", func() {
		Expect(execute("--preset", "cloud")).To(MatchError(ContainSubstring("unknown preset")))
		Expect(filepath.Join(dir, ".memvault")).NotTo(BeADirectory())
	})
})
