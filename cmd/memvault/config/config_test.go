package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memvault/cmd/memvault/config"
	"github.com/papercomputeco/memvault/pkg/config"
)

var _ = Describe("Config command", func() {
	var (
		configDir string
		out       bytes.Buffer
	)

	BeforeEach(func() {
		configDir = filepath.Join(GinkgoT().TempDir(), ".memvault")
		out.Reset()
	})

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "memvault", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(configcmder.NewConfigCmd())
		root.SetOut(&out)
		root.SetArgs(append([]string{"config", "--config-dir", configDir}, args...))
		return root.Execute()
	}

	It("has get, set and list subcommands", func() {
		names := []string{}
		for _, sub := range configcmder.NewConfigCmd().Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("get", "set", "list"))
	})

	Describe("set", func() {
		It("writes the value to config.toml", func() {
			Expect(execute("set", "git.remote", "backup")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("git.remote"))

			cfger, err := config.NewConfiger(configDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Git.Remote).To(Equal("backup"))
			Expect(cfg.Archive.MaxEntries).To(Equal(100))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "nope", "x")).To(MatchError(ContainSubstring(`unknown config key: "nope"`)))
		})

		It("rejects values that fail validation without writing", func() {
			Expect(execute("set", "git.push_attempts", "0")).To(MatchError(ContainSubstring("git.push_attempts must be at least 1")))
			_, err := os.Stat(filepath.Join(configDir, "config.toml"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("rejects malformed numbers", func() {
			Expect(execute("set", "archive.max_entries", "many")).To(HaveOccurred())
		})
	})

	Describe("get", func() {
		It("shows defaults for unset keys", func() {
			Expect(execute("get", "git.remote")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("origin"))
		})

		It("shows stored values", func() {
			Expect(execute("set", "archive.max_entries", "30")).To(Succeed())
			out.Reset()

			Expect(execute("get", "archive.max_entries")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("30"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "nope")).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("list", func() {
		It("prints every key", func() {
			Expect(execute("set", "events.topic", "memory")).To(Succeed())
			out.Reset()

			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`events.topic`))
			Expect(out.String()).To(ContainSubstring(`"memory"`))
			Expect(out.String()).To(ContainSubstring("Using config file:"))
		})
	})
})
