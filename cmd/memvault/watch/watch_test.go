package watchcmder_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	watchcmder "github.com/papercomputeco/memvault/cmd/memvault/watch"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/watch"
)

var _ = Describe("Watch command", func() {
	Describe("Options.WatchFile", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.NewDefaultConfig()
		})

		It("prefers --file", func() {
			file, err := watchcmder.Options{File: "/tmp/other.jsonl"}.WatchFile(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(file).To(Equal("/tmp/other.jsonl"))
		})

		It("falls back to the jsonl producer path", func() {
			cfg.Producer.Provider = "jsonl"
			cfg.Producer.Path = "/tmp/memory.jsonl"
			file, err := watchcmder.Options{}.WatchFile(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(file).To(Equal("/tmp/memory.jsonl"))
		})

		It("has nothing to watch for the mcp producer", func() {
			cfg.Producer.Provider = "mcp"
			_, err := watchcmder.Options{}.WatchFile(cfg)
			Expect(err).To(MatchError(watchcmder.ErrNoWatchFile))
		})
	})

	Describe("AddFlags", func() {
		It("registers the watch flags with defaults", func() {
			cmd := &cobra.Command{Use: "test"}
			opts := &watchcmder.Options{}
			watchcmder.AddFlags(cmd, opts)

			Expect(cmd.Flags().Lookup("file")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("debounce").DefValue).To(Equal(watch.DefaultDebounce.String()))
			Expect(opts.Initial).To(BeTrue())

			Expect(cmd.Flags().Parse([]string{"--debounce", "250ms", "--initial=false"})).To(Succeed())
			Expect(opts.Debounce).To(Equal(250 * time.Millisecond))
			Expect(opts.Initial).To(BeFalse())
		})
	})

	Describe("Run", func() {
		var log *slog.Logger

		BeforeEach(func() {
			log = slog.New(slog.NewTextHandler(io.Discard, nil))
		})

		It("returns cleanly once the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			opts := watchcmder.Options{
				File:     filepath.Join(GinkgoT().TempDir(), "memory.jsonl"),
				Debounce: 10 * time.Millisecond,
			}
			Expect(watchcmder.Run(ctx, nil, log, config.NewDefaultConfig(), nil, opts)).To(Succeed())
		})

		It("fails when the file's directory does not exist", func() {
			opts := watchcmder.Options{
				File: filepath.Join(GinkgoT().TempDir(), "missing", "memory.jsonl"),
			}
			err := watchcmder.Run(context.Background(), nil, log, config.NewDefaultConfig(), nil, opts)
			Expect(err).To(MatchError(ContainSubstring("watching")))
		})
	})

	Describe("NewWatchCmd", func() {
		It("carries the backup and watch flags", func() {
			cmd := watchcmder.NewWatchCmd()
			for _, name := range []string{"archive-dir", "memory-file", "producer", "file", "debounce", "initial", "log-file"} {
				Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
			}
		})
	})
})
