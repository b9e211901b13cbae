// Package watchcmder provides the watch command, which runs a backup each
// time the memory file changes.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	backupcmder "github.com/papercomputeco/memvault/cmd/memvault/backup"
	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/watch"
)

// ErrNoWatchFile is returned when there is no file to watch, which happens
// with the mcp producer unless --file is given.
var ErrNoWatchFile = errors.New("no file to watch: set --file or use the jsonl producer")

// Options controls a watch loop.
type Options struct {
	// File is the path to watch. Defaults to producer.path for the jsonl
	// producer.
	File string

	// Debounce collapses bursts of writes into one backup.
	Debounce time.Duration

	// Initial runs one backup before waiting for changes.
	Initial bool

	// ConfigDir is where each run's summary is recorded.
	ConfigDir string

	// LogFile, when set, also receives every log record as JSON.
	LogFile string
}

// WatchFile returns the file to watch for cfg.
func (o Options) WatchFile(cfg *config.Config) (string, error) {
	if o.File != "" {
		return o.File, nil
	}
	if cfg.Producer.Provider == app.ProviderJSONL && cfg.Producer.Path != "" {
		return cfg.Producer.Path, nil
	}
	return "", ErrNoWatchFile
}

// AddFlags registers the watch flags on cmd.
func AddFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.File, "file", "", "File to watch (default: the jsonl producer's memory file)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period after a change before backing up")
	cmd.Flags().BoolVar(&opts.Initial, "initial", true, "Run one backup before waiting for changes")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Also append JSON logs to this file")
}

// Run watches the configured file and runs orch after every settled change
// until ctx is canceled.
func Run(ctx context.Context, out io.Writer, log *slog.Logger, cfg *config.Config, orch *backup.Orchestrator, opts Options) error {
	file, err := opts.WatchFile(cfg)
	if err != nil {
		return err
	}

	runOnce := func(ctx context.Context) error {
		rec, err := orch.Run(ctx)
		if rec != nil {
			if saveErr := backupcmder.SaveLastRun(rec, opts.ConfigDir); saveErr != nil {
				log.Warn("could not record last run", "error", saveErr)
			}
			if out != nil {
				backupcmder.PrintRecord(out, rec)
			}
		}
		return err
	}

	if opts.Initial {
		if err := runOnce(ctx); err != nil {
			log.Error("initial backup failed", "error", err)
		}
	}

	w := watch.New(file, watch.WithDebounce(opts.Debounce), watch.WithLogger(log))
	err = w.Run(ctx, runOnce)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type watchCommander struct {
	debug bool
	opts  Options
}

const watchLongDesc string = `Back up whenever the memory file changes.

Watches the memory server's store file and runs a backup once writes have
been quiet for --debounce. Failed runs are logged and watching continues.
Stop with Ctrl-C.

Examples:
  memvault watch
  memvault watch --memory-file ~/.memory/memory.jsonl --debounce 10s
  memvault watch --producer mcp --file ~/.memory/memory.jsonl`

const watchShortDesc string = "Back up whenever the memory file changes"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.opts.ConfigDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := app.LoadConfig(cmd, backupcmder.FlagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	backupcmder.AddFlags(cmd)
	AddFlags(cmd, &cmder.opts)

	return cmd
}

func (c *watchCommander) run(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if _, err := c.opts.WatchFile(cfg); err != nil {
		return err
	}

	log, closeLog, err := app.NewServiceLogger(c.debug, c.opts.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	components, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := Run(ctx, out, log, cfg, components.Orchestrator, c.opts); err != nil {
		return fmt.Errorf("watching: %w", err)
	}
	return nil
}
