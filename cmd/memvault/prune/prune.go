// Package prunecmder provides the prune command, which applies the retention
// limit to the archive without running a backup.
package prunecmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/config"
)

var flagKeys = []string{
	config.FlagArchiveDir,
	config.FlagMaxEntries,
	config.FlagRepo,
}

const pruneLongDesc string = `Delete snapshots beyond the retention limit.

Keeps the newest --max-entries snapshots by modification time and removes the
rest. Files that cannot be removed are reported and skipped. Deletions are
left uncommitted; the next backup stages them with the new snapshot.

Examples:
  memvault prune
  memvault prune --max-entries 10`

const pruneShortDesc string = "Delete snapshots beyond the retention limit"

func NewPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: pruneShortDesc,
		Long:  pruneLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")

			cfg, err := app.LoadConfig(cmd, flagKeys)
			if err != nil {
				return err
			}

			return runPrune(cmd.OutOrStdout(), cfg, debug)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDir, new(string))
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxEntries, new(uint))
	config.AddStringFlag(cmd, config.Flags, config.FlagRepo, new(string))

	return cmd
}

func runPrune(out io.Writer, cfg *config.Config, debug bool) error {
	store, err := app.NewStore(cfg, app.NewLogger(debug))
	if err != nil {
		return err
	}

	result, err := store.EnforceRetention(int(cfg.Archive.MaxEntries))
	if err != nil {
		return fmt.Errorf("pruning archive: %w", err)
	}

	fmt.Fprintf(out, "\n  %s Removed %s of %d snapshots, %d remaining\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprint(result.Deleted)),
		result.Total,
		result.Remaining,
	)
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, f.Filename, cliui.DimStyle.Render(f.Error))
	}
	fmt.Fprintln(out)

	return nil
}
