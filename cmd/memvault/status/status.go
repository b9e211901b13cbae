// Package statuscmder provides the status command: repository state, archive
// stats and the outcome of the last recorded backup.
package statuscmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/dotdir"
	"github.com/papercomputeco/memvault/pkg/git"
)

var flagKeys = []string{
	config.FlagArchiveDir,
	config.FlagMaxEntries,
	config.FlagRepo,
	config.FlagRemote,
}

type statusCommander struct {
	configDir string
	raw       bool
}

const statusLongDesc string = `Show the repository, archive and last backup.

Reports the current branch, remote URL and last commit, any uncommitted
changes, the number of snapshots against the retention limit, and the outcome
of the most recent backup recorded in .memvault/last_run.json.

Output is rendered markdown on a terminal and plain markdown otherwise.

Examples:
  memvault status
  memvault status --repo ~/notes --raw`

const statusShortDesc string = "Show repository and archive state"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := app.LoadConfig(cmd, flagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDir, new(string))
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxEntries, new(uint))
	config.AddStringFlag(cmd, config.Flags, config.FlagRepo, new(string))
	config.AddStringFlag(cmd, config.Flags, config.FlagRemote, new(string))
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print markdown without terminal rendering")

	return cmd
}

func (c *statusCommander) run(ctx context.Context, out io.Writer, cfg *config.Config) error {
	log := app.NewLogger(false)

	gateway, err := app.NewGateway(cfg, log)
	if err != nil {
		return err
	}

	store, err := app.NewStore(cfg, log)
	if err != nil {
		return err
	}

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	status, err := gateway.Status(ctx)
	if err != nil {
		log.Debug("git status failed", "error", err)
		status = nil
	}

	lastRun, err := dotdir.NewManager().LoadLastRun(c.configDir)
	if err != nil {
		return fmt.Errorf("loading last run: %w", err)
	}

	report := Report(gateway.Info(ctx), status, stats, lastRun)

	if !c.raw && app.IsTerminal(os.Stdout) {
		rendered, err := cliui.RenderMarkdown(report)
		if err == nil {
			report = rendered
		}
	}

	_, err = io.WriteString(out, report)
	return err
}

// Report formats the status as markdown. A nil status means git could not
// report the working tree.
func Report(info *git.Info, status *git.Status, stats *archive.Stats, lastRun *dotdir.LastRun) string {
	var b strings.Builder

	b.WriteString("# memvault status\n\n")

	b.WriteString("## Repository\n\n")
	fmt.Fprintf(&b, "- **Directory:** %s\n", info.WorkingDirectory)
	fmt.Fprintf(&b, "- **Branch:** %s\n", info.Branch)
	fmt.Fprintf(&b, "- **Remote:** %s\n", info.Remote)
	fmt.Fprintf(&b, "- **Last commit:** %s\n\n", info.LastCommit)

	b.WriteString("## Working tree\n\n")
	switch {
	case status == nil:
		b.WriteString("Not a git repository.\n\n")
	case !status.HasChanges:
		b.WriteString("Clean.\n\n")
	default:
		for _, ch := range status.Changes {
			fmt.Fprintf(&b, "- `%s` %s\n", ch.Code, ch.Path)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Archive\n\n")
	fmt.Fprintf(&b, "- **Path:** %s\n", stats.Path)
	fmt.Fprintf(&b, "- **Snapshots:** %d of %d\n", stats.TotalSnapshots, stats.MaxEntries)
	if stats.Latest != "" {
		fmt.Fprintf(&b, "- **Latest:** %s (%s)\n", stats.Latest, stats.LatestModTime.Format(time.RFC3339))
	} else {
		b.WriteString("- **Latest:** none\n")
	}
	b.WriteString("\n")

	b.WriteString("## Last backup\n\n")
	if lastRun == nil {
		b.WriteString("No backup recorded.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "- **Outcome:** %s\n", lastRun.Outcome)
	fmt.Fprintf(&b, "- **Run:** %s\n", lastRun.RunID)
	fmt.Fprintf(&b, "- **Completed:** %s\n", lastRun.CompletedAt.Format(time.RFC3339))
	if lastRun.Filename != "" {
		fmt.Fprintf(&b, "- **Snapshot:** %s\n", lastRun.Filename)
	}
	if lastRun.Warning != "" {
		fmt.Fprintf(&b, "- **Warning:** %s\n", lastRun.Warning)
	}
	if lastRun.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", lastRun.Error)
	}

	return b.String()
}
