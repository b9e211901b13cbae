// Package backupcmder provides the backup command, which runs one backup of
// the memory graph into the git-versioned archive.
package backupcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/dotdir"
)

// FlagKeys are the registry flags accepted by every command that runs backups.
var FlagKeys = []string{
	config.FlagArchiveDir,
	config.FlagMaxEntries,
	config.FlagRepo,
	config.FlagRemote,
	config.FlagBranch,
	config.FlagPushAttempts,
	config.FlagPushBackoff,
	config.FlagCommitPrefix,
	config.FlagProducer,
	config.FlagMemoryFile,
	config.FlagMCPCommand,
	config.FlagStrict,
	config.FlagEventsProvider,
	config.FlagEventsTopic,
}

// AddFlags registers the backup flags on cmd.
func AddFlags(cmd *cobra.Command) {
	// Values are read back through viper, so each flag only needs its own
	// storage.
	for _, key := range FlagKeys {
		switch key {
		case config.FlagMaxEntries, config.FlagPushAttempts, config.FlagPushBackoff:
			config.AddUintFlag(cmd, config.Flags, key, new(uint))
		case config.FlagStrict:
			config.AddBoolFlag(cmd, config.Flags, key, new(bool))
		default:
			config.AddStringFlag(cmd, config.Flags, key, new(string))
		}
	}
}

type backupCommander struct {
	debug     bool
	jsonOut   bool
	configDir string
}

const backupLongDesc string = `Run one backup.

Reads the memory graph, validates it, writes a timestamped snapshot into the
archive directory, prunes snapshots beyond the retention limit, then stages,
commits and pushes the archive.

Exit status is 0 when the snapshot was written, including runs whose push was
deferred or whose commit was skipped because nothing changed. Any failure
before that point exits non-zero.

Examples:
  memvault backup
  memvault backup --memory-file ~/.memory/memory.jsonl --repo ~/notes
  memvault backup --producer mcp --push-attempts 5 --json`

const backupShortDesc string = "Run one backup"

func NewBackupCmd() *cobra.Command {
	cmder := &backupCommander{}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: backupShortDesc,
		Long:  backupLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := app.LoadConfig(cmd, FlagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	AddFlags(cmd)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the run record as JSON")

	return cmd
}

func (c *backupCommander) run(ctx context.Context, out io.Writer, cfg *config.Config) error {
	log := app.NewLogger(c.debug)

	components, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer components.Close()

	rec, runErr := components.Orchestrator.Run(ctx)

	if rec != nil {
		if err := SaveLastRun(rec, c.configDir); err != nil {
			log.Warn("could not record last run", "error", err)
		}

		if c.jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
		} else {
			PrintRecord(out, rec)
		}
	}

	if runErr != nil {
		return fmt.Errorf("backup failed: %w", runErr)
	}
	return nil
}

// SaveLastRun persists a summary of rec for `memvault status`.
func SaveLastRun(rec *backup.Record, configDir string) error {
	return dotdir.NewManager().SaveLastRun(&dotdir.LastRun{
		RunID:       rec.RunID,
		Outcome:     string(rec.Outcome),
		Filename:    rec.Filename,
		Warning:     rec.Warning,
		Error:       rec.Error,
		CompletedAt: rec.CompletedAt,
	}, configDir)
}

// PrintRecord writes a human readable run summary.
func PrintRecord(out io.Writer, rec *backup.Record) {
	mark := cliui.SuccessMark
	switch rec.Outcome {
	case backup.OutcomeFailed:
		mark = cliui.FailMark
	case backup.OutcomeCommittedNotPushed:
		mark = cliui.WarnMark
	}

	fmt.Fprintf(out, "\n  %s %s %s\n\n",
		mark,
		cliui.KeyStyle.Render(string(rec.Outcome)),
		cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(rec.Duration()))),
	)

	fmt.Fprintln(out, cliui.KeyValue("Snapshot", rec.Filename))
	fmt.Fprintln(out, cliui.KeyValue("Entities", strconv.Itoa(rec.EntityCount)))
	fmt.Fprintln(out, cliui.KeyValue("Relations", strconv.Itoa(rec.RelationCount)))
	if rec.Retention != nil {
		fmt.Fprintln(out, cliui.KeyValue("Pruned", fmt.Sprintf("%d of %d", rec.Retention.Deleted, rec.Retention.Total)))
	}
	fmt.Fprintln(out, cliui.KeyValue("Committed", strconv.FormatBool(rec.Committed)))
	if rec.SkippedReason != "" {
		fmt.Fprintln(out, cliui.KeyValue("Skipped", rec.SkippedReason))
	}
	if rec.Committed {
		fmt.Fprintln(out, cliui.KeyValue("Pushed", fmt.Sprintf("%t after %d attempt(s)", rec.Pushed, rec.Attempts)))
	}
	if rec.Warning != "" {
		fmt.Fprintf(out, "\n  %s %s\n", cliui.WarnMark, cliui.WarnStyle.Render(rec.Warning))
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "\n  %s %s\n", cliui.FailMark, rec.Error)
	}
	fmt.Fprintln(out)
}
