// Package memvaultcmder
package memvaultcmder

import (
	"github.com/spf13/cobra"

	backupcmder "github.com/papercomputeco/memvault/cmd/memvault/backup"
	configcmder "github.com/papercomputeco/memvault/cmd/memvault/config"
	initcmder "github.com/papercomputeco/memvault/cmd/memvault/init"
	prunecmder "github.com/papercomputeco/memvault/cmd/memvault/prune"
	searchcmder "github.com/papercomputeco/memvault/cmd/memvault/search"
	servecmder "github.com/papercomputeco/memvault/cmd/memvault/serve"
	statscmder "github.com/papercomputeco/memvault/cmd/memvault/stats"
	statuscmder "github.com/papercomputeco/memvault/cmd/memvault/status"
	validatecmder "github.com/papercomputeco/memvault/cmd/memvault/validate"
	watchcmder "github.com/papercomputeco/memvault/cmd/memvault/watch"
	versioncmder "github.com/papercomputeco/memvault/cmd/version"
)

const memvaultLongDesc string = `memvault snapshots a memory graph to JSON and versions the
snapshots in git.

Each backup reads the graph from the memory server's store file (or over MCP),
validates it, writes a timestamped snapshot, prunes old snapshots, then
commits and pushes the archive. Push failures never lose a snapshot: the
commit stays local and goes out with the next run.

Common commands:
  memvault backup      Run one backup
  memvault watch       Back up whenever the memory file changes
  memvault serve       Run the HTTP API
  memvault status      Show repository and archive state`

const memvaultShortDesc string = "memvault - versioned memory graph backups"

func NewMemvaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "memvault",
		Short:         memvaultShortDesc,
		Long:          memvaultLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .memvault/ config directory")

	cmd.AddCommand(backupcmder.NewBackupCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(prunecmder.NewPruneCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
