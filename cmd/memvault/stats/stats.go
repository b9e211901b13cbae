// Package statscmder provides the stats command, which summarizes a snapshot
// by entity and relation type.
package statscmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	searchcmder "github.com/papercomputeco/memvault/cmd/memvault/search"
	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/graph"
)

var flagKeys = []string{
	config.FlagArchiveDir,
	config.FlagRepo,
	config.FlagStrict,
}

type statsCommander struct {
	snapshot string
	jsonOut  bool
}

const statsLongDesc string = `Summarize a snapshot.

Counts entities per entity type and relations per relation type in the
newest snapshot, or in the one named by --snapshot.

Examples:
  memvault stats
  memvault stats --json`

const statsShortDesc string = "Summarize a snapshot by type"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd, flagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.OutOrStdout(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDir, new(string))
	config.AddStringFlag(cmd, config.Flags, config.FlagRepo, new(string))
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrict, new(bool))
	cmd.Flags().StringVarP(&cmder.snapshot, "snapshot", "s", "", "Snapshot file name (default: newest)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print stats as JSON")

	return cmd
}

func (c *statsCommander) run(out io.Writer, cfg *config.Config) error {
	store, err := app.NewStore(cfg, app.NewLogger(false))
	if err != nil {
		return err
	}

	g, name, err := searchcmder.LoadSnapshot(store, c.snapshot)
	if err != nil {
		return err
	}

	stats := g.Stats()

	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.HeaderStyle.Render(name), cliui.DimStyle.Render(stats.Timestamp))
	fmt.Fprintln(out, cliui.KeyValue("Version", stats.Version))
	fmt.Fprintln(out, cliui.KeyValue("Entities", fmt.Sprint(stats.TotalEntities)))
	fmt.Fprintln(out, cliui.KeyValue("Relations", fmt.Sprint(stats.TotalRelations)))

	printCounts(out, "Entity types", stats.EntityTypes)
	printCounts(out, "Relation types", stats.RelationTypes)
	fmt.Fprintln(out)

	return nil
}

func printCounts(out io.Writer, title string, counts []graph.TypeCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(out, "\n  %s\n", cliui.KeyStyle.Render(title))
	for _, tc := range counts {
		fmt.Fprintf(out, "    %5d  %s\n", tc.Count, tc.Type)
	}
}
