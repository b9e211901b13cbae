// Package searchcmder provides the search command for finding entities and
// relations in a snapshot.
package searchcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/utils"
)

var flagKeys = []string{
	config.FlagArchiveDir,
	config.FlagRepo,
	config.FlagStrict,
}

type searchCommander struct {
	snapshot string
	jsonOut  bool
}

const searchLongDesc string = `Search a snapshot for entities and relations.

Matches the query case-insensitively against entity names, types and
observations, and against relation endpoints and types. Searches the newest
snapshot unless --snapshot names another one.

Examples:
  memvault search "coffee"
  memvault search --snapshot backup-2024-05-01T12-00-00-000Z.json Ann`

const searchShortDesc string = "Search a snapshot"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd, flagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.OutOrStdout(), cfg, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagArchiveDir, new(string))
	config.AddStringFlag(cmd, config.Flags, config.FlagRepo, new(string))
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrict, new(bool))
	cmd.Flags().StringVarP(&cmder.snapshot, "snapshot", "s", "", "Snapshot file name (default: newest)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print results as JSON")

	return cmd
}

func (c *searchCommander) run(out io.Writer, cfg *config.Config, query string) error {
	store, err := app.NewStore(cfg, app.NewLogger(false))
	if err != nil {
		return err
	}

	g, name, err := LoadSnapshot(store, c.snapshot)
	if err != nil {
		return err
	}

	result := g.Search(query)

	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(out, name, result)
	return nil
}

// LoadSnapshot reads the named snapshot, or the newest one when name is empty.
func LoadSnapshot(store *archive.Store, name string) (*graph.MemoryGraph, string, error) {
	if name != "" {
		g, err := store.Read(name)
		if err != nil {
			return nil, "", fmt.Errorf("reading snapshot: %w", err)
		}
		return g, name, nil
	}

	g, entry, err := store.Latest()
	if err != nil {
		return nil, "", fmt.Errorf("reading latest snapshot: %w", err)
	}
	return g, entry.Filename, nil
}

func printResult(out io.Writer, snapshot string, result *graph.SearchResult) {
	fmt.Fprintf(out, "\n  %s %s %s\n\n",
		cliui.HeaderStyle.Render(fmt.Sprintf("%d matches", result.TotalMatches)),
		cliui.DimStyle.Render("in"),
		cliui.DimStyle.Render(snapshot),
	)

	for _, e := range result.Entities {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render(e.Name), cliui.DimStyle.Render("["+e.EntityType+"]"))
		for _, obs := range e.Observations {
			fmt.Fprintf(out, "    %s %s\n", cliui.DimStyle.Render("-"), utils.Truncate(obs, 96))
		}
	}

	if len(result.Relations) > 0 {
		if len(result.Entities) > 0 {
			fmt.Fprintln(out)
		}
		for _, r := range result.Relations {
			fmt.Fprintf(out, "  %s %s %s\n",
				cliui.KeyStyle.Render(r.From),
				cliui.ValueStyle.Render(strings.ReplaceAll(r.RelationType, " ", "_")),
				cliui.KeyStyle.Render(r.To),
			)
		}
	}

	fmt.Fprintln(out)
}
