// Package validatecmder provides the validate command for checking snapshot
// files against the memory graph schema.
package validatecmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/cliui"
	"github.com/papercomputeco/memvault/pkg/schema"
)

const validateLongDesc string = `Validate snapshot files.

Checks each file against the memory graph schema: required fields, timestamp
and version formats, entity and relation shapes, and metadata counts. With
--strict, entity names must be unique and every relation must point at known
entities.

Exits non-zero if any file fails.

Examples:
  memvault validate backups/memory/backup-2024-05-01T12-00-00-000Z.json
  memvault validate --strict backups/memory/*.json`

const validateShortDesc string = "Validate snapshot files"

type validateCommander struct {
	strict bool
}

func NewValidateCmd() *cobra.Command {
	cmder := &validateCommander{}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().BoolVar(&cmder.strict, "strict", false, "Also check entity name uniqueness and relation endpoints")

	return cmd
}

// ErrInvalidSnapshots is returned when at least one file fails validation.
var ErrInvalidSnapshots = errors.New("invalid snapshots")

func (c *validateCommander) run(out io.Writer, files []string) error {
	v := schema.NewValidator(schema.WithReferentialIntegrity(c.strict))

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, file, cliui.DimStyle.Render(err.Error()))
			continue
		}

		g, err := v.Decode(data)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s %s %s\n", cliui.FailMark, file, cliui.DimStyle.Render(err.Error()))
			continue
		}

		fmt.Fprintf(out, "  %s %s %s\n", cliui.SuccessMark, file,
			cliui.DimStyle.Render(fmt.Sprintf("(%d entities, %d relations)", len(g.Entities), len(g.Relations))))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrInvalidSnapshots, failed, len(files))
	}
	return nil
}
