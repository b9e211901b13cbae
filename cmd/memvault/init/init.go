// Package initcmder provides the init command for initializing a local
// .memvault directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/pkg/config"
	"github.com/papercomputeco/memvault/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .memvault/ directory in the current working directory.

Creates a local .memvault/ directory that takes precedence over the default
~/.memvault/ directory for configuration and the last run record, and writes
a config.toml with default values.

Presets pick a starting configuration:
  local    read the memory server's store file (default)
  mcp      ask the memory server over MCP
  kafka    local, plus backup events published to Kafka

An existing config.toml is kept unless --preset is given.

Examples:
  memvault init
  memvault init --preset mcp`

const initShortDesc string = "Initialize a local .memvault/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		"Configuration preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func (c *initCommander) run(out io.Writer) error {
	name := c.preset
	if name == "" {
		name = "local"
	}
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir, err := dotdir.NewManager().Init(cwd)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "config.toml")
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", statErr)
	}

	if exists && c.preset == "" {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Initialized .memvault directory: %s (preset %s)\n", dir, name)
	return nil
}
