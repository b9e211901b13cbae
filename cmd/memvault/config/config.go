// Package configcmder provides the config command for managing persistent
// memvault configuration stored in the .memvault/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent memvault configuration.

Configuration is stored as config.toml in the .memvault/ directory and provides
default values for command flags. CLI flags and MEMVAULT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  archive.dir, archive.max_entries,
  git.repository_root, git.remote, git.branch,
  git.push_attempts, git.push_backoff_ms, git.commit_prefix,
  producer.provider, producer.path, producer.command,
  validation.referential_integrity,
  api.listen,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  memvault config set <key> <value>    Set a configuration value
  memvault config get <key>            Get a configuration value
  memvault config list                 List all configuration values

Examples:
  memvault config set git.remote backup
  memvault config set archive.max_entries 30
  memvault config get producer.path
  memvault config list`

const configShortDesc string = "Manage persistent memvault configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
