package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --archive-dir
// on "memvault backup", "memvault prune" and "memvault serve").
type Flag struct {
	// Name is the long flag name (e.g. "archive-dir").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "archive.dir").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagArchiveDir     = "archive-dir"
	FlagMaxEntries     = "max-entries"
	FlagRepo           = "repo"
	FlagRemote         = "remote"
	FlagBranch         = "branch"
	FlagPushAttempts   = "push-attempts"
	FlagPushBackoff    = "push-backoff-ms"
	FlagCommitPrefix   = "commit-prefix"
	FlagProducer       = "producer"
	FlagMemoryFile     = "memory-file"
	FlagMCPCommand     = "mcp-command"
	FlagStrict         = "strict"
	FlagListen         = "listen"
	FlagEventsProvider = "events-provider"
	FlagEventsTopic    = "events-topic"
)

// Flags is the registry shared by every memvault command.
var Flags = FlagSet{
	FlagArchiveDir: {
		Name:        "archive-dir",
		Shorthand:   "a",
		ViperKey:    "archive.dir",
		Description: "Snapshot directory, relative to the repository root",
	},
	FlagMaxEntries: {
		Name:        "max-entries",
		ViperKey:    "archive.max_entries",
		Description: "Number of snapshots to keep",
	},
	FlagRepo: {
		Name:        "repo",
		Shorthand:   "r",
		ViperKey:    "git.repository_root",
		Description: "Git repository root holding the archive",
	},
	FlagRemote: {
		Name:        "remote",
		ViperKey:    "git.remote",
		Description: "Git remote to push to",
	},
	FlagBranch: {
		Name:        "branch",
		ViperKey:    "git.branch",
		Description: "Git branch to push",
	},
	FlagPushAttempts: {
		Name:        "push-attempts",
		ViperKey:    "git.push_attempts",
		Description: "Push attempts before deferring to the next run",
	},
	FlagPushBackoff: {
		Name:        "push-backoff-ms",
		ViperKey:    "git.push_backoff_ms",
		Description: "Milliseconds to wait between push attempts",
	},
	FlagCommitPrefix: {
		Name:        "commit-prefix",
		ViperKey:    "git.commit_prefix",
		Description: "Commit message prefix, followed by the run timestamp",
	},
	FlagProducer: {
		Name:        "producer",
		Shorthand:   "p",
		ViperKey:    "producer.provider",
		Description: "Graph source: jsonl or mcp",
	},
	FlagMemoryFile: {
		Name:        "memory-file",
		Shorthand:   "f",
		ViperKey:    "producer.path",
		Description: "Memory server store file read by the jsonl producer",
	},
	FlagMCPCommand: {
		Name:        "mcp-command",
		ViperKey:    "producer.command",
		Description: "Memory server command launched by the mcp producer",
	},
	FlagStrict: {
		Name:        "strict",
		ViperKey:    "validation.referential_integrity",
		Description: "Reject duplicate entity names and relations to unknown entities",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the HTTP API to listen on",
	},
	FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Backup event sink: nop or kafka",
	},
	FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for backup events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaults().GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	return defaults().GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	return defaults().GetBool(viperKey)
}
