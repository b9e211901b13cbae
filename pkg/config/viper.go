package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/memvault/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEMVAULT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEMVAULT_ARCHIVE_DIR, MEMVAULT_GIT_REMOTE, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MEMVAULT_ARCHIVE_DIR, MEMVAULT_PRODUCER_PATH, etc.
	v.SetEnvPrefix("MEMVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Archive
	v.SetDefault("archive.dir", d.Archive.Dir)
	v.SetDefault("archive.max_entries", d.Archive.MaxEntries)

	// Git
	v.SetDefault("git.repository_root", d.Git.RepositoryRoot)
	v.SetDefault("git.remote", d.Git.Remote)
	v.SetDefault("git.branch", d.Git.Branch)
	v.SetDefault("git.push_attempts", d.Git.PushAttempts)
	v.SetDefault("git.push_backoff_ms", d.Git.PushBackoffMs)
	v.SetDefault("git.commit_prefix", d.Git.CommitPrefix)

	// Producer
	v.SetDefault("producer.provider", d.Producer.Provider)
	v.SetDefault("producer.path", d.Producer.Path)
	v.SetDefault("producer.command", d.Producer.Command)

	// Validation
	v.SetDefault("validation.referential_integrity", d.Validation.ReferentialIntegrity)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper builds a Config from the resolved viper values, so flags and
// environment variables are reflected.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Archive: ArchiveConfig{
			Dir:        v.GetString("archive.dir"),
			MaxEntries: v.GetUint("archive.max_entries"),
		},
		Git: GitConfig{
			RepositoryRoot: v.GetString("git.repository_root"),
			Remote:         v.GetString("git.remote"),
			Branch:         v.GetString("git.branch"),
			PushAttempts:   v.GetUint("git.push_attempts"),
			PushBackoffMs:  v.GetUint("git.push_backoff_ms"),
			CommitPrefix:   v.GetString("git.commit_prefix"),
		},
		Producer: ProducerConfig{
			Provider: v.GetString("producer.provider"),
			Path:     v.GetString("producer.path"),
			Command:  v.GetString("producer.command"),
		},
		Validation: ValidationConfig{
			ReferentialIntegrity: v.GetBool("validation.referential_integrity"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  brokers(v),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// brokers accepts both a TOML array and a comma separated environment value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, item := range v.GetStringSlice("events.brokers") {
		out = append(out, splitList(item)...)
	}
	return out
}
