package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent memvault configuration stored as
// config.toml in the .memvault/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Archive    ArchiveConfig    `toml:"archive"`
	Git        GitConfig        `toml:"git"`
	Producer   ProducerConfig   `toml:"producer"`
	Validation ValidationConfig `toml:"validation"`
	API        APIConfig        `toml:"api"`
	Events     EventsConfig     `toml:"events"`
}

// ArchiveConfig holds snapshot directory and retention settings.
type ArchiveConfig struct {
	Dir        string `toml:"dir,omitempty" validate:"required"`
	MaxEntries uint   `toml:"max_entries,omitempty" validate:"gte=1"`
}

// GitConfig holds version control settings.
type GitConfig struct {
	RepositoryRoot string `toml:"repository_root,omitempty" validate:"required"`
	Remote         string `toml:"remote,omitempty" validate:"required"`
	Branch         string `toml:"branch,omitempty" validate:"required"`
	PushAttempts   uint   `toml:"push_attempts,omitempty" validate:"gte=1,lte=20"`
	PushBackoffMs  uint   `toml:"push_backoff_ms,omitempty"`
	CommitPrefix   string `toml:"commit_prefix,omitempty"`
}

// ProducerConfig selects where memory graphs come from.
type ProducerConfig struct {
	Provider string `toml:"provider,omitempty" validate:"oneof=jsonl mcp"`
	Path     string `toml:"path,omitempty" validate:"required_if=Provider jsonl"`
	Command  string `toml:"command,omitempty" validate:"required_if=Provider mcp"`
}

// ValidationConfig holds schema validation settings.
type ValidationConfig struct {
	ReferentialIntegrity bool `toml:"referential_integrity,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" validate:"required"`
}

// EventsConfig holds backup event publishing settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty" validate:"oneof=nop kafka"`
	Brokers  []string `toml:"brokers,omitempty" validate:"required_if=Provider kafka,dive,hostname_port"`
	Topic    string   `toml:"topic,omitempty" validate:"required_if=Provider kafka"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(key string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"archive.dir":         stringKey(func(c *Config) *string { return &c.Archive.Dir }),
	"archive.max_entries": uintKey("archive.max_entries", func(c *Config) *uint { return &c.Archive.MaxEntries }),
	"git.repository_root": stringKey(func(c *Config) *string { return &c.Git.RepositoryRoot }),
	"git.remote":          stringKey(func(c *Config) *string { return &c.Git.Remote }),
	"git.branch":          stringKey(func(c *Config) *string { return &c.Git.Branch }),
	"git.push_attempts":   uintKey("git.push_attempts", func(c *Config) *uint { return &c.Git.PushAttempts }),
	"git.push_backoff_ms": uintKey("git.push_backoff_ms", func(c *Config) *uint { return &c.Git.PushBackoffMs }),
	"git.commit_prefix":   stringKey(func(c *Config) *string { return &c.Git.CommitPrefix }),
	"producer.provider":   stringKey(func(c *Config) *string { return &c.Producer.Provider }),
	"producer.path":       stringKey(func(c *Config) *string { return &c.Producer.Path }),
	"producer.command":    stringKey(func(c *Config) *string { return &c.Producer.Command }),
	"api.listen":          stringKey(func(c *Config) *string { return &c.API.Listen }),
	"events.provider":     stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.topic":        stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"validation.referential_integrity": {
		get: func(c *Config) string { return strconv.FormatBool(c.Validation.ReferentialIntegrity) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for validation.referential_integrity: %w", err)
			}
			c.Validation.ReferentialIntegrity = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
}

// splitList parses a comma separated list, dropping empty items.
func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
