package config

const (
	defaultArchiveDir        = "backups/memory"
	defaultArchiveMaxEntries = 100

	defaultRepositoryRoot = "."
	defaultRemote         = "origin"
	defaultBranch         = "main"
	defaultPushAttempts   = 3
	defaultPushBackoffMs  = 1000
	defaultCommitPrefix   = "memory backup"

	defaultProducerProvider = "jsonl"
	defaultProducerPath     = "memory.jsonl"
	defaultProducerCommand  = "npx -y @modelcontextprotocol/server-memory"

	defaultAPIListen = ":8790"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "memvault.backups"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Archive: ArchiveConfig{
			Dir:        defaultArchiveDir,
			MaxEntries: defaultArchiveMaxEntries,
		},
		Git: GitConfig{
			RepositoryRoot: defaultRepositoryRoot,
			Remote:         defaultRemote,
			Branch:         defaultBranch,
			PushAttempts:   defaultPushAttempts,
			PushBackoffMs:  defaultPushBackoffMs,
			CommitPrefix:   defaultCommitPrefix,
		},
		Producer: ProducerConfig{
			Provider: defaultProducerProvider,
			Path:     defaultProducerPath,
			Command:  defaultProducerCommand,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
