// Package servecmder provides the serve command for running the HTTP API,
// optionally with a file watcher triggering backups in the same process.
package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memvault/api"
	backupcmder "github.com/papercomputeco/memvault/cmd/memvault/backup"
	watchcmder "github.com/papercomputeco/memvault/cmd/memvault/watch"
	"github.com/papercomputeco/memvault/pkg/app"
	"github.com/papercomputeco/memvault/pkg/config"
)

type serveCommander struct {
	debug bool
	watch bool
	opts  watchcmder.Options
}

var flagKeys = append([]string{config.FlagListen}, backupcmder.FlagKeys...)

const serveLongDesc string = `Run the memvault HTTP API.

Serves the archive read-only, reports repository status, exposes Prometheus
metrics at /metrics and accepts POST /v1/backups to run a backup. With
--watch, the memory file is watched in the same process; watcher runs and
HTTP-triggered runs are serialized.

Endpoints:
  GET  /ping
  GET  /v1/snapshots
  GET  /v1/snapshots/latest
  GET  /v1/snapshots/latest/search?query=...
  GET  /v1/snapshots/:name
  GET  /v1/stats
  GET  /v1/status
  POST /v1/backups
  GET  /v1/backups/last
  GET  /metrics

Examples:
  memvault serve
  memvault serve --listen 127.0.0.1:9000 --watch`

const serveShortDesc string = "Run the memvault HTTP API"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.opts.ConfigDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := app.LoadConfig(cmd, flagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, new(string))
	backupcmder.AddFlags(cmd)
	watchcmder.AddFlags(cmd, &cmder.opts)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Also back up whenever the memory file changes")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	log, closeLog, err := app.NewServiceLogger(c.debug, c.opts.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if c.watch {
		if _, err := c.opts.WatchFile(cfg); err != nil {
			return err
		}
	}

	components, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer components.Close()

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		Gatherer:   components.Registry,
	}, components.Store, components.Gateway, components.Orchestrator, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if c.watch {
		go func() {
			if err := watchcmder.Run(ctx, nil, log, cfg, components.Orchestrator, c.opts); err != nil {
				errChan <- fmt.Errorf("watcher error: %w", err)
			}
		}()
	}

	select {
	case err := <-errChan:
		_ = server.Shutdown()
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return server.Shutdown()
	}
}
