package api

import (
	"errors"
	"io/fs"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memvault/pkg/archive"
	"github.com/papercomputeco/memvault/pkg/backup"
	"github.com/papercomputeco/memvault/pkg/git"
	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/schema"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SnapshotListResponse lists the archive, newest first.
type SnapshotListResponse struct {
	Snapshots []archive.Entry `json:"snapshots"`
	Total     int             `json:"total"`
}

// SnapshotResponse carries one snapshot and where it came from.
type SnapshotResponse struct {
	Filename string             `json:"filename"`
	Graph    *graph.MemoryGraph `json:"graph"`
}

// StatsResponse combines archive stats with the latest snapshot's type counts.
type StatsResponse struct {
	Archive *archive.Stats `json:"archive"`
	Graph   *graph.Stats   `json:"graph,omitempty"`
}

// StatusResponse reports repository state and the last run seen by this process.
type StatusResponse struct {
	Git     *git.Info      `json:"git"`
	Status  *git.Status    `json:"status,omitempty"`
	LastRun *backup.Record `json:"lastRun,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListSnapshots(c *fiber.Ctx) error {
	entries, err := s.store.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list snapshots"})
	}

	return c.JSON(SnapshotListResponse{Snapshots: entries, Total: len(entries)})
}

func (s *Server) handleLatestSnapshot(c *fiber.Ctx) error {
	g, entry, err := s.store.Latest()
	if err != nil {
		return s.snapshotError(c, err)
	}

	return c.JSON(SnapshotResponse{Filename: entry.Filename, Graph: g})
}

// handleSearchLatest handles GET /v1/snapshots/latest/search.
// Query parameters:
//   - query (required): case-insensitive text to look for
func (s *Server) handleSearchLatest(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	g, _, err := s.store.Latest()
	if err != nil {
		return s.snapshotError(c, err)
	}

	return c.JSON(g.Search(query))
}

func (s *Server) handleGetSnapshot(c *fiber.Ctx) error {
	name := c.Params("name")

	g, err := s.store.Read(name)
	if err != nil {
		return s.snapshotError(c, err)
	}

	return c.JSON(SnapshotResponse{Filename: name, Graph: g})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read archive stats"})
	}

	resp := StatsResponse{Archive: stats}
	if stats.Latest != "" {
		g, err := s.store.Read(stats.Latest)
		if err != nil {
			s.logger.Warn("latest snapshot unreadable", "filename", stats.Latest, "error", err)
		} else {
			resp.Graph = g.Stats()
		}
	}

	return c.JSON(resp)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctx := c.Context()

	resp := StatusResponse{Git: s.gateway.Info(ctx)}

	status, err := s.gateway.Status(ctx)
	if err != nil {
		s.logger.Warn("git status failed", "error", err)
	} else {
		resp.Status = status
	}

	if s.runner != nil {
		resp.LastRun = s.runner.Last()
	}

	return c.JSON(resp)
}

// handleTriggerBackup runs one backup synchronously. Runs are serialized by
// the orchestrator, so concurrent requests queue behind each other.
func (s *Server) handleTriggerBackup(c *fiber.Ctx) error {
	if s.runner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "backups are not enabled on this server"})
	}

	rec, err := s.runner.Run(c.Context())
	if err != nil {
		s.logger.Error("triggered backup failed", "error", err)
		if rec == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(rec)
	}

	return c.JSON(rec)
}

func (s *Server) handleLastBackup(c *fiber.Ctx) error {
	if s.runner == nil || s.runner.Last() == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no backup has run yet"})
	}

	return c.JSON(s.runner.Last())
}

// snapshotError maps archive read failures to HTTP statuses.
func (s *Server) snapshotError(c *fiber.Ctx, err error) error {
	var schemaErr *schema.Error

	switch {
	case errors.Is(err, archive.ErrInvalidName):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, fs.ErrNotExist):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "snapshot not found"})
	case errors.As(err, &schemaErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: schemaErr.Error()})
	default:
		s.logger.Error("reading snapshot failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read snapshot"})
	}
}
