// Package mcp produces memory graphs by calling the read_graph tool of an
// MCP memory server.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/logger"
	"github.com/papercomputeco/memvault/pkg/producer"
	"github.com/papercomputeco/memvault/pkg/utils"
)

const (
	// ReadGraphTool is the memory server tool that returns the whole graph.
	ReadGraphTool = "read_graph"

	// ExtractedBy is recorded in the metadata of every graph this producer builds.
	ExtractedBy = "memvault/mcp"

	// ExtractionMethod is recorded alongside ExtractedBy.
	ExtractionMethod = "MCP memory:read_graph"
)

var (
	// ErrNoCommand is returned when neither a command nor a transport is configured.
	ErrNoCommand = errors.New("mcp producer requires a server command")

	// ErrEmptyResult is returned when read_graph yields no decodable content.
	ErrEmptyResult = errors.New("read_graph returned no graph")
)

// Config configures the MCP producer.
type Config struct {
	// Command is the memory server command line, e.g.
	// "npx -y @modelcontextprotocol/server-memory".
	Command string

	// Env is appended to the current environment of the server process.
	Env []string

	// Timeout bounds one read_graph round trip. Zero means 30 seconds.
	Timeout time.Duration
}

// Producer launches the memory server per call and reads its graph.
type Producer struct {
	config    Config
	transport func() (mcp.Transport, error)
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Producer.
type Option func(*Producer)

// WithTransport replaces the command transport, for in-process servers.
func WithTransport(newTransport func() (mcp.Transport, error)) Option {
	return func(p *Producer) {
		p.transport = newTransport
	}
}

// WithClock overrides the clock used to timestamp graphs.
func WithClock(now func() time.Time) Option {
	return func(p *Producer) {
		p.now = now
	}
}

// WithLogger sets the producer logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = l
	}
}

// New creates an MCP producer.
func New(c Config, opts ...Option) (*Producer, error) {
	p := &Producer{
		config: c,
		now:    time.Now,
		logger: logger.Nop(),
	}
	if p.config.Timeout <= 0 {
		p.config.Timeout = 30 * time.Second
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.transport == nil {
		args := strings.Fields(c.Command)
		if len(args) == 0 {
			return nil, ErrNoCommand
		}
		p.transport = func() (mcp.Transport, error) {
			cmd := exec.Command(args[0], args[1:]...)
			cmd.Env = append(os.Environ(), c.Env...)
			return &mcp.CommandTransport{Command: cmd}, nil
		}
	}

	return p, nil
}

// ProduceGraph connects to the memory server, calls read_graph and
// normalizes the result.
func (p *Producer) ProduceGraph(ctx context.Context) (*graph.MemoryGraph, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	transport, err := p.transport()
	if err != nil {
		return nil, fmt.Errorf("creating mcp transport: %w", err)
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "memvault",
		Version: utils.Version,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to memory server: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Debug("closing mcp session", "error", err)
		}
	}()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ReadGraphTool,
		Arguments: map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", ReadGraphTool, err)
	}

	raw, err := decodeResult(res)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("read graph over mcp",
		"entities", len(raw.Entities),
		"relations", len(raw.Relations),
	)

	return producer.Build(raw, ExtractedBy, ExtractionMethod, p.now())
}

func decodeResult(res *mcp.CallToolResult) (*producer.Raw, error) {
	if res.IsError {
		return nil, fmt.Errorf("%s failed: %s", ReadGraphTool, resultText(res))
	}

	if text := resultText(res); text != "" {
		return decodeRaw([]byte(text))
	}

	if res.StructuredContent != nil {
		data, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("encoding structured content: %w", err)
		}
		return decodeRaw(data)
	}

	return nil, ErrEmptyResult
}

func resultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func decodeRaw(data []byte) (*producer.Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	raw := &producer.Raw{}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", ReadGraphTool, err)
	}
	if raw.Entities == nil {
		raw.Entities = []any{}
	}
	if raw.Relations == nil {
		raw.Relations = []any{}
	}
	return raw, nil
}

var _ producer.Producer = (*Producer)(nil)
