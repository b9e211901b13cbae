// Package jsonl reads the memory graph straight from a memory server's
// on-disk store: either JSON lines tagged with "type" or a single graph
// document.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/logger"
	"github.com/papercomputeco/memvault/pkg/producer"
)

const (
	// ExtractedBy is recorded in the metadata of every graph this producer builds.
	ExtractedBy = "memvault/jsonl"

	// ExtractionMethod is recorded alongside ExtractedBy.
	ExtractionMethod = "memory file"

	maxLineSize = 16 * 1024 * 1024
)

// Producer reads a memory file on every call.
type Producer struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Producer.
type Option func(*Producer)

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

// New returns a Producer reading path.
func New(path string, opts ...Option) *Producer {
	p := &Producer{
		path:   path,
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the memory file the producer reads.
func (p *Producer) Path() string {
	return p.path
}

// ProduceGraph reads and normalizes the memory file.
func (p *Producer) ProduceGraph(ctx context.Context) (*graph.MemoryGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("reading memory file: %w", err)
	}

	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.path, err)
	}

	p.logger.Debug("read memory file",
		"path", p.path,
		"entities", len(raw.Entities),
		"relations", len(raw.Relations),
	)

	return producer.Build(raw, ExtractedBy, ExtractionMethod, p.now())
}

// Parse decodes data as a graph document when it is one, and as typed JSON
// lines otherwise. Blank lines and lines of unknown type are skipped.
func Parse(data []byte) (*producer.Raw, error) {
	if raw, ok := parseDocument(data); ok {
		return raw, nil
	}

	raw := &producer.Raw{Entities: []any{}, Relations: []any{}}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record map[string]any
		if err := decode(line, &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		switch record["type"] {
		case "entity":
			delete(record, "type")
			raw.Entities = append(raw.Entities, record)
		case "relation":
			delete(record, "type")
			raw.Relations = append(raw.Relations, record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return raw, nil
}

func parseDocument(data []byte) (*producer.Raw, bool) {
	var doc map[string]any
	if err := decode(data, &doc); err != nil {
		return nil, false
	}
	entities, hasEntities := doc["entities"]
	relations, hasRelations := doc["relations"]
	if !hasEntities && !hasRelations {
		return nil, false
	}

	raw := &producer.Raw{Entities: []any{}, Relations: []any{}}
	if list, ok := entities.([]any); ok {
		raw.Entities = list
	}
	if list, ok := relations.([]any); ok {
		raw.Relations = list
	}
	return raw, true
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

var _ producer.Producer = (*Producer)(nil)
