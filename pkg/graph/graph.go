// Package graph defines the memory graph that memvault snapshots: named
// entities carrying typed observations, and typed directed relations between
// them.
//
// The JSON field names match the MCP memory server's knowledge graph so a
// snapshot file can be read back by any tool that speaks that format.
package graph

import (
	"time"
)

const (
	// SchemaVersion is the version string stamped on graphs built by New.
	SchemaVersion = "1.0"

	// TimestampLayout is the ISO-8601 UTC layout used for graph timestamps,
	// always with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// MemoryGraph is one point-in-time snapshot of the memory graph.
type MemoryGraph struct {
	Timestamp string     `json:"timestamp"`
	Version   string     `json:"version"`
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
	Metadata  Metadata   `json:"metadata"`
}

// Entity is a named node in the graph.
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation is a directed, typed edge between two entity names.
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// Metadata summarises a graph. EntityCount and RelationCount must equal the
// lengths of Entities and Relations.
type Metadata struct {
	EntityCount      int    `json:"entityCount"`
	RelationCount    int    `json:"relationCount"`
	ExtractedBy      string `json:"extractedBy"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
}

// New builds a graph stamped at now with metadata derived from the slices.
// The slices are copied, with nil ones replaced by empty ones so the encoded
// document always carries arrays.
func New(entities []Entity, relations []Relation, extractedBy, method string, now time.Time) *MemoryGraph {
	entities = cloneEntities(entities)
	relations = append(make([]Relation, 0, len(relations)), relations...)

	return &MemoryGraph{
		Timestamp: FormatTimestamp(now),
		Version:   SchemaVersion,
		Entities:  entities,
		Relations: relations,
		Metadata: Metadata{
			EntityCount:      len(entities),
			RelationCount:    len(relations),
			ExtractedBy:      extractedBy,
			ExtractionMethod: method,
		},
	}
}

// FormatTimestamp renders t in TimestampLayout after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clone returns a deep copy of g with nil slices replaced by empty ones, so
// the copy always encodes arrays. The backup pipeline only ever works on a
// clone so the producer's graph is never touched.
func (g *MemoryGraph) Clone() *MemoryGraph {
	if g == nil {
		return nil
	}

	out := *g
	out.Entities = cloneEntities(g.Entities)

	out.Relations = make([]Relation, len(g.Relations))
	copy(out.Relations, g.Relations)

	return &out
}

func cloneEntities(entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		out[i].Observations = make([]string, len(e.Observations))
		copy(out[i].Observations, e.Observations)
	}
	return out
}
