package testutils

import (
	"context"
	"errors"
	"time"

	"github.com/papercomputeco/memvault/pkg/graph"
)

// MockProducer is a test producer that returns a fixed graph and counts calls.
type MockProducer struct {
	// Graph is returned (as a clone) by ProduceGraph.
	Graph *graph.MemoryGraph

	// Err, when set, is returned instead of Graph.
	Err error

	// Calls counts ProduceGraph invocations.
	Calls int
}

// NewMockProducer creates a producer serving a small two-entity graph.
func NewMockProducer() *MockProducer {
	return &MockProducer{Graph: NewTestGraph(time.Now())}
}

func (m *MockProducer) ProduceGraph(_ context.Context) (*graph.MemoryGraph, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Graph == nil {
		return nil, errors.New("mock producer has no graph")
	}
	return m.Graph.Clone(), nil
}

// NewTestGraph builds a valid graph with two entities and one relation.
func NewTestGraph(now time.Time) *graph.MemoryGraph {
	return graph.New(
		[]graph.Entity{
			{Name: "Ann", EntityType: "person", Observations: []string{"keeps notes in a memory graph"}},
			{Name: "memvault", EntityType: "system", Observations: []string{"backs up the graph"}},
		},
		[]graph.Relation{
			{From: "Ann", To: "memvault", RelationType: "runs"},
		},
		"testutils", "fixture", now,
	)
}
