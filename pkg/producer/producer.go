// Package producer defines the source of memory graphs for a backup run and
// the normalization every source applies to what it reads.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/papercomputeco/memvault/pkg/graph"
)

const (
	// DefaultEntityType replaces a missing entity type.
	DefaultEntityType = "unknown"

	// DefaultRelationType replaces a missing relation type.
	DefaultRelationType = "unknown"
)

// ErrInvalidRecord is returned for an entity or relation that is not an object.
var ErrInvalidRecord = errors.New("invalid record")

// Producer yields the current memory graph.
type Producer interface {
	ProduceGraph(ctx context.Context) (*graph.MemoryGraph, error)
}

// Func adapts a function to Producer.
type Func func(ctx context.Context) (*graph.MemoryGraph, error)

// ProduceGraph implements Producer.
func (f Func) ProduceGraph(ctx context.Context) (*graph.MemoryGraph, error) {
	return f(ctx)
}

// Raw is an undecoded graph as read from a memory server: loosely typed
// entity and relation objects.
type Raw struct {
	Entities  []any `json:"entities"`
	Relations []any `json:"relations"`
}

// Build normalizes raw into a MemoryGraph stamped with now.
func Build(raw *Raw, extractedBy, method string, now time.Time) (*graph.MemoryGraph, error) {
	entities := make([]graph.Entity, 0, len(raw.Entities))
	for i, e := range raw.Entities {
		entity, err := FormatEntity(e)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		entities = append(entities, entity)
	}

	relations := make([]graph.Relation, 0, len(raw.Relations))
	for i, r := range raw.Relations {
		relation, err := FormatRelation(r)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", i, err)
		}
		relations = append(relations, relation)
	}

	return graph.New(entities, relations, extractedBy, method, now), nil
}

// FormatEntity coerces a loosely typed entity object. A missing name becomes
// the empty string, a missing type becomes DefaultEntityType and every
// observation is stringified.
func FormatEntity(v any) (graph.Entity, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return graph.Entity{}, fmt.Errorf("%w: entity must be an object", ErrInvalidRecord)
	}

	entity := graph.Entity{
		Name:         stringOr(obj["name"], ""),
		EntityType:   stringOr(obj["entityType"], DefaultEntityType),
		Observations: []string{},
	}
	if obs, ok := obj["observations"].([]any); ok {
		for _, o := range obs {
			entity.Observations = append(entity.Observations, stringify(o))
		}
	}

	return entity, nil
}

// FormatRelation coerces a loosely typed relation object.
func FormatRelation(v any) (graph.Relation, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return graph.Relation{}, fmt.Errorf("%w: relation must be an object", ErrInvalidRecord)
	}

	return graph.Relation{
		From:         stringOr(obj["from"], ""),
		To:           stringOr(obj["to"], ""),
		RelationType: stringOr(obj["relationType"], DefaultRelationType),
	}, nil
}

// stringOr stringifies v, using fallback for absent or empty values.
func stringOr(v any, fallback string) string {
	if empty(v) {
		return fallback
	}
	return stringify(v)
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
