package graph

import (
	"sort"
	"strings"
)

// SearchResult holds the entities and relations that matched a query.
type SearchResult struct {
	Query        string     `json:"query"`
	Entities     []Entity   `json:"entities"`
	Relations    []Relation `json:"relations"`
	TotalMatches int        `json:"totalMatches"`
}

// Search returns every entity whose name, type or observations contain query
// and every relation whose endpoints or type contain it. Matching is
// case-insensitive substring matching.
func (g *MemoryGraph) Search(query string) *SearchResult {
	q := strings.ToLower(query)
	result := &SearchResult{
		Query:     query,
		Entities:  []Entity{},
		Relations: []Relation{},
	}

	for _, e := range g.Entities {
		text := e.Name + " " + e.EntityType + " " + strings.Join(e.Observations, " ")
		if strings.Contains(strings.ToLower(text), q) {
			result.Entities = append(result.Entities, e)
		}
	}

	for _, r := range g.Relations {
		text := r.From + " " + r.To + " " + r.RelationType
		if strings.Contains(strings.ToLower(text), q) {
			result.Relations = append(result.Relations, r)
		}
	}

	result.TotalMatches = len(result.Entities) + len(result.Relations)
	return result
}

// TypeCount is the number of occurrences of a single entity or relation type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats summarises a graph by entity and relation type.
type Stats struct {
	Timestamp      string      `json:"timestamp"`
	Version        string      `json:"version"`
	TotalEntities  int         `json:"totalEntities"`
	TotalRelations int         `json:"totalRelations"`
	EntityTypes    []TypeCount `json:"entityTypes"`
	RelationTypes  []TypeCount `json:"relationTypes"`
}

// Stats counts entities per entityType and relations per relationType. Counts
// are ordered by descending count, then by type name.
func (g *MemoryGraph) Stats() *Stats {
	entityTypes := make(map[string]int)
	for _, e := range g.Entities {
		entityTypes[e.EntityType]++
	}

	relationTypes := make(map[string]int)
	for _, r := range g.Relations {
		relationTypes[r.RelationType]++
	}

	return &Stats{
		Timestamp:      g.Timestamp,
		Version:        g.Version,
		TotalEntities:  len(g.Entities),
		TotalRelations: len(g.Relations),
		EntityTypes:    sortedCounts(entityTypes),
		RelationTypes:  sortedCounts(relationTypes),
	}
}

func sortedCounts(m map[string]int) []TypeCount {
	counts := make([]TypeCount, 0, len(m))
	for t, n := range m {
		counts = append(counts, TypeCount{Type: t, Count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})

	return counts
}
