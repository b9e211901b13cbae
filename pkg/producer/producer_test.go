package producer_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/producer"
	"github.com/papercomputeco/memvault/pkg/schema"
)

var _ = Describe("FormatEntity", func() {
	It("stringifies observations", func() {
		entity, err := producer.FormatEntity(map[string]any{
			"name":         "Ann",
			"entityType":   "person",
			"observations": []any{"likes tea", 42.0, true, json.Number("7"), nil},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(entity.Observations).To(Equal([]string{"likes tea", "42", "true", "7", "null"}))
	})

	It("fills in defaults for missing fields", func() {
		entity, err := producer.FormatEntity(map[string]any{"name": 12.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(entity).To(Equal(graph.Entity{
			Name:         "12.5",
			EntityType:   producer.DefaultEntityType,
			Observations: []string{},
		}))
	})

	It("rejects non-objects", func() {
		_, err := producer.FormatEntity("Ann")
		Expect(err).To(MatchError(producer.ErrInvalidRecord))
	})
})

var _ = Describe("FormatRelation", func() {
	It("fills in a missing relation type", func() {
		rel, err := producer.FormatRelation(map[string]any{"from": "Ann", "to": "memvault"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rel).To(Equal(graph.Relation{From: "Ann", To: "memvault", RelationType: "unknown"}))
	})

	It("rejects non-objects", func() {
		_, err := producer.FormatRelation([]any{"Ann"})
		Expect(err).To(MatchError(producer.ErrInvalidRecord))
	})
})

var _ = Describe("Build", func() {
	now := time.Date(2026, 10, 15, 4, 9, 1, 0, time.UTC)

	It("produces a valid graph with matching counts", func() {
		g, err := producer.Build(&producer.Raw{
			Entities: []any{
				map[string]any{"name": "Ann", "entityType": "person", "observations": []any{"x"}},
				map[string]any{"name": "NAS", "entityType": "device"},
			},
			Relations: []any{
				map[string]any{"from": "Ann", "to": "NAS", "relationType": "owns"},
			},
		}, "test", "fixture", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Metadata.EntityCount).To(Equal(2))
		Expect(g.Metadata.RelationCount).To(Equal(1))
		Expect(g.Metadata.ExtractionMethod).To(Equal("fixture"))
		Expect(schema.ValidateGraph(g)).To(Succeed())
	})

	It("reports the index of a bad record", func() {
		_, err := producer.Build(&producer.Raw{Relations: []any{"oops"}}, "test", "", now)
		Expect(err).To(MatchError(ContainSubstring("relation 0")))
	})
})

var _ = Describe("Func", func() {
	It("adapts a function", func() {
		want := graph.New(nil, nil, "func", "", time.Now())
		p := producer.Func(func(context.Context) (*graph.MemoryGraph, error) { return want, nil })

		got, err := p.ProduceGraph(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(want))
	})
})
