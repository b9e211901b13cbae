package jsonl_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/producer/jsonl"
	"github.com/papercomputeco/memvault/pkg/schema"
)

const memoryLines = `{"type":"entity","name":"Ann","entityType":"person","observations":["runs a NAS",2024]}
{"type":"entity","name":"memvault","entityType":"system","observations":[]}

{"type":"relation","from":"Ann","to":"memvault","relationType":"maintains"}
{"type":"comment","text":"ignored"}
`

var _ = Describe("Producer", func() {
	var (
		dir string
		now time.Time
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		now = time.Date(2026, 10, 15, 4, 9, 1, 123_000_000, time.UTC)
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("reads typed JSON lines", func() {
		p := jsonl.New(write("memory.jsonl", memoryLines), jsonl.WithClock(func() time.Time { return now }))

		g, err := p.ProduceGraph(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Timestamp).To(Equal("2026-10-15T04:09:01.123Z"))
		Expect(g.Entities).To(Equal([]graph.Entity{
			{Name: "Ann", EntityType: "person", Observations: []string{"runs a NAS", "2024"}},
			{Name: "memvault", EntityType: "system", Observations: []string{}},
		}))
		Expect(g.Relations).To(Equal([]graph.Relation{
			{From: "Ann", To: "memvault", RelationType: "maintains"},
		}))
		Expect(g.Metadata.ExtractedBy).To(Equal(jsonl.ExtractedBy))
		Expect(schema.ValidateGraph(g)).To(Succeed())
	})

	It("reads a plain graph document", func() {
		path := write("graph.json", `{
  "entities": [{"name": "Ann", "entityType": "person", "observations": ["x"]}],
  "relations": []
}`)

		g, err := jsonl.New(path).ProduceGraph(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Entities).To(HaveLen(1))
		Expect(g.Relations).To(BeEmpty())
	})

	It("treats a single entity line as JSON lines", func() {
		raw, err := jsonl.Parse([]byte(`{"type":"entity","name":"Ann","entityType":"person"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.Entities).To(HaveLen(1))
	})

	It("reads an empty file as an empty graph", func() {
		g, err := jsonl.New(write("empty.jsonl", "")).ProduceGraph(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Entities).To(BeEmpty())
		Expect(g.Metadata.EntityCount).To(Equal(0))
	})

	It("reports the line of malformed input", func() {
		path := write("bad.jsonl", "{\"type\":\"entity\",\"name\":\"Ann\"}\n{not json}\n")

		_, err := jsonl.New(path).ProduceGraph(context.Background())
		Expect(err).To(MatchError(ContainSubstring("line 2")))
	})

	It("fails when the file is missing", func() {
		_, err := jsonl.New(filepath.Join(dir, "missing.jsonl")).ProduceGraph(context.Background())
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("honors a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := jsonl.New(write("memory.jsonl", memoryLines)).ProduceGraph(ctx)
		Expect(err).To(MatchError(context.Canceled))
	})
})
