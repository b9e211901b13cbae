package mcp_test

import (
	"context"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memvault/pkg/graph"
	"github.com/papercomputeco/memvault/pkg/producer/mcp"
)

type readGraphInput struct{}

// memoryServer starts an in-process server whose read_graph tool returns
// result, and returns a transport factory connected to it.
func memoryServer(ctx context.Context, result *sdk.CallToolResult) func() (sdk.Transport, error) {
	server := sdk.NewServer(&sdk.Implementation{Name: "memory", Version: "test"}, nil)
	sdk.AddTool(server, &sdk.Tool{
		Name:        mcp.ReadGraphTool,
		Description: "Read the entire knowledge graph",
	}, func(context.Context, *sdk.CallToolRequest, readGraphInput) (*sdk.CallToolResult, any, error) {
		return result, nil, nil
	})

	return func() (sdk.Transport, error) {
		serverTransport, clientTransport := sdk.NewInMemoryTransports()
		if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
			return nil, err
		}
		return clientTransport, nil
	}
}

func text(s string) *sdk.CallToolResult {
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: s}}}
}

var _ = Describe("Producer", func() {
	var (
		ctx context.Context
		now time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 10, 15, 4, 9, 1, 0, time.UTC)
	})

	It("requires a command without a transport", func() {
		_, err := mcp.New(mcp.Config{})
		Expect(err).To(MatchError(mcp.ErrNoCommand))
	})

	It("accepts a command line", func() {
		p, err := mcp.New(mcp.Config{Command: "npx -y @modelcontextprotocol/server-memory"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).NotTo(BeNil())
	})

	It("reads the graph from read_graph text content", func() {
		transport := memoryServer(ctx, text(`{
			"entities": [
				{"type": "entity", "name": "Ann", "entityType": "person", "observations": ["owns a NAS", 3]}
			],
			"relations": [
				{"type": "relation", "from": "Ann", "to": "Ann", "relationType": "knows"}
			]
		}`))

		p, err := mcp.New(mcp.Config{}, mcp.WithTransport(transport), mcp.WithClock(func() time.Time { return now }))
		Expect(err).NotTo(HaveOccurred())

		g, err := p.ProduceGraph(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Entities).To(Equal([]graph.Entity{
			{Name: "Ann", EntityType: "person", Observations: []string{"owns a NAS", "3"}},
		}))
		Expect(g.Relations).To(HaveLen(1))
		Expect(g.Metadata.ExtractionMethod).To(Equal(mcp.ExtractionMethod))
		Expect(g.Timestamp).To(Equal("2026-10-15T04:09:01.000Z"))
	})

	It("fails when the tool reports an error", func() {
		result := text("memory file unreadable")
		result.IsError = true

		p, err := mcp.New(mcp.Config{}, mcp.WithTransport(memoryServer(ctx, result)))
		Expect(err).NotTo(HaveOccurred())

		_, err = p.ProduceGraph(ctx)
		Expect(err).To(MatchError(ContainSubstring("memory file unreadable")))
	})

	It("fails on an empty result", func() {
		p, err := mcp.New(mcp.Config{}, mcp.WithTransport(memoryServer(ctx, &sdk.CallToolResult{})))
		Expect(err).NotTo(HaveOccurred())

		_, err = p.ProduceGraph(ctx)
		Expect(err).To(HaveOccurred())
	})
})
