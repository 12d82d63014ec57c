package subgraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/internal/retrieval/subgraph"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// TestExtractor_BudgetEnforcement mirrors the star-graph scenario: one seed
// with 500 depth-1 neighbours, maxGraphNodes=50.
func TestExtractor_BudgetEnforcement(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	seed := graphmodel.Node{ID: graphmodel.NewID(), Label: "Hub"}
	nodes := []graphmodel.Node{seed}
	edges := make([]graphmodel.Edge, 0, 500)
	for i := 0; i < 500; i++ {
		n := graphmodel.Node{ID: graphmodel.NewID(), Label: "Leaf"}
		nodes = append(nodes, n)
		edges = append(edges, graphmodel.Edge{ID: graphmodel.NewID(), SourceNodeID: seed.ID, TargetNodeID: n.ID, RelationType: "LINK"})
	}
	require.NoError(t, s.AddNodes(ctx, nodes))
	require.NoError(t, s.AddEdges(ctx, edges))

	x := subgraph.New(s)
	result, err := x.ExtractBounded(ctx, []graphmodel.ID{seed.ID}, 1, 50)
	require.NoError(t, err)

	assert.Len(t, result.Nodes, 50)

	var seedPresent bool
	nodeSet := make(map[graphmodel.ID]bool)
	for _, n := range result.Nodes {
		nodeSet[n.ID] = true
		if n.ID == seed.ID {
			seedPresent = true
		}
	}
	assert.True(t, seedPresent, "seed must never be evicted by the budget enforcer")

	for _, e := range result.Edges {
		assert.True(t, nodeSet[e.SourceNodeID])
		assert.True(t, nodeSet[e.TargetNodeID])
	}
}

func TestExtractor_UnderBudget_ReturnsAsIs(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	a := graphmodel.Node{ID: graphmodel.NewID(), Label: "A"}
	b := graphmodel.Node{ID: graphmodel.NewID(), Label: "B"}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{a, b}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: a.ID, TargetNodeID: b.ID, RelationType: "R"},
	}))

	x := subgraph.New(s)
	result, err := x.ExtractBounded(ctx, []graphmodel.ID{a.ID}, 1, 50)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 2)
	assert.Len(t, result.Edges, 1)
}

func TestExtractor_BudgetOfOne_KeepsOnlySeed(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	seed := graphmodel.Node{ID: graphmodel.NewID(), Label: "Seed"}
	connected := graphmodel.Node{ID: graphmodel.NewID(), Label: "Connected"}
	isolated := graphmodel.Node{ID: graphmodel.NewID(), Label: "Isolated"}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{seed, connected, isolated}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: seed.ID, TargetNodeID: connected.ID, RelationType: "R"},
	}))

	x := subgraph.New(s)
	// depth 1 from seed in this fixture store does not reach isolated at
	// all via ExtractSubgraph, so the raw set is {seed, connected}; a
	// budget of 1 forces truncation, which keeps the seed alone.
	result, err := x.ExtractBounded(ctx, []graphmodel.ID{seed.ID}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 1)
	assert.Equal(t, seed.ID, result.Nodes[0].ID)
}
