package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/retrieval/resolver"
	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func TestResolver_HeuristicPropertyMatch_ToleratesMisspelling(t *testing.T) {
	ctx := context.Background()
	graph := store.NewInMemoryGraphStore()

	exact := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "Diabetes"}}
	unrelated := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "Asthma"}}
	require.NoError(t, graph.AddNodes(ctx, []graphmodel.Node{exact, unrelated}))

	r := resolver.New(graph, nil, nil, nil, 10, 2)

	ids, err := r.Resolve(ctx, []graphmodel.ResolutionTarget{
		{Description: "Diabettes", TypeHint: "Condition"},
	})
	require.NoError(t, err)
	assert.Contains(t, ids, exact.ID)
	assert.NotContains(t, ids, unrelated.ID)
}

func TestResolver_HeuristicPropertyMatch_ShortValuesRequireExactMatch(t *testing.T) {
	ctx := context.Background()
	graph := store.NewInMemoryGraphStore()

	low := graphmodel.Node{ID: graphmodel.NewID(), Label: "Observation", Properties: graphmodel.Properties{"code": "Low"}}
	require.NoError(t, graph.AddNodes(ctx, []graphmodel.Node{low}))

	r := resolver.New(graph, nil, nil, nil, 10, 2)

	ids, err := r.Resolve(ctx, []graphmodel.ResolutionTarget{
		{Description: "Lew", TypeHint: "Observation"},
	})
	require.NoError(t, err)
	assert.NotContains(t, ids, low.ID)
}
