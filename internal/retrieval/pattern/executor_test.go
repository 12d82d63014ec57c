package pattern_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/retrieval/pattern"
	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func setupSingleHop(t *testing.T) (*store.InMemoryGraphStore, graphmodel.Node, graphmodel.Node) {
	t.Helper()
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	p1 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient", Properties: graphmodel.Properties{"name": "PT-10001"}}
	c1 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "Type 2 Diabetes"}}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{p1, c1}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: p1.ID, TargetNodeID: c1.ID, RelationType: "HAS_CONDITION", Weight: 1.0},
	}))
	return s, p1, c1
}

func TestExecutor_SingleHopPattern(t *testing.T) {
	s, p1, c1 := setupSingleHop(t)
	exec := pattern.New(s)

	gp := graphmodel.GraphPattern{
		PatternID: "p1",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "HAS_CONDITION", TargetLabel: "Condition", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
	}

	paths, err := exec.Execute(context.Background(), gp, []graphmodel.ID{p1.ID}, graphmodel.RankingPathLength, 10, "diabetes")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []graphmodel.ID{p1.ID, c1.ID}, paths[0].NodeIDs)
	assert.Equal(t, []string{"HAS_CONDITION"}, paths[0].RelationTypes)
	assert.Len(t, paths[0].RelationTypes, len(paths[0].NodeIDs)-1)
}

func TestExecutor_CycleAvoidance(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	a := graphmodel.Node{ID: graphmodel.NewID(), Label: "N"}
	b := graphmodel.Node{ID: graphmodel.NewID(), Label: "N"}
	c := graphmodel.Node{ID: graphmodel.NewID(), Label: "N"}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{a, b, c}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: a.ID, TargetNodeID: b.ID, RelationType: "NEXT"},
		{ID: graphmodel.NewID(), SourceNodeID: b.ID, TargetNodeID: c.ID, RelationType: "NEXT"},
		{ID: graphmodel.NewID(), SourceNodeID: c.ID, TargetNodeID: a.ID, RelationType: "NEXT"},
	}))

	exec := pattern.New(s)
	gp := graphmodel.GraphPattern{
		PatternID: "cycle",
		Steps: []graphmodel.TraversalStep{
			{RelationType: "NEXT", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
			{RelationType: "NEXT", StepIndex: 1, Direction: graphmodel.DirectionOutgoing},
			{RelationType: "NEXT", StepIndex: 2, Direction: graphmodel.DirectionOutgoing},
			{RelationType: "NEXT", StepIndex: 3, Direction: graphmodel.DirectionOutgoing},
			{RelationType: "NEXT", StepIndex: 4, Direction: graphmodel.DirectionOutgoing},
		},
	}

	paths, err := exec.Execute(ctx, gp, []graphmodel.ID{a.ID}, graphmodel.RankingPathLength, 100, "")
	require.NoError(t, err)

	for _, p := range paths {
		seen := map[graphmodel.ID]bool{}
		for _, id := range p.NodeIDs {
			assert.False(t, seen[id], "path must not revisit a node")
			seen[id] = true
		}
	}
}

func TestExecutor_HybridRankingWeights(t *testing.T) {
	s, p1, _ := setupSingleHop(t)
	exec := pattern.New(s)

	gp := graphmodel.GraphPattern{
		PatternID: "p1",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "HAS_CONDITION", TargetLabel: "Condition", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
	}

	paths, err := exec.Execute(context.Background(), gp, []graphmodel.ID{p1.ID}, graphmodel.RankingHybrid, 10, "")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Greater(t, paths[0].Score, 0.0)
}

func TestExecutor_ConstraintFiltersNeighbors(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	p1 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient"}
	cRA := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "RA"}}
	cOther := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "Asthma"}}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{p1, cRA, cOther}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: p1.ID, TargetNodeID: cRA.ID, RelationType: "HAS_CONDITION"},
		{ID: graphmodel.NewID(), SourceNodeID: p1.ID, TargetNodeID: cOther.ID, RelationType: "HAS_CONDITION"},
	}))

	exec := pattern.New(s)
	gp := graphmodel.GraphPattern{
		PatternID: "p1",
		Steps: []graphmodel.TraversalStep{
			{RelationType: "HAS_CONDITION", TargetLabel: "Condition", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
		Constraints: []graphmodel.Constraint{
			{Type: graphmodel.ConstraintPropertyEquals, PropertyPath: "name", Value: "RA", AtStep: 0},
		},
	}

	paths, err := exec.Execute(ctx, gp, []graphmodel.ID{p1.ID}, graphmodel.RankingPathLength, 10, "")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, cRA.ID, paths[0].NodeIDs[1])
}

// TestExecutor_ConstraintAppliesAtNonContiguousStepIndex covers a pattern
// whose StepIndex values are sparse (0, 5), legal per the traversal step
// schema. A constraint targeting AtStep: 5 must still apply to that step
// rather than being looked up by its position (1) in the sorted step list.
func TestExecutor_ConstraintAppliesAtNonContiguousStepIndex(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	p1 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient"}
	mid := graphmodel.Node{ID: graphmodel.NewID(), Label: "Visit"}
	cRA := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "RA"}}
	cOther := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "Asthma"}}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{p1, mid, cRA, cOther}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: p1.ID, TargetNodeID: mid.ID, RelationType: "HAD_VISIT"},
		{ID: graphmodel.NewID(), SourceNodeID: mid.ID, TargetNodeID: cRA.ID, RelationType: "DIAGNOSED"},
		{ID: graphmodel.NewID(), SourceNodeID: mid.ID, TargetNodeID: cOther.ID, RelationType: "DIAGNOSED"},
	}))

	exec := pattern.New(s)
	gp := graphmodel.GraphPattern{
		PatternID: "sparse",
		Steps: []graphmodel.TraversalStep{
			{RelationType: "HAD_VISIT", TargetLabel: "Visit", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
			{RelationType: "DIAGNOSED", TargetLabel: "Condition", StepIndex: 5, Direction: graphmodel.DirectionOutgoing},
		},
		Constraints: []graphmodel.Constraint{
			{Type: graphmodel.ConstraintPropertyEquals, PropertyPath: "name", Value: "RA", AtStep: 5},
		},
	}

	paths, err := exec.Execute(ctx, gp, []graphmodel.ID{p1.ID}, graphmodel.RankingPathLength, 10, "")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, cRA.ID, paths[0].NodeIDs[2])
}
