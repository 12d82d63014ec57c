package combinator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/graphctx/internal/retrieval/combinator"
	"github.com/turtacn/graphctx/internal/retrieval/pattern"
	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// buildIntersectionFixture mirrors the three-patient scenario: P2 has both
// RA and Albuterol, P3 has only RA, P4 has only Albuterol.
func buildIntersectionFixture(t *testing.T) (*store.InMemoryGraphStore, graphmodel.Node, graphmodel.Node, graphmodel.Node) {
	t.Helper()
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	p2 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient", Properties: graphmodel.Properties{"name": "P2"}}
	p3 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient", Properties: graphmodel.Properties{"name": "P3"}}
	p4 := graphmodel.Node{ID: graphmodel.NewID(), Label: "Patient", Properties: graphmodel.Properties{"name": "P4"}}
	ra := graphmodel.Node{ID: graphmodel.NewID(), Label: "Condition", Properties: graphmodel.Properties{"name": "RA"}}
	alb := graphmodel.Node{ID: graphmodel.NewID(), Label: "Medication", Properties: graphmodel.Properties{"name": "Albuterol"}}

	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{p2, p3, p4, ra, alb}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: p2.ID, TargetNodeID: ra.ID, RelationType: "HAS_CONDITION"},
		{ID: graphmodel.NewID(), SourceNodeID: p3.ID, TargetNodeID: ra.ID, RelationType: "HAS_CONDITION"},
		{ID: graphmodel.NewID(), SourceNodeID: p2.ID, TargetNodeID: alb.ID, RelationType: "PRESCRIBED_MEDICATION"},
		{ID: graphmodel.NewID(), SourceNodeID: p4.ID, TargetNodeID: alb.ID, RelationType: "PRESCRIBED_MEDICATION"},
	}))

	return s, p2, p3, p4
}

func TestCombinator_Intersection_CoversOnlySharedPatient(t *testing.T) {
	s, p2, p3, p4 := buildIntersectionFixture(t)
	exec := pattern.New(s)
	eng := combinator.New(exec)

	patternA := graphmodel.GraphPattern{
		PatternID: "A",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "HAS_CONDITION", TargetLabel: "Condition", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
		Constraints: []graphmodel.Constraint{
			{Type: graphmodel.ConstraintPropertyEquals, PropertyPath: "name", Value: "RA", AtStep: 0},
		},
	}
	patternB := graphmodel.GraphPattern{
		PatternID: "B",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "PRESCRIBED_MEDICATION", TargetLabel: "Medication", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
		Constraints: []graphmodel.Constraint{
			{Type: graphmodel.ConstraintPropertyEquals, PropertyPath: "name", Value: "Albuterol", AtStep: 0},
		},
	}

	combinatorSpec := graphmodel.QueryCombinator{
		Type:     graphmodel.CombinatorIntersection,
		Patterns: []graphmodel.GraphPattern{patternA, patternB},
	}

	seeds := []graphmodel.ID{p2.ID, p3.ID, p4.ID}
	paths, err := eng.Combine(context.Background(), combinatorSpec, seeds, graphmodel.RankingPathLength, 10, "")
	require.NoError(t, err)

	for _, p := range paths {
		assert.Equal(t, p2.ID, p.NodeIDs[0], "intersection must only surface paths rooted at the shared patient")
	}
	assert.NotEmpty(t, paths)
}

func TestCombinator_Union_ConcatenatesAndTruncates(t *testing.T) {
	s, p2, p3, p4 := buildIntersectionFixture(t)
	exec := pattern.New(s)
	eng := combinator.New(exec)

	patternA := graphmodel.GraphPattern{
		PatternID: "A",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "HAS_CONDITION", TargetLabel: "Condition", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
	}
	patternB := graphmodel.GraphPattern{
		PatternID: "B",
		Steps: []graphmodel.TraversalStep{
			{SourceLabel: "Patient", RelationType: "PRESCRIBED_MEDICATION", TargetLabel: "Medication", StepIndex: 0, Direction: graphmodel.DirectionOutgoing},
		},
	}

	combinatorSpec := graphmodel.QueryCombinator{
		Type:     graphmodel.CombinatorUnion,
		Patterns: []graphmodel.GraphPattern{patternA, patternB},
	}

	seeds := []graphmodel.ID{p2.ID, p3.ID, p4.ID}
	paths, err := eng.Combine(context.Background(), combinatorSpec, seeds, graphmodel.RankingPathLength, 2, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(paths), 2)
}

func TestCombinator_Sequential_ReseedsFromTerminalNodes(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryGraphStore()

	a := graphmodel.Node{ID: graphmodel.NewID(), Label: "A"}
	b := graphmodel.Node{ID: graphmodel.NewID(), Label: "B"}
	c := graphmodel.Node{ID: graphmodel.NewID(), Label: "C"}
	require.NoError(t, s.AddNodes(ctx, []graphmodel.Node{a, b, c}))
	require.NoError(t, s.AddEdges(ctx, []graphmodel.Edge{
		{ID: graphmodel.NewID(), SourceNodeID: a.ID, TargetNodeID: b.ID, RelationType: "STEP1"},
		{ID: graphmodel.NewID(), SourceNodeID: b.ID, TargetNodeID: c.ID, RelationType: "STEP2"},
	}))

	exec := pattern.New(s)
	eng := combinator.New(exec)

	stage1 := graphmodel.GraphPattern{
		PatternID: "stage1",
		Steps:     []graphmodel.TraversalStep{{RelationType: "STEP1", TargetLabel: "B", StepIndex: 0, Direction: graphmodel.DirectionOutgoing}},
	}
	stage2 := graphmodel.GraphPattern{
		PatternID: "stage2",
		Steps:     []graphmodel.TraversalStep{{RelationType: "STEP2", TargetLabel: "C", StepIndex: 0, Direction: graphmodel.DirectionOutgoing}},
	}

	combinatorSpec := graphmodel.QueryCombinator{
		Type:     graphmodel.CombinatorSequential,
		Patterns: []graphmodel.GraphPattern{stage1, stage2},
	}

	paths, err := eng.Combine(ctx, combinatorSpec, []graphmodel.ID{a.ID}, graphmodel.RankingPathLength, 10, "")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	var sawStage2 bool
	for _, p := range paths {
		if p.PatternID == "stage2" {
			sawStage2 = true
			assert.Equal(t, b.ID, p.NodeIDs[0])
			assert.Equal(t, c.ID, p.NodeIDs[1])
		}
	}
	assert.True(t, sawStage2, "sequential stage 2 must be reseeded from stage 1 terminal nodes")
}
