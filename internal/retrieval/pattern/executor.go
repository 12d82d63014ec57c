// Package pattern implements the pattern executor (C4): multi-step
// traversal of a GraphPattern from a seed set, producing ranked
// MatchedPaths.
package pattern

import (
	"context"
	"sort"
	"strings"

	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// accumulator is the in-flight state of one candidate path during
// execution.
type accumulator struct {
	nodeIDs       []graphmodel.ID
	relationTypes []string
	onPathSet     map[graphmodel.ID]bool
}

func newAccumulator(seed graphmodel.ID) accumulator {
	return accumulator{
		nodeIDs:   []graphmodel.ID{seed},
		onPathSet: map[graphmodel.ID]bool{seed: true},
	}
}

func (a accumulator) tail() graphmodel.ID { return a.nodeIDs[len(a.nodeIDs)-1] }

func (a accumulator) extend(next graphmodel.ID, relationType string) accumulator {
	nodeIDs := make([]graphmodel.ID, len(a.nodeIDs)+1)
	copy(nodeIDs, a.nodeIDs)
	nodeIDs[len(a.nodeIDs)] = next

	relationTypes := make([]string, len(a.relationTypes)+1)
	copy(relationTypes, a.relationTypes)
	relationTypes[len(a.relationTypes)] = relationType

	onPath := make(map[graphmodel.ID]bool, len(a.onPathSet)+1)
	for k := range a.onPathSet {
		onPath[k] = true
	}
	onPath[next] = true

	return accumulator{nodeIDs: nodeIDs, relationTypes: relationTypes, onPathSet: onPath}
}

// Executor runs GraphPatterns against a GraphStore.
type Executor struct {
	graph store.GraphStore
}

// New constructs a pattern Executor bound to a GraphStore.
func New(graph store.GraphStore) *Executor {
	return &Executor{graph: graph}
}

// Execute runs pattern from seeds, scores the resulting paths by strategy,
// sorts them descending, and truncates to maxPaths. queryText feeds the
// SEMANTIC_SCORE ranking strategy.
func (e *Executor) Execute(ctx context.Context, p graphmodel.GraphPattern, seeds []graphmodel.ID, strategy graphmodel.RankingStrategy, maxPaths int, queryText string) ([]graphmodel.MatchedPath, error) {
	if len(seeds) == 0 || len(p.Steps) == 0 {
		return nil, nil
	}

	steps := make([]graphmodel.TraversalStep, len(p.Steps))
	copy(steps, p.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })

	constraintsByStep := make(map[int][]graphmodel.Constraint)
	for _, c := range p.Constraints {
		constraintsByStep[c.AtStep] = append(constraintsByStep[c.AtStep], c)
	}

	active := make([]accumulator, 0, len(seeds))
	for _, s := range seeds {
		active = append(active, newAccumulator(s))
	}

	for _, step := range steps {
		var emitted []accumulator

		for _, acc := range active {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "pattern execution cancelled")
			default:
			}

			tail := acc.tail()

			if step.SourceLabel != "" {
				tailNode, err := e.graph.GetNode(ctx, tail)
				if err != nil {
					return nil, errors.Wrap(err, errors.CodeStoreUnavailable, "pattern execution: get tail node failed")
				}
				if tailNode == nil || tailNode.Label != step.SourceLabel {
					continue
				}
			}

			neighbors, err := e.graph.GetNeighborsByRelationType(ctx, tail, step.RelationType, step.Direction)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeStoreUnavailable, "pattern execution: neighbor expansion failed")
			}

			for _, v := range neighbors {
				if step.TargetLabel != "" && v.Label != step.TargetLabel {
					continue
				}
				if acc.onPathSet[v.ID] {
					continue // cycle rejection
				}

				satisfiesConstraints := true
				for _, c := range constraintsByStep[step.StepIndex] {
					if c.NodeLabel != "" && c.NodeLabel != v.Label {
						continue
					}
					if !c.Evaluate(v.Properties) {
						satisfiesConstraints = false
						break
					}
				}
				if !satisfiesConstraints {
					continue
				}

				emitted = append(emitted, acc.extend(v.ID, step.RelationType))
			}
		}

		// A pattern is all-or-nothing: accumulators with no extension at
		// this step are dropped.
		active = emitted
		if len(active) == 0 {
			break
		}
	}

	paths := make([]graphmodel.MatchedPath, 0, len(active))
	for _, acc := range active {
		paths = append(paths, graphmodel.MatchedPath{
			PatternID:     p.PatternID,
			NodeIDs:       acc.nodeIDs,
			RelationTypes: acc.relationTypes,
		})
	}

	scored, err := e.score(ctx, paths, strategy, queryText)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return lexLess(scored[i].NodeIDs, scored[j].NodeIDs)
	})

	if maxPaths > 0 && len(scored) > maxPaths {
		scored = scored[:maxPaths]
	}
	return scored, nil
}

func lexLess(a, b []graphmodel.ID) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		as, bs := a[i].String(), b[i].String()
		if as != bs {
			return as < bs
		}
	}
	return len(a) < len(b)
}

func (e *Executor) score(ctx context.Context, paths []graphmodel.MatchedPath, strategy graphmodel.RankingStrategy, queryText string) ([]graphmodel.MatchedPath, error) {
	out := make([]graphmodel.MatchedPath, len(paths))
	copy(out, paths)

	for i := range out {
		s, err := e.scoreOne(ctx, out[i], strategy, queryText)
		if err != nil {
			return nil, err
		}
		out[i].Score = s
	}
	return out, nil
}

func (e *Executor) scoreOne(ctx context.Context, p graphmodel.MatchedPath, strategy graphmodel.RankingStrategy, queryText string) (float64, error) {
	switch strategy {
	case graphmodel.RankingPathLength:
		return pathLengthScore(p), nil
	case graphmodel.RankingEdgeWeight:
		return e.edgeWeightScore(ctx, p)
	case graphmodel.RankingNodeCentrality:
		return e.nodeCentralityScore(ctx, p)
	case graphmodel.RankingSemanticScore:
		return semanticScore(p, queryText), nil
	case graphmodel.RankingHybrid:
		pl := pathLengthScore(p)
		ew, err := e.edgeWeightScore(ctx, p)
		if err != nil {
			return 0, err
		}
		nc, err := e.nodeCentralityScore(ctx, p)
		if err != nil {
			return 0, err
		}
		ss := semanticScore(p, queryText)
		return 0.3*pl + 0.3*ew + 0.2*nc + 0.2*ss, nil
	default:
		return pathLengthScore(p), nil
	}
}

func pathLengthScore(p graphmodel.MatchedPath) float64 {
	return 1.0 / (1.0 + float64(len(p.NodeIDs)))
}

func (e *Executor) edgeWeightScore(ctx context.Context, p graphmodel.MatchedPath) (float64, error) {
	var total float64
	for i := 0; i+1 < len(p.NodeIDs); i++ {
		edges, err := e.graph.FindEdgesForNode(ctx, p.NodeIDs[i])
		if err != nil {
			return 0, errors.Wrap(err, errors.CodeStoreUnavailable, "edge weight scoring failed")
		}
		for _, edge := range edges {
			if edge.TargetNodeID == p.NodeIDs[i+1] && edge.RelationType == p.RelationTypes[i] {
				total += edge.EffectiveWeight()
				break
			}
		}
	}
	return total, nil
}

func (e *Executor) nodeCentralityScore(ctx context.Context, p graphmodel.MatchedPath) (float64, error) {
	var total float64
	var maxDegree float64 = 1
	degrees := make([]float64, len(p.NodeIDs))
	for i, id := range p.NodeIDs {
		edges, err := e.graph.FindEdgesForNode(ctx, id)
		if err != nil {
			return 0, errors.Wrap(err, errors.CodeStoreUnavailable, "node centrality scoring failed")
		}
		degrees[i] = float64(len(edges))
		if degrees[i] > maxDegree {
			maxDegree = degrees[i]
		}
	}
	for _, d := range degrees {
		total += d / maxDegree
	}
	return total, nil
}

// semanticScore approximates cosine similarity of the path's textual
// description against the query text using a bag-of-words overlap; the
// pattern executor has no direct embedder dependency, so this stays a
// lightweight lexical proxy rather than a true vector comparison.
func semanticScore(p graphmodel.MatchedPath, queryText string) float64 {
	if queryText == "" {
		return 0
	}
	queryWords := wordSet(queryText)
	pathWords := wordSet(strings.Join(p.RelationTypes, " "))
	if len(queryWords) == 0 || len(pathWords) == 0 {
		return 0
	}
	var overlap int
	for w := range pathWords {
		if queryWords[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
