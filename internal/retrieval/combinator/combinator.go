// Package combinator implements the combinator engine (C5): applying
// INTERSECTION, UNION, or SEQUENTIAL across multiple GraphPattern
// executions.
package combinator

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/graphctx/internal/retrieval/pattern"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// Engine runs a QueryCombinator across a set of patterns using an Executor.
type Engine struct {
	executor *pattern.Executor
}

// New constructs a combinator Engine bound to a pattern Executor.
func New(executor *pattern.Executor) *Engine {
	return &Engine{executor: executor}
}

// Combine executes combinator.Patterns against seeds and merges their
// results per combinator.Type. Failure in any sub-pattern yields an empty
// result list for that sub-pattern rather than an error, so a partial
// union or intersection remains useful.
func (e *Engine) Combine(ctx context.Context, combinator graphmodel.QueryCombinator, seeds []graphmodel.ID, strategy graphmodel.RankingStrategy, maxPaths int, queryText string) ([]graphmodel.MatchedPath, error) {
	if len(combinator.Patterns) == 0 {
		return nil, nil
	}

	switch combinator.Type {
	case graphmodel.CombinatorSequential:
		return e.sequential(ctx, combinator.Patterns, seeds, strategy, maxPaths, queryText)
	case graphmodel.CombinatorIntersection:
		results := e.runAllIndependently(ctx, combinator.Patterns, seeds, strategy, maxPaths, queryText)
		return e.intersection(results, strategy, maxPaths), nil
	default: // UNION
		results := e.runAllIndependently(ctx, combinator.Patterns, seeds, strategy, maxPaths, queryText)
		return e.union(results, strategy, maxPaths), nil
	}
}

// runAllIndependently executes every pattern against the same seed set
// concurrently, since sub-patterns are independent of one another. A
// per-pattern failure is swallowed to an empty slice rather than failing
// the whole fan-out: the combinator tolerates partial sub-pattern failure
// by design.
func (e *Engine) runAllIndependently(ctx context.Context, patterns []graphmodel.GraphPattern, seeds []graphmodel.ID, strategy graphmodel.RankingStrategy, maxPaths int, queryText string) [][]graphmodel.MatchedPath {
	results := make([][]graphmodel.MatchedPath, len(patterns))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range patterns {
		i, p := i, p
		g.Go(func() error {
			paths, err := e.executor.Execute(gctx, p, seeds, strategy, maxPaths, queryText)
			if err != nil {
				return nil
			}
			results[i] = paths
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) union(results [][]graphmodel.MatchedPath, strategy graphmodel.RankingStrategy, maxPaths int) []graphmodel.MatchedPath {
	var all []graphmodel.MatchedPath
	for _, r := range results {
		all = append(all, r...)
	}
	return sortAndTruncate(all, maxPaths)
}

// intersection computes the common-node set C across every pattern's
// matched paths, then returns the paths in results[0] that share at least
// one node with C. A node is "common" if it appears in every pattern's
// matches. This is the explicit reading this engine codifies: a
// common-node filter over pattern 0's own paths, not a stricter
// every-pattern-membership check on paths themselves.
func (e *Engine) intersection(results [][]graphmodel.MatchedPath, strategy graphmodel.RankingStrategy, maxPaths int) []graphmodel.MatchedPath {
	if len(results) == 0 || len(results[0]) == 0 {
		return nil
	}

	nodeSets := make([]map[graphmodel.ID]bool, len(results))
	for i, paths := range results {
		set := make(map[graphmodel.ID]bool)
		for _, p := range paths {
			for _, id := range p.NodeIDs {
				set[id] = true
			}
		}
		nodeSets[i] = set
	}

	common := make(map[graphmodel.ID]bool)
	for id := range nodeSets[0] {
		inAll := true
		for i := 1; i < len(nodeSets); i++ {
			if !nodeSets[i][id] {
				inAll = false
				break
			}
		}
		if inAll {
			common[id] = true
		}
	}

	var out []graphmodel.MatchedPath
	for _, p := range results[0] {
		sharesCommonNode := false
		for _, id := range p.NodeIDs {
			if common[id] {
				sharesCommonNode = true
				break
			}
		}
		if sharesCommonNode {
			out = append(out, p)
		}
	}

	return sortAndTruncate(out, maxPaths)
}

// sequential executes patterns[0] from the original seeds, then feeds the
// terminal nodes of pattern i's paths as seeds into pattern i+1, concatenating
// every stage's output before the final sort/truncate. This is the
// explicit SEQUENTIAL contract; it is never aliased to UNION.
func (e *Engine) sequential(ctx context.Context, patterns []graphmodel.GraphPattern, seeds []graphmodel.ID, strategy graphmodel.RankingStrategy, maxPaths int, queryText string) ([]graphmodel.MatchedPath, error) {
	var all []graphmodel.MatchedPath
	currentSeeds := seeds

	for _, p := range patterns {
		paths, err := e.executor.Execute(ctx, p, currentSeeds, strategy, maxPaths, queryText)
		if err != nil {
			// tolerate: this stage contributes nothing, and has no
			// terminal nodes to reseed the next stage with.
			currentSeeds = nil
			continue
		}
		all = append(all, paths...)

		terminalSeen := make(map[graphmodel.ID]bool)
		var terminals []graphmodel.ID
		for _, path := range paths {
			tail := path.NodeIDs[len(path.NodeIDs)-1]
			if !terminalSeen[tail] {
				terminalSeen[tail] = true
				terminals = append(terminals, tail)
			}
		}
		currentSeeds = terminals

		if len(currentSeeds) == 0 {
			break
		}
	}

	return sortAndTruncate(all, maxPaths), nil
}

func sortAndTruncate(paths []graphmodel.MatchedPath, maxPaths int) []graphmodel.MatchedPath {
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].Score != paths[j].Score {
			return paths[i].Score > paths[j].Score
		}
		return lexLess(paths[i].NodeIDs, paths[j].NodeIDs)
	})
	if maxPaths > 0 && len(paths) > maxPaths {
		paths = paths[:maxPaths]
	}
	return paths
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
