// Package subgraph implements the subgraph extractor and budget enforcer
// (C6): seeded BFS via the GraphStore, followed by a BFS-prioritised
// truncation to a caller-supplied node ceiling that always retains seeds.
package subgraph

import (
	"context"

	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// Extractor bounds a GraphStore's raw subgraph extraction to a node budget.
type Extractor struct {
	graph store.GraphStore
}

// New constructs an Extractor bound to a GraphStore.
func New(graph store.GraphStore) *Extractor {
	return &Extractor{graph: graph}
}

// ExtractBounded calls GraphStore.ExtractSubgraph(seeds, depth), then, if
// the result exceeds maxNodes, truncates it via BFS from seeds (which are
// always retained), filling any remainder from disconnected components in
// source order, and finally drops edges whose endpoints are not both kept.
// maxNodes <= 0 means unbounded.
func (x *Extractor) ExtractBounded(ctx context.Context, seeds []graphmodel.ID, depth, maxNodes int) (graphmodel.Subgraph, error) {
	raw, err := x.graph.ExtractSubgraph(ctx, seeds, depth)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return graphmodel.Subgraph{}, errors.Wrap(ctxErr, errors.CodeCancelled, "subgraph extraction cancelled")
		}
		return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeStoreUnavailable, "subgraph extraction failed")
	}

	if maxNodes <= 0 || len(raw.Nodes) <= maxNodes {
		return raw, nil
	}

	return truncate(raw, seeds, maxNodes), nil
}

func truncate(raw graphmodel.Subgraph, seeds []graphmodel.ID, maxNodes int) graphmodel.Subgraph {
	byID := make(map[graphmodel.ID]graphmodel.Node, len(raw.Nodes))
	order := make([]graphmodel.ID, 0, len(raw.Nodes))
	for _, n := range raw.Nodes {
		if _, exists := byID[n.ID]; !exists {
			order = append(order, n.ID)
		}
		byID[n.ID] = n
	}

	adjacency := make(map[graphmodel.ID][]graphmodel.ID)
	for _, e := range raw.Edges {
		adjacency[e.SourceNodeID] = append(adjacency[e.SourceNodeID], e.TargetNodeID)
		adjacency[e.TargetNodeID] = append(adjacency[e.TargetNodeID], e.SourceNodeID)
	}

	kept := make(map[graphmodel.ID]bool)
	var queue []graphmodel.ID

	for _, s := range seeds {
		if _, exists := byID[s]; exists && !kept[s] {
			kept[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 && len(kept) < maxNodes {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range adjacency[cur] {
			if len(kept) >= maxNodes {
				break
			}
			if !kept[nb] {
				kept[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	if len(kept) < maxNodes {
		for _, id := range order {
			if len(kept) >= maxNodes {
				break
			}
			if !kept[id] {
				kept[id] = true
			}
		}
	}

	var keptNodes []graphmodel.Node
	for _, id := range order {
		if kept[id] {
			keptNodes = append(keptNodes, byID[id])
		}
	}

	var keptEdges []graphmodel.Edge
	for _, e := range raw.Edges {
		if kept[e.SourceNodeID] && kept[e.TargetNodeID] {
			keptEdges = append(keptEdges, e)
		}
	}

	return graphmodel.Subgraph{Nodes: keptNodes, Edges: keptEdges}
}
