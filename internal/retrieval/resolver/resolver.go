// Package resolver implements the entry-point resolver: turning a list of
// ResolutionTargets into a deduplicated set of seed node IDs, by combining
// exact label lookup, property-heuristic lookup, and vector-nearest-chunk
// lookup.
package resolver

import (
	"context"
	"strings"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/retrieval/levenshtein"
	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// minHeuristicValueLength guards against short codes (values of at most 3
// bytes, such as "Low") spuriously matching a target description.
const minHeuristicValueLength = 3

// Resolver converts ResolutionTargets into seed node IDs.
type Resolver struct {
	graph    store.GraphStore
	chunks   store.ChunkStore
	embedder store.Embedder
	log      logging.Logger
	topK     int

	levenshteinMaxDistance int
}

// New constructs a Resolver. topK bounds the vector-nearest-chunk lookup per
// target; levenshteinMaxDistance bounds the fuzzy property match applied by
// heuristicPropertyMatch (0 falls back to the documented default).
func New(graph store.GraphStore, chunks store.ChunkStore, embedder store.Embedder, log logging.Logger, topK, levenshteinMaxDistance int) *Resolver {
	if topK <= 0 {
		topK = 10
	}
	if levenshteinMaxDistance <= 0 {
		levenshteinMaxDistance = 2
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Resolver{graph: graph, chunks: chunks, embedder: embedder, log: log, topK: topK, levenshteinMaxDistance: levenshteinMaxDistance}
}

// Resolve runs all three strategies for every target, concatenates results
// in the fixed order (label -> heuristic -> vector) per target, then across
// targets, and deduplicates preserving first-seen order. It fails only when
// every strategy across every target failed with an error (not merely
// returned empty results).
func (r *Resolver) Resolve(ctx context.Context, targets []graphmodel.ResolutionTarget) ([]graphmodel.ID, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	var ordered []graphmodel.ID
	seen := make(map[graphmodel.ID]bool)
	append_ := func(ids []graphmodel.ID) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				ordered = append(ordered, id)
			}
		}
	}

	anySucceeded := false
	var lastErr error

	for _, t := range targets {
		labelIDs, err := r.exactLabelMatch(ctx, t)
		if err != nil {
			lastErr = err
		} else {
			anySucceeded = true
			append_(labelIDs)
		}

		heuristicIDs, err := r.heuristicPropertyMatch(ctx, t)
		if err != nil {
			lastErr = err
		} else {
			anySucceeded = true
			append_(heuristicIDs)
		}

		vectorIDs, err := r.vectorNearestChunks(ctx, t)
		if err != nil {
			// Embedding/vector failure is tolerated: skip step 3, keep
			// steps 1-2 (per the resolution algorithm).
			r.log.Warn("vector nearest-chunk resolution failed, continuing without it",
				logging.String("target", t.Description), logging.Err(err))
		} else {
			anySucceeded = true
			append_(vectorIDs)
		}
	}

	if !anySucceeded {
		return nil, errors.Wrap(lastErr, errors.CodeSeedResolutionFailed, "all entry-point resolution strategies failed")
	}
	return ordered, nil
}

func (r *Resolver) exactLabelMatch(ctx context.Context, t graphmodel.ResolutionTarget) ([]graphmodel.ID, error) {
	nodes, err := r.graph.FindNodesByLabel(ctx, t.Description)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreUnavailable, "exact label match failed")
	}
	ids := make([]graphmodel.ID, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

func (r *Resolver) heuristicPropertyMatch(ctx context.Context, t graphmodel.ResolutionTarget) ([]graphmodel.ID, error) {
	if t.TypeHint == "" {
		return nil, nil
	}
	nodes, err := r.graph.FindNodesByLabel(ctx, t.TypeHint)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreUnavailable, "heuristic property match failed")
	}

	var ids []graphmodel.ID
	for _, n := range nodes {
		if r.nodeMatchesDescription(n, t.Description) {
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

// nodeMatchesDescription reports whether a node's property bag plausibly
// names the target description: an exact or substring match first, falling
// back to a fuzzy (Levenshtein-tolerant) comparison so minor spelling or
// capitalization drift in free-text properties doesn't sink the match.
func (r *Resolver) nodeMatchesDescription(n graphmodel.Node, description string) bool {
	for _, v := range n.Properties {
		s, ok := v.(string)
		if !ok || len(s) <= minHeuristicValueLength {
			continue
		}
		if s == description || strings.Contains(description, s) {
			return true
		}
		if levenshtein.FuzzyEquals(s, description, r.levenshteinMaxDistance) {
			return true
		}
	}
	return false
}

func (r *Resolver) vectorNearestChunks(ctx context.Context, t graphmodel.ResolutionTarget) ([]graphmodel.ID, error) {
	if r.embedder == nil || r.chunks == nil {
		return nil, nil
	}
	vec, err := r.embedder.Embed(ctx, t.Description)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEmbedderUnavailable, "embedding failed")
	}
	chunks, err := r.chunks.TopKSimilar(ctx, vec, r.topK)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreUnavailable, "vector nearest-chunk lookup failed")
	}

	var ids []graphmodel.ID
	for _, c := range chunks {
		if c.LinkedNodeID != nil {
			ids = append(ids, *c.LinkedNodeID)
		}
	}
	return ids, nil
}
