package store

import (
	"context"
	"sort"
	"sync"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// InMemoryGraphStore is a GraphStore fixture used by retrieval-core unit
// tests; it is not a production backend. Adjacency is tracked both ways so
// BOTH-direction neighbor lookups never duplicate.
type InMemoryGraphStore struct {
	mu    sync.RWMutex
	nodes map[graphmodel.ID]graphmodel.Node
	edges map[graphmodel.ID]graphmodel.Edge
	// out/in index edge ids by (nodeID, relationType)
	out map[graphmodel.ID]map[string][]graphmodel.ID
	in  map[graphmodel.ID]map[string][]graphmodel.ID

	relationTypes map[string]graphmodel.RelationType
}

// NewInMemoryGraphStore constructs an empty fixture store.
func NewInMemoryGraphStore() *InMemoryGraphStore {
	return &InMemoryGraphStore{
		nodes:         make(map[graphmodel.ID]graphmodel.Node),
		edges:         make(map[graphmodel.ID]graphmodel.Edge),
		out:           make(map[graphmodel.ID]map[string][]graphmodel.ID),
		in:            make(map[graphmodel.ID]map[string][]graphmodel.ID),
		relationTypes: make(map[string]graphmodel.RelationType),
	}
}

func (s *InMemoryGraphStore) Initialize(_ context.Context, relationTypes []graphmodel.RelationType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range relationTypes {
		s.relationTypes[rt.Name] = rt
	}
	return nil
}

func (s *InMemoryGraphStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[graphmodel.ID]graphmodel.Node)
	s.edges = make(map[graphmodel.ID]graphmodel.Edge)
	s.out = make(map[graphmodel.ID]map[string][]graphmodel.ID)
	s.in = make(map[graphmodel.ID]map[string][]graphmodel.ID)
	return nil
}

func (s *InMemoryGraphStore) AddNodes(_ context.Context, nodes []graphmodel.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	return nil
}

func (s *InMemoryGraphStore) AddEdges(_ context.Context, edges []graphmodel.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		if len(s.relationTypes) > 0 {
			if _, ok := s.relationTypes[e.RelationType]; !ok {
				return errors.New(errors.CodeUnknownRelationType, "unregistered relation type: "+e.RelationType)
			}
		}
	}
	for _, e := range edges {
		s.edges[e.ID] = e
		if s.out[e.SourceNodeID] == nil {
			s.out[e.SourceNodeID] = make(map[string][]graphmodel.ID)
		}
		s.out[e.SourceNodeID][e.RelationType] = append(s.out[e.SourceNodeID][e.RelationType], e.ID)
		if s.in[e.TargetNodeID] == nil {
			s.in[e.TargetNodeID] = make(map[string][]graphmodel.ID)
		}
		s.in[e.TargetNodeID][e.RelationType] = append(s.in[e.TargetNodeID][e.RelationType], e.ID)
	}
	return nil
}

func (s *InMemoryGraphStore) FindNodesByLabel(_ context.Context, label string) ([]graphmodel.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graphmodel.Node
	for _, n := range s.nodes {
		if n.Label == label {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *InMemoryGraphStore) GetNode(_ context.Context, id graphmodel.ID) (*graphmodel.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	cp := n
	return &cp, nil
}

func (s *InMemoryGraphStore) GetNeighborsByRelationType(_ context.Context, id graphmodel.ID, relationType string, direction graphmodel.Direction) ([]graphmodel.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[graphmodel.ID]bool)
	var out []graphmodel.Node

	appendNeighbor := func(nodeID graphmodel.ID) {
		if seen[nodeID] {
			return
		}
		if n, ok := s.nodes[nodeID]; ok {
			seen[nodeID] = true
			out = append(out, n)
		}
	}

	if direction == graphmodel.DirectionOutgoing || direction == graphmodel.DirectionBoth {
		for _, eid := range s.out[id][relationType] {
			appendNeighbor(s.edges[eid].TargetNodeID)
		}
	}
	if direction == graphmodel.DirectionIncoming || direction == graphmodel.DirectionBoth {
		for _, eid := range s.in[id][relationType] {
			appendNeighbor(s.edges[eid].SourceNodeID)
		}
	}
	return out, nil
}

func (s *InMemoryGraphStore) FindEdgesForNode(_ context.Context, id graphmodel.ID) ([]graphmodel.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graphmodel.Edge
	for _, e := range s.edges {
		if e.SourceNodeID == id || e.TargetNodeID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryGraphStore) allNeighborIDs(id graphmodel.ID) []graphmodel.ID {
	seen := make(map[graphmodel.ID]bool)
	var out []graphmodel.ID
	for _, relMap := range [2]map[string][]graphmodel.ID{s.out[id], s.in[id]} {
		relTypes := make([]string, 0, len(relMap))
		for rt := range relMap {
			relTypes = append(relTypes, rt)
		}
		sort.Strings(relTypes)

		for _, rt := range relTypes {
			for _, eid := range relMap[rt] {
				e := s.edges[eid]
				other := e.TargetNodeID
				if other == id {
					other = e.SourceNodeID
				}
				if !seen[other] {
					seen[other] = true
					out = append(out, other)
				}
			}
		}
	}
	return out
}

func (s *InMemoryGraphStore) ExtractSubgraph(_ context.Context, seeds []graphmodel.ID, depth int) (graphmodel.Subgraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[graphmodel.ID]bool)
	queue := make([]graphmodel.ID, 0, len(seeds))
	for _, sd := range seeds {
		if !visited[sd] {
			visited[sd] = true
			queue = append(queue, sd)
		}
	}

	frontier := queue
	for d := 0; d < depth; d++ {
		var next []graphmodel.ID
		for _, id := range frontier {
			for _, nb := range s.allNeighborIDs(id) {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		queue = append(queue, next...)
		frontier = next
	}

	var nodes []graphmodel.Node
	for _, id := range queue {
		if n, ok := s.nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}

	var edges []graphmodel.Edge
	for _, e := range s.edges {
		if visited[e.SourceNodeID] && visited[e.TargetNodeID] {
			edges = append(edges, e)
		}
	}

	return graphmodel.Subgraph{Nodes: nodes, Edges: edges}, nil
}

func (s *InMemoryGraphStore) FindShortestPath(_ context.Context, src, dst graphmodel.ID) ([]graphmodel.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if src == dst {
		return []graphmodel.ID{src}, nil
	}

	visited := map[graphmodel.ID]bool{src: true}
	prev := map[graphmodel.ID]graphmodel.ID{}
	queue := []graphmodel.ID{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range s.allNeighborIDs(cur) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			prev[nb] = cur
			if nb == dst {
				path := []graphmodel.ID{dst}
				for at := cur; ; at = prev[at] {
					path = append([]graphmodel.ID{at}, path...)
					if at == src {
						break
					}
				}
				return path, nil
			}
			queue = append(queue, nb)
		}
	}
	return nil, nil
}

func (s *InMemoryGraphStore) GetStatistics(_ context.Context) (graphmodel.GraphStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := graphmodel.GraphStats{
		NodesByLabel: make(map[string]int64),
		EdgesByType:  make(map[string]int64),
	}
	for _, n := range s.nodes {
		stats.NodeCount++
		stats.NodesByLabel[n.Label]++
	}
	for _, e := range s.edges {
		stats.EdgeCount++
		stats.EdgesByType[e.RelationType]++
	}
	if stats.NodeCount > 0 {
		stats.AvgDegree = 2 * float64(stats.EdgeCount) / float64(stats.NodeCount)
	}
	return stats, nil
}

// InMemoryChunkStore is a ChunkStore fixture for unit tests. Similarity is
// plain cosine similarity over float32 vectors.
type InMemoryChunkStore struct {
	mu     sync.RWMutex
	chunks []graphmodel.Chunk
}

// NewInMemoryChunkStore constructs an empty fixture store.
func NewInMemoryChunkStore() *InMemoryChunkStore {
	return &InMemoryChunkStore{}
}

// Seed appends chunks for test setup.
func (s *InMemoryChunkStore) Seed(chunks ...graphmodel.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (sqrt(na) * sqrt(nb))
}

func sqrt(v float64) float64 {
	if v == 0 {
		return 0
	}
	x := v
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

func (s *InMemoryChunkStore) TopKSimilar(_ context.Context, vector []float32, k int) ([]graphmodel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk graphmodel.Chunk
		score float64
	}
	scoredChunks := make([]scored, 0, len(s.chunks))
	for _, c := range s.chunks {
		scoredChunks = append(scoredChunks, scored{c, cosineSimilarity(vector, c.Embedding)})
	}
	sort.SliceStable(scoredChunks, func(i, j int) bool {
		return scoredChunks[i].score > scoredChunks[j].score
	})
	if k > len(scoredChunks) {
		k = len(scoredChunks)
	}
	out := make([]graphmodel.Chunk, k)
	for i := 0; i < k; i++ {
		out[i] = scoredChunks[i].chunk
	}
	return out, nil
}

func (s *InMemoryChunkStore) TopKSimilarWithLabel(ctx context.Context, vector []float32, _ string, k int) ([]graphmodel.Chunk, error) {
	return s.TopKSimilar(ctx, vector, k)
}

func (s *InMemoryChunkStore) FindByLinkedNodeId(_ context.Context, id graphmodel.ID) ([]graphmodel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graphmodel.Chunk
	for _, c := range s.chunks {
		if c.LinkedNodeID != nil && *c.LinkedNodeID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryChunkStore) CountByLinkedNodeId(ctx context.Context, id graphmodel.ID) (int64, error) {
	chunks, _ := s.FindByLinkedNodeId(ctx, id)
	return int64(len(chunks)), nil
}

func (s *InMemoryChunkStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

// StaticEmbedder is an Embedder test double returning the same fixed Vector
// for every input (or Err when set), used where tests need deterministic
// embeddings without calling an external model.
type StaticEmbedder struct {
	Vector []float32
	Err    error
}

func (e *StaticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Vector, nil
}
