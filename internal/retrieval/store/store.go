// Package store defines the capability interfaces the retrieval core
// consumes: GraphStore, ChunkStore, and Embedder. Every backend
// (Neo4j, Postgres-adjacency, Milvus, embedded-analytic, OpenAI) is a
// tagged variant of one of these interfaces from the core's perspective;
// no inheritance hierarchy is involved.
package store

import (
	"context"

	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// GraphStore is the typed labeled property graph the core traverses.
// Implementations must be safe for concurrent read from multiple requests.
type GraphStore interface {
	// FindNodesByLabel returns every node with exactly the given label.
	// Ordering is unordered; deterministic per fixed store contents.
	FindNodesByLabel(ctx context.Context, label string) ([]graphmodel.Node, error)

	// GetNode returns the node with id, or (nil, nil) when absent.
	// Absence is success, never an error.
	GetNode(ctx context.Context, id graphmodel.ID) (*graphmodel.Node, error)

	// GetNeighborsByRelationType returns nodes reachable from id via a
	// single edge of relationType in the given direction. BOTH unions
	// OUTGOING and INCOMING without duplication.
	GetNeighborsByRelationType(ctx context.Context, id graphmodel.ID, relationType string, direction graphmodel.Direction) ([]graphmodel.Node, error)

	// ExtractSubgraph runs an undirected BFS from seeds up to depth hops,
	// returning every node reached (seeds included, when present in the
	// store) and every edge whose both endpoints are in that node set.
	ExtractSubgraph(ctx context.Context, seeds []graphmodel.ID, depth int) (graphmodel.Subgraph, error)

	// FindShortestPath returns an ordered id list from src to dst, or an
	// empty slice when no path exists within the backend's max depth.
	FindShortestPath(ctx context.Context, src, dst graphmodel.ID) ([]graphmodel.ID, error)

	// FindEdgesForNode returns every edge touching id, incoming and
	// outgoing.
	FindEdgesForNode(ctx context.Context, id graphmodel.ID) ([]graphmodel.Edge, error)

	// Initialize registers the relation-type schema. Once at least one type
	// is registered, writes carrying an unregistered relationType are
	// rejected; while the registry is empty, no relationType is rejected.
	Initialize(ctx context.Context, relationTypes []graphmodel.RelationType) error

	// Clear wipes all nodes and edges.
	Clear(ctx context.Context) error

	// GetStatistics summarizes the current graph contents.
	GetStatistics(ctx context.Context) (graphmodel.GraphStats, error)

	// AddNodes inserts nodes in a single all-or-nothing transaction.
	AddNodes(ctx context.Context, nodes []graphmodel.Node) error

	// AddEdges inserts edges in a single all-or-nothing transaction.
	// An edge whose RelationType was not registered via Initialize fails
	// the whole batch with an UnknownRelationType error. When no relation
	// type has been registered at all, edges are not checked.
	AddEdges(ctx context.Context, edges []graphmodel.Edge) error
}

// ChunkStore is the vector-searchable text-chunk store the core consumes
// for similarity lookup and node-linked chunk retrieval.
type ChunkStore interface {
	// TopKSimilar returns at most k chunks ordered by descending
	// similarity; index i < j implies chunk i is at-least-as-relevant.
	TopKSimilar(ctx context.Context, vector []float32, k int) ([]graphmodel.Chunk, error)

	// TopKSimilarWithLabel is TopKSimilar filtered by a hint label, when
	// the backend supports label-scoped search. Backends without label
	// support may ignore the label and behave like TopKSimilar.
	TopKSimilarWithLabel(ctx context.Context, vector []float32, label string, k int) ([]graphmodel.Chunk, error)

	// FindByLinkedNodeId returns every chunk whose LinkedNodeID equals id.
	FindByLinkedNodeId(ctx context.Context, id graphmodel.ID) ([]graphmodel.Chunk, error)

	// CountByLinkedNodeId returns the number of chunks linked to id.
	CountByLinkedNodeId(ctx context.Context, id graphmodel.ID) (int64, error)

	// DeleteAll wipes every chunk in the store.
	DeleteAll(ctx context.Context) error
}

// Embedder turns text into a fixed-dimension embedding vector. Errors
// surface as an embedding failure; the resolver and orchestrator degrade
// gracefully around them rather than failing the whole request.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
