package postgres

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// GraphStore implements store.GraphStore over a Postgres adjacency-list
// representation: one row per node (graph_nodes), one row per directed edge
// (graph_edges), and a registration table (graph_relation_types) enforcing
// the same "unregistered relation type" invariant the other backends share.
type GraphStore struct {
	pool *pgxpool.Pool

	mu            sync.RWMutex
	relationTypes map[string]graphmodel.RelationType
}

// NewGraphStore constructs a Postgres-backed GraphStore.
func NewGraphStore(pool *pgxpool.Pool) *GraphStore {
	return &GraphStore{pool: pool, relationTypes: make(map[string]graphmodel.RelationType)}
}

func scanNode(row pgx.Row) (graphmodel.Node, error) {
	var n graphmodel.Node
	var propsRaw []byte
	if err := row.Scan(&n.ID, &n.Label, &n.VectorizableContent, &propsRaw, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return graphmodel.Node{}, err
	}
	if len(propsRaw) > 0 {
		if err := json.Unmarshal(propsRaw, &n.Properties); err != nil {
			return graphmodel.Node{}, err
		}
	}
	return n, nil
}

func scanEdge(row pgx.Row) (graphmodel.Edge, error) {
	var e graphmodel.Edge
	var propsRaw []byte
	var semantics string
	if err := row.Scan(&e.ID, &e.SourceNodeID, &e.TargetNodeID, &e.RelationType, &e.Weight, &propsRaw, &semantics); err != nil {
		return graphmodel.Edge{}, err
	}
	if len(propsRaw) > 0 {
		if err := json.Unmarshal(propsRaw, &e.Properties); err != nil {
			return graphmodel.Edge{}, err
		}
	}
	e.Semantics = graphmodel.EdgeSemantics(semantics)
	return e, nil
}

const nodeColumns = "id, label, vectorizable_content, properties, created_at, updated_at"
const edgeColumns = "id, source_node_id, target_node_id, relation_type, weight, properties, semantics"

func (g *GraphStore) FindNodesByLabel(ctx context.Context, label string) ([]graphmodel.Node, error) {
	rows, err := g.pool.Query(ctx, "SELECT "+nodeColumns+" FROM graph_nodes WHERE label = $1", label)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "findNodesByLabel failed")
	}
	defer rows.Close()

	var nodes []graphmodel.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "findNodesByLabel scan failed")
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (g *GraphStore) GetNode(ctx context.Context, id graphmodel.ID) (*graphmodel.Node, error) {
	row := g.pool.QueryRow(ctx, "SELECT "+nodeColumns+" FROM graph_nodes WHERE id = $1", id)
	n, err := scanNode(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "getNode failed")
	}
	return &n, nil
}

func (g *GraphStore) GetNeighborsByRelationType(ctx context.Context, id graphmodel.ID, relationType string, direction graphmodel.Direction) ([]graphmodel.Node, error) {
	var query string
	switch direction {
	case graphmodel.DirectionIncoming:
		query = "SELECT n." + nodeColumns + " FROM graph_nodes n JOIN graph_edges e ON e.source_node_id = n.id WHERE e.target_node_id = $1 AND e.relation_type = $2"
	case graphmodel.DirectionBoth:
		query = `SELECT n.` + nodeColumns + ` FROM graph_nodes n JOIN graph_edges e
			ON (e.target_node_id = n.id AND e.source_node_id = $1) OR (e.source_node_id = n.id AND e.target_node_id = $1)
			WHERE e.relation_type = $2`
	default:
		query = "SELECT n." + nodeColumns + " FROM graph_nodes n JOIN graph_edges e ON e.target_node_id = n.id WHERE e.source_node_id = $1 AND e.relation_type = $2"
	}

	rows, err := g.pool.Query(ctx, query, id, relationType)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "getNeighborsByRelationType failed")
	}
	defer rows.Close()

	seen := make(map[graphmodel.ID]bool)
	var nodes []graphmodel.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "getNeighborsByRelationType scan failed")
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (g *GraphStore) FindEdgesForNode(ctx context.Context, id graphmodel.ID) ([]graphmodel.Edge, error) {
	rows, err := g.pool.Query(ctx,
		"SELECT "+edgeColumns+" FROM graph_edges WHERE source_node_id = $1 OR target_node_id = $1", id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "findEdgesForNode failed")
	}
	defer rows.Close()

	var edges []graphmodel.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "findEdgesForNode scan failed")
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// undirectedNeighborIDs returns, for id, every node reachable via one hop of
// any relation type in either direction. Used by the BFS-based
// ExtractSubgraph and FindShortestPath below, mirroring the in-memory
// store's own adjacency walk but sourced from SQL per level.
func (g *GraphStore) undirectedNeighborIDs(ctx context.Context, id graphmodel.ID) ([]graphmodel.ID, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT target_node_id FROM graph_edges WHERE source_node_id = $1
		 UNION
		 SELECT source_node_id FROM graph_edges WHERE target_node_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []graphmodel.ID
	for rows.Next() {
		var nid graphmodel.ID
		if err := rows.Scan(&nid); err != nil {
			return nil, err
		}
		ids = append(ids, nid)
	}
	return ids, rows.Err()
}

func (g *GraphStore) ExtractSubgraph(ctx context.Context, seeds []graphmodel.ID, depth int) (graphmodel.Subgraph, error) {
	visited := make(map[graphmodel.ID]bool)
	frontier := make([]graphmodel.ID, 0, len(seeds))
	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			frontier = append(frontier, s)
		}
	}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []graphmodel.ID
		for _, id := range frontier {
			neighbors, err := g.undirectedNeighborIDs(ctx, id)
			if err != nil {
				return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph BFS failed")
			}
			for _, n := range neighbors {
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	ids := make([]graphmodel.ID, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return graphmodel.Subgraph{}, nil
	}

	nodeRows, err := g.pool.Query(ctx, "SELECT "+nodeColumns+" FROM graph_nodes WHERE id = ANY($1)", ids)
	if err != nil {
		return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph node fetch failed")
	}
	defer nodeRows.Close()

	var sub graphmodel.Subgraph
	for nodeRows.Next() {
		n, err := scanNode(nodeRows)
		if err != nil {
			return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph node scan failed")
		}
		sub.Nodes = append(sub.Nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph node iteration failed")
	}

	edgeRows, err := g.pool.Query(ctx,
		"SELECT "+edgeColumns+" FROM graph_edges WHERE source_node_id = ANY($1) AND target_node_id = ANY($1)", ids)
	if err != nil {
		return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph edge fetch failed")
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		e, err := scanEdge(edgeRows)
		if err != nil {
			return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph edge scan failed")
		}
		sub.Edges = append(sub.Edges, e)
	}
	return sub, edgeRows.Err()
}

func (g *GraphStore) FindShortestPath(ctx context.Context, src, dst graphmodel.ID) ([]graphmodel.ID, error) {
	if src == dst {
		return []graphmodel.ID{src}, nil
	}

	visited := map[graphmodel.ID]bool{src: true}
	parent := map[graphmodel.ID]graphmodel.ID{}
	frontier := []graphmodel.ID{src}

	for len(frontier) > 0 {
		var next []graphmodel.ID
		for _, id := range frontier {
			neighbors, err := g.undirectedNeighborIDs(ctx, id)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeDBQueryError, "findShortestPath BFS failed")
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				parent[n] = id
				if n == dst {
					return reconstructPath(parent, src, dst), nil
				}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return nil, nil
}

func reconstructPath(parent map[graphmodel.ID]graphmodel.ID, src, dst graphmodel.ID) []graphmodel.ID {
	path := []graphmodel.ID{dst}
	cur := dst
	for cur != src {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (g *GraphStore) Initialize(ctx context.Context, relationTypes []graphmodel.RelationType) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return WithTransaction(ctx, g.pool, func(tx pgx.Tx) error {
		for _, rt := range relationTypes {
			_, err := tx.Exec(ctx, `INSERT INTO graph_relation_types (name, source_label, target_label, semantics, directed)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (name) DO UPDATE SET source_label = $2, target_label = $3, semantics = $4, directed = $5`,
				rt.Name, rt.SourceLabel, rt.TargetLabel, string(rt.Semantics), rt.Directed)
			if err != nil {
				return err
			}
			g.relationTypes[rt.Name] = rt
		}
		return nil
	})
}

func (g *GraphStore) Clear(ctx context.Context) error {
	_, err := g.pool.Exec(ctx, "TRUNCATE graph_edges, graph_nodes CASCADE")
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "clear failed")
	}
	return nil
}

func (g *GraphStore) GetStatistics(ctx context.Context) (graphmodel.GraphStats, error) {
	stats := graphmodel.GraphStats{NodesByLabel: make(map[string]int64), EdgesByType: make(map[string]int64)}

	nodeRows, err := g.pool.Query(ctx, "SELECT label, count(*) FROM graph_nodes GROUP BY label")
	if err != nil {
		return graphmodel.GraphStats{}, errors.Wrap(err, errors.CodeDBQueryError, "getStatistics node query failed")
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var label string
		var count int64
		if err := nodeRows.Scan(&label, &count); err != nil {
			return graphmodel.GraphStats{}, errors.Wrap(err, errors.CodeDBQueryError, "getStatistics node scan failed")
		}
		stats.NodesByLabel[label] = count
		stats.NodeCount += count
	}

	edgeRows, err := g.pool.Query(ctx, "SELECT relation_type, count(*) FROM graph_edges GROUP BY relation_type")
	if err != nil {
		return graphmodel.GraphStats{}, errors.Wrap(err, errors.CodeDBQueryError, "getStatistics edge query failed")
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var relType string
		var count int64
		if err := edgeRows.Scan(&relType, &count); err != nil {
			return graphmodel.GraphStats{}, errors.Wrap(err, errors.CodeDBQueryError, "getStatistics edge scan failed")
		}
		stats.EdgesByType[relType] = count
		stats.EdgeCount += count
	}

	if stats.NodeCount > 0 {
		stats.AvgDegree = 2 * float64(stats.EdgeCount) / float64(stats.NodeCount)
	}
	return stats, nil
}

func (g *GraphStore) AddNodes(ctx context.Context, nodes []graphmodel.Node) error {
	err := WithTransaction(ctx, g.pool, func(tx pgx.Tx) error {
		for _, n := range nodes {
			propsRaw, err := json.Marshal(n.Properties)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `INSERT INTO graph_nodes (id, label, vectorizable_content, properties, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET label = $2, vectorizable_content = $3, properties = $4, updated_at = $6`,
				n.ID, n.Label, n.VectorizableContent, propsRaw, n.CreatedAt, n.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "addNodes failed")
	}
	return nil
}

func (g *GraphStore) AddEdges(ctx context.Context, edges []graphmodel.Edge) error {
	g.mu.RLock()
	for _, e := range edges {
		if len(g.relationTypes) > 0 {
			if _, ok := g.relationTypes[e.RelationType]; !ok {
				g.mu.RUnlock()
				return errors.New(errors.CodeUnknownRelationType, "unregistered relation type: "+e.RelationType)
			}
		}
	}
	g.mu.RUnlock()

	err := WithTransaction(ctx, g.pool, func(tx pgx.Tx) error {
		for _, e := range edges {
			propsRaw, err := json.Marshal(e.Properties)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `INSERT INTO graph_edges (id, source_node_id, target_node_id, relation_type, weight, properties, semantics)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET weight = $5, properties = $6, semantics = $7`,
				e.ID, e.SourceNodeID, e.TargetNodeID, e.RelationType, e.EffectiveWeight(), propsRaw, string(e.Semantics))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "addEdges failed")
	}
	return nil
}
