package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// GraphStore implements store.GraphStore against a Neo4j property graph.
// Node labels and edge relation types map directly onto Neo4j labels and
// relationship types.
type GraphStore struct {
	driver        *Driver
	log           logging.Logger
	relationTypes map[string]graphmodel.RelationType
}

// NewGraphStore constructs a Neo4j-backed GraphStore.
func NewGraphStore(driver *Driver, log logging.Logger) *GraphStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &GraphStore{driver: driver, log: log, relationTypes: make(map[string]graphmodel.RelationType)}
}

func nodeToProps(n graphmodel.Node) map[string]any {
	props := map[string]any{
		"id":                   n.ID.String(),
		"vectorizableContent":  n.VectorizableContent,
		"createdAt":            n.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":            n.UpdatedAt.Format(time.RFC3339Nano),
	}
	for k, v := range n.Properties {
		props["p_"+k] = v
	}
	return props
}

func mapRecordToNode(node neo4jdriver.Node) (graphmodel.Node, error) {
	idStr, _ := node.Props["id"].(string)
	id, err := graphmodel.ParseID(idStr)
	if err != nil {
		return graphmodel.Node{}, err
	}

	label := ""
	if len(node.Labels) > 0 {
		label = node.Labels[0]
	}

	props := graphmodel.Properties{}
	for k, v := range node.Props {
		if strings.HasPrefix(k, "p_") {
			props[strings.TrimPrefix(k, "p_")] = v
		}
	}

	n := graphmodel.Node{ID: id, Label: label, Properties: props}
	if v, ok := node.Props["vectorizableContent"].(string); ok {
		n.VectorizableContent = v
	}
	return n, nil
}

func mapRecordToEdge(rel neo4jdriver.Relationship, sourceID, targetID graphmodel.ID) (graphmodel.Edge, error) {
	idStr, _ := rel.Props["id"].(string)
	id, err := graphmodel.ParseID(idStr)
	if err != nil {
		return graphmodel.Edge{}, err
	}

	props := graphmodel.Properties{}
	for k, v := range rel.Props {
		if strings.HasPrefix(k, "p_") {
			props[strings.TrimPrefix(k, "p_")] = v
		}
	}

	weight := 1.0
	if w, ok := rel.Props["weight"].(float64); ok {
		weight = w
	}
	semantics := graphmodel.SemanticsCustom
	if s, ok := rel.Props["semantics"].(string); ok {
		semantics = graphmodel.EdgeSemantics(s)
	}

	return graphmodel.Edge{
		ID:           id,
		SourceNodeID: sourceID,
		TargetNodeID: targetID,
		RelationType: rel.Type,
		Weight:       weight,
		Properties:   props,
		Semantics:    semantics,
	}, nil
}

func directionPattern(direction graphmodel.Direction, relType string) string {
	switch direction {
	case graphmodel.DirectionIncoming:
		return fmt.Sprintf("<-[r:`%s`]-", relType)
	case graphmodel.DirectionBoth:
		return fmt.Sprintf("-[r:`%s`]-", relType)
	default:
		return fmt.Sprintf("-[r:`%s`]->", relType)
	}
}

func (g *GraphStore) FindNodesByLabel(ctx context.Context, label string) ([]graphmodel.Node, error) {
	cypher := fmt.Sprintf("MATCH (n:`%s`) RETURN n", sanitizeIdentifier(label))
	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		var nodes []graphmodel.Node
		for _, rec := range records {
			raw, _ := rec.Get("n")
			neoNode, ok := raw.(neo4jdriver.Node)
			if !ok {
				continue
			}
			n, err := mapRecordToNode(neoNode)
			if err != nil {
				continue
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "findNodesByLabel failed")
	}
	return result.([]graphmodel.Node), nil
}

func (g *GraphStore) GetNode(ctx context.Context, id graphmodel.ID) (*graphmodel.Node, error) {
	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (n {id: $id}) RETURN n", map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, nil // not found is success-with-empty
		}
		raw, _ := rec.Get("n")
		neoNode, ok := raw.(neo4jdriver.Node)
		if !ok {
			return nil, nil
		}
		n, err := mapRecordToNode(neoNode)
		if err != nil {
			return nil, err
		}
		return &n, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "getNode failed")
	}
	if result == nil {
		return nil, nil
	}
	return result.(*graphmodel.Node), nil
}

func (g *GraphStore) GetNeighborsByRelationType(ctx context.Context, id graphmodel.ID, relationType string, direction graphmodel.Direction) ([]graphmodel.Node, error) {
	pattern := directionPattern(direction, sanitizeIdentifier(relationType))
	cypher := fmt.Sprintf("MATCH (a {id: $id})%s(b) RETURN DISTINCT b", pattern)

	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		var nodes []graphmodel.Node
		for _, rec := range records {
			raw, _ := rec.Get("b")
			neoNode, ok := raw.(neo4jdriver.Node)
			if !ok {
				continue
			}
			n, err := mapRecordToNode(neoNode)
			if err != nil {
				continue
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "getNeighborsByRelationType failed")
	}
	return result.([]graphmodel.Node), nil
}

func (g *GraphStore) ExtractSubgraph(ctx context.Context, seeds []graphmodel.ID, depth int) (graphmodel.Subgraph, error) {
	seedStrs := make([]string, len(seeds))
	for i, s := range seeds {
		seedStrs[i] = s.String()
	}

	cypher := `
		MATCH (seed) WHERE seed.id IN $seeds
		CALL apoc.path.subgraphAll(seed, {maxLevel: $depth}) YIELD nodes, relationships
		RETURN nodes, relationships`

	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"seeds": seedStrs, "depth": depth})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		var sub graphmodel.Subgraph
		idByElementID := make(map[string]graphmodel.ID)

		for _, rec := range records {
			rawNodes, _ := rec.Get("nodes")
			nodeList, _ := rawNodes.([]any)
			for _, rn := range nodeList {
				neoNode, ok := rn.(neo4jdriver.Node)
				if !ok {
					continue
				}
				n, err := mapRecordToNode(neoNode)
				if err != nil {
					continue
				}
				idByElementID[neoNode.ElementId] = n.ID
				sub.Nodes = append(sub.Nodes, n)
			}

			rawRels, _ := rec.Get("relationships")
			relList, _ := rawRels.([]any)
			for _, rr := range relList {
				neoRel, ok := rr.(neo4jdriver.Relationship)
				if !ok {
					continue
				}
				srcID, srcOK := idByElementID[neoRel.StartElementId]
				dstID, dstOK := idByElementID[neoRel.EndElementId]
				if !srcOK || !dstOK {
					continue
				}
				e, err := mapRecordToEdge(neoRel, srcID, dstID)
				if err != nil {
					continue
				}
				sub.Edges = append(sub.Edges, e)
			}
		}
		return sub, nil
	})
	if err != nil {
		return graphmodel.Subgraph{}, errors.Wrap(err, errors.CodeDBQueryError, "extractSubgraph failed")
	}
	return result.(graphmodel.Subgraph), nil
}

func (g *GraphStore) FindShortestPath(ctx context.Context, src, dst graphmodel.ID) ([]graphmodel.ID, error) {
	cypher := `MATCH (a {id: $src}), (b {id: $dst}),
		p = shortestPath((a)-[*..15]-(b))
		RETURN [n IN nodes(p) | n.id] AS ids`

	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"src": src.String(), "dst": dst.String()})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		raw, _ := rec.Get("ids")
		rawIDs, _ := raw.([]any)

		ids := make([]graphmodel.ID, 0, len(rawIDs))
		for _, r := range rawIDs {
			s, _ := r.(string)
			id, err := graphmodel.ParseID(s)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return ids, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "findShortestPath failed")
	}
	if result == nil {
		return nil, nil
	}
	return result.([]graphmodel.ID), nil
}

func (g *GraphStore) FindEdgesForNode(ctx context.Context, id graphmodel.ID) ([]graphmodel.Edge, error) {
	cypher := `MATCH (a {id: $id})-[r]-(b) RETURN r, a.id AS aid, b.id AS bid, startNode(r).id AS startId`

	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]bool)
		var edges []graphmodel.Edge
		for _, rec := range records {
			raw, _ := rec.Get("r")
			neoRel, ok := raw.(neo4jdriver.Relationship)
			if !ok || seen[neoRel.ElementId] {
				continue
			}
			seen[neoRel.ElementId] = true

			startIDStr, _ := rec.Get("startId")
			startID, err := graphmodel.ParseID(startIDStr.(string))
			if err != nil {
				continue
			}
			aIDStr, _ := rec.Get("aid")
			bIDStr, _ := rec.Get("bid")
			aID, _ := graphmodel.ParseID(aIDStr.(string))
			bID, _ := graphmodel.ParseID(bIDStr.(string))

			targetID := bID
			if startID != aID {
				targetID = aID
			}
			e, err := mapRecordToEdge(neoRel, startID, targetID)
			if err != nil {
				continue
			}
			edges = append(edges, e)
		}
		return edges, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "findEdgesForNode failed")
	}
	return result.([]graphmodel.Edge), nil
}

func (g *GraphStore) Initialize(_ context.Context, relationTypes []graphmodel.RelationType) error {
	for _, rt := range relationTypes {
		g.relationTypes[rt.Name] = rt
	}
	return nil
}

func (g *GraphStore) Clear(ctx context.Context) error {
	_, err := g.driver.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "clear failed")
	}
	return nil
}

func (g *GraphStore) GetStatistics(ctx context.Context) (graphmodel.GraphStats, error) {
	result, err := g.driver.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		stats := graphmodel.GraphStats{NodesByLabel: make(map[string]int64), EdgesByType: make(map[string]int64)}

		nodeRes, err := tx.Run(ctx, "MATCH (n) RETURN labels(n)[0] AS label, count(*) AS cnt", nil)
		if err != nil {
			return nil, err
		}
		nodeRecords, err := nodeRes.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range nodeRecords {
			label, _ := rec.Get("label")
			cnt, _ := rec.Get("cnt")
			labelStr, _ := label.(string)
			count, _ := cnt.(int64)
			stats.NodesByLabel[labelStr] = count
			stats.NodeCount += count
		}

		edgeRes, err := tx.Run(ctx, "MATCH ()-[r]->() RETURN type(r) AS relType, count(*) AS cnt", nil)
		if err != nil {
			return nil, err
		}
		edgeRecords, err := edgeRes.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range edgeRecords {
			relType, _ := rec.Get("relType")
			cnt, _ := rec.Get("cnt")
			relTypeStr, _ := relType.(string)
			count, _ := cnt.(int64)
			stats.EdgesByType[relTypeStr] = count
			stats.EdgeCount += count
		}

		if stats.NodeCount > 0 {
			stats.AvgDegree = 2 * float64(stats.EdgeCount) / float64(stats.NodeCount)
		}
		return stats, nil
	})
	if err != nil {
		return graphmodel.GraphStats{}, errors.Wrap(err, errors.CodeDBQueryError, "getStatistics failed")
	}
	return result.(graphmodel.GraphStats), nil
}

func (g *GraphStore) AddNodes(ctx context.Context, nodes []graphmodel.Node) error {
	_, err := g.driver.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		for _, n := range nodes {
			cypher := fmt.Sprintf("MERGE (n:`%s` {id: $id}) SET n += $props", sanitizeIdentifier(n.Label))
			if _, err := tx.Run(ctx, cypher, map[string]any{"id": n.ID.String(), "props": nodeToProps(n)}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "addNodes failed")
	}
	return nil
}

func (g *GraphStore) AddEdges(ctx context.Context, edges []graphmodel.Edge) error {
	for _, e := range edges {
		if len(g.relationTypes) > 0 {
			if _, ok := g.relationTypes[e.RelationType]; !ok {
				return errors.New(errors.CodeUnknownRelationType, "unregistered relation type: "+e.RelationType)
			}
		}
	}

	_, err := g.driver.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		for _, e := range edges {
			cypher := fmt.Sprintf(`MATCH (a {id: $src}), (b {id: $dst})
				MERGE (a)-[r:`+"`%s`"+`]->(b) SET r.id = $id, r.weight = $weight, r.semantics = $semantics`, sanitizeIdentifier(e.RelationType))
			params := map[string]any{
				"src":       e.SourceNodeID.String(),
				"dst":       e.TargetNodeID.String(),
				"id":        e.ID.String(),
				"weight":    e.EffectiveWeight(),
				"semantics": string(e.Semantics),
			}
			if _, err := tx.Run(ctx, cypher, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "addEdges failed")
	}
	return nil
}

// sanitizeIdentifier strips backticks from a user-supplied label or
// relation type before interpolating it into Cypher, since Neo4j has no
// parameterized way to bind labels/types.
func sanitizeIdentifier(s string) string {
	return strings.ReplaceAll(s, "`", "")
}
