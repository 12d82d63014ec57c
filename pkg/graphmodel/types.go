// Package graphmodel defines the shared data model consumed and produced by
// every retrieval-core package: nodes, edges, chunks, patterns, and the
// result types assembled by the orchestrator. Nothing in this package talks
// to a backend; it is pure data plus the few helpers (dotted-path property
// lookup, constraint evaluation) that operate only on these shapes.
package graphmodel

import (
	"time"

	"github.com/google/uuid"
)

// ID is the 128-bit opaque identifier used for nodes, edges, and chunks.
type ID = uuid.UUID

// NewID generates a fresh random identifier.
func NewID() ID { return uuid.New() }

// ParseID parses a string-form identifier.
func ParseID(s string) (ID, error) { return uuid.Parse(s) }

// EdgeSemantics classifies the relationship a typed edge represents.
type EdgeSemantics string

const (
	SemanticsHierarchy      EdgeSemantics = "HIERARCHY"
	SemanticsClassification EdgeSemantics = "CLASSIFICATION"
	SemanticsAssociation    EdgeSemantics = "ASSOCIATION"
	SemanticsTemporal       EdgeSemantics = "TEMPORAL"
	SemanticsCausality      EdgeSemantics = "CAUSALITY"
	SemanticsAttribution    EdgeSemantics = "ATTRIBUTION"
	SemanticsCustom         EdgeSemantics = "CUSTOM"
)

// Direction qualifies traversal relative to a node.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
	DirectionBoth     Direction = "BOTH"
)

// Properties is the schema-free, JSON-representable value bag attached to
// nodes and edges. Values are scalars, []interface{}, or nested
// map[string]interface{} — never a typed struct.
type Properties map[string]interface{}

// Node is a typed, labeled entity in the property graph.
type Node struct {
	ID                  ID         `json:"id"`
	Label                string     `json:"label"`
	VectorizableContent string     `json:"vectorizableContent,omitempty"`
	Properties           Properties `json:"properties"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	ID           ID            `json:"id"`
	SourceNodeID ID            `json:"sourceNodeId"`
	TargetNodeID ID            `json:"targetNodeId"`
	RelationType string        `json:"relationType"`
	Weight       float64       `json:"weight"`
	Properties   Properties    `json:"properties"`
	Semantics    EdgeSemantics `json:"semantics"`
}

// EffectiveWeight returns Weight, defaulting to 1.0 when unset (zero value).
func (e Edge) EffectiveWeight() float64 {
	if e.Weight == 0 {
		return 1.0
	}
	return e.Weight
}

// Chunk is a unit of retrievable text with a fixed-dimension embedding,
// optionally linked to a graph node.
type Chunk struct {
	ID           ID         `json:"id"`
	Content      string     `json:"content"`
	Embedding    []float32  `json:"embedding"`
	LinkedNodeID *ID        `json:"linkedNodeId,omitempty"`
	Metadata     Properties `json:"metadata"`
}

// RelationType is the schema declaration registered at store initialization.
// Once at least one RelationType is registered, the store rejects an edge
// whose RelationType is not registered; with none registered, it checks none.
type RelationType struct {
	Name        string        `json:"name"`
	SourceLabel string        `json:"sourceLabel"`
	TargetLabel string        `json:"targetLabel"`
	Semantics   EdgeSemantics `json:"semantics"`
	Directed    bool          `json:"directed"`
}

// ResolutionTarget describes an entry point the resolver must turn into seed
// node IDs.
type ResolutionTarget struct {
	Description string     `json:"description"`
	TypeHint    string     `json:"typeHint,omitempty"`
	Properties  Properties `json:"properties,omitempty"`
}

// Subgraph is the node/edge set produced by extraction, before or after
// budget enforcement.
type Subgraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// GraphStats summarizes a GraphStore's current contents.
type GraphStats struct {
	NodeCount   int64            `json:"nodeCount"`
	EdgeCount   int64            `json:"edgeCount"`
	NodesByLabel map[string]int64 `json:"nodesByLabel"`
	EdgesByType  map[string]int64 `json:"edgesByType"`
	AvgDegree    float64          `json:"avgDegree"`
}
