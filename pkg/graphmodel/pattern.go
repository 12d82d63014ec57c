package graphmodel

// ConstraintType enumerates the predicate kinds a Constraint may apply.
type ConstraintType string

const (
	ConstraintPropertyEquals ConstraintType = "PROPERTY_EQUALS"
	ConstraintPropertyIn     ConstraintType = "PROPERTY_IN"
	ConstraintNotIn          ConstraintType = "NOT_IN"
	ConstraintGreaterThan    ConstraintType = "GREATER_THAN"
	ConstraintLessThan       ConstraintType = "LESS_THAN"
	ConstraintGTE            ConstraintType = "GTE"
	ConstraintLTE            ConstraintType = "LTE"
	ConstraintContains       ConstraintType = "CONTAINS"
	ConstraintStartsWith     ConstraintType = "STARTS_WITH"
	ConstraintEndsWith       ConstraintType = "ENDS_WITH"
	ConstraintRegexMatch     ConstraintType = "REGEX_MATCH"
)

// Constraint pins a predicate to a specific step index in a GraphPattern.
type Constraint struct {
	Type         ConstraintType `json:"type"`
	NodeLabel    string         `json:"nodeLabel,omitempty"`
	PropertyPath string         `json:"propertyPath"`
	Value        interface{}    `json:"value"`
	AtStep       int            `json:"atStep"`
}

// TraversalStep is one hop of a GraphPattern. SourceLabel empty means "use
// the result node of the previous step".
type TraversalStep struct {
	SourceLabel  string    `json:"sourceLabel,omitempty"`
	RelationType string    `json:"relationType"`
	TargetLabel  string    `json:"targetLabel"`
	StepIndex    int       `json:"stepIndex"`
	Direction    Direction `json:"direction"`
}

// GraphPattern is an ordered sequence of traversal steps plus step-pinned
// constraints.
type GraphPattern struct {
	PatternID   string          `json:"patternId"`
	Steps       []TraversalStep `json:"steps"`
	Constraints []Constraint    `json:"constraints,omitempty"`
	Description string          `json:"description,omitempty"`
}

// CombinatorType enumerates how multiple pattern results are merged.
type CombinatorType string

const (
	CombinatorIntersection CombinatorType = "INTERSECTION"
	CombinatorUnion        CombinatorType = "UNION"
	CombinatorSequential   CombinatorType = "SEQUENTIAL"
)

// QueryCombinator composes multiple patterns into one executed strategy.
type QueryCombinator struct {
	Type     CombinatorType `json:"type"`
	Patterns []GraphPattern `json:"patterns"`
}

// RankingStrategy selects the scoring formula applied to matched paths.
type RankingStrategy string

const (
	RankingPathLength     RankingStrategy = "PATH_LENGTH"
	RankingEdgeWeight     RankingStrategy = "EDGE_WEIGHT"
	RankingNodeCentrality RankingStrategy = "NODE_CENTRALITY"
	RankingSemanticScore  RankingStrategy = "SEMANTIC_SCORE"
	RankingHybrid         RankingStrategy = "HYBRID"
)

// Traversal carries the request's traversal settings. Only MaxDepth is read
// (through RetrievalRequest.Depth, for subgraph extraction in both graph
// strata); RelationTypes and Direction are accepted but not applied, and
// extraction walks every relation type in both directions.
type Traversal struct {
	MaxDepth      int       `json:"maxDepth,omitempty"`
	RelationTypes []string  `json:"relationTypes,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
}

// GraphQuery is the structured portion of a retrieval request.
type GraphQuery struct {
	Targets     []ResolutionTarget `json:"targets,omitempty"`
	Traversal   *Traversal         `json:"traversal,omitempty"`
	Patterns    []GraphPattern     `json:"patterns,omitempty"`
	Combinator  *QueryCombinator   `json:"combinator,omitempty"`
	RankingStrategy RankingStrategy `json:"rankingStrategy,omitempty"`
}

// MatchedPath is one path produced by the pattern executor.
type MatchedPath struct {
	PatternID      string                 `json:"patternId"`
	NodeIDs        []ID                   `json:"nodeIds"`
	RelationTypes  []string               `json:"relationTypes"`
	PathProperties map[string]interface{} `json:"pathProperties,omitempty"`
	Score          float64                `json:"score"`
	Explanation    string                 `json:"explanation,omitempty"`
}

// Strategy identifies the fallback stratum that produced a RetrievalResult.
type Strategy string

const (
	StrategyGraphOnly  Strategy = "GRAPH_ONLY"
	StrategyVectorOnly Strategy = "VECTOR_ONLY"
	StrategyHybrid     Strategy = "HYBRID"
	StrategyExpansion  Strategy = "EXPANSION"
)

// RetrievalResult is the final assembled response of an orchestrated
// retrieval request.
type RetrievalResult struct {
	Nodes           []Node   `json:"nodes"`
	Edges           []Edge   `json:"edges"`
	Chunks          []Chunk  `json:"chunks"`
	Strategy        Strategy `json:"strategy"`
	RetrievalTimeMs int64    `json:"retrievalTimeMs"`
	Thin            bool     `json:"thin,omitempty"`
}
