// Package orchestrator implements the retrieval orchestrator (C7): the
// 3-level fallback state machine (PATTERN_BASED -> TARGET_VECTOR_FIRST ->
// VECTOR_ONLY) that selects a strategy per request and assembles the final
// RetrievalResult. It is grounded on the same shape as a multi-branch
// errgroup fan-out with per-branch timeouts and cache-aside reads that the
// wider platform uses for its other search surfaces.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/retrieval/combinator"
	"github.com/turtacn/graphctx/internal/retrieval/pattern"
	"github.com/turtacn/graphctx/internal/retrieval/resolver"
	"github.com/turtacn/graphctx/internal/retrieval/store"
	"github.com/turtacn/graphctx/internal/retrieval/subgraph"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// ResultCache is the cache-aside port the orchestrator writes best-effort
// results through. Implementations (e.g. Redis) must tolerate being nil.
type ResultCache interface {
	Get(ctx context.Context, key string) (graphmodel.RetrievalResult, bool)
	Set(ctx context.Context, key string, result graphmodel.RetrievalResult, ttl time.Duration)
}

// MetricsCollector is the metrics port the orchestrator reports through.
type MetricsCollector interface {
	ObserveRetrieval(strategy graphmodel.Strategy, durationMs int64, thin bool)
	IncFallback(fromStrategy, toStrategy string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRetrieval(graphmodel.Strategy, int64, bool) {}
func (noopMetrics) IncFallback(string, string)                       {}

// Config carries the operational knobs named in the external configuration
// contract.
type Config struct {
	MaxTraversalDepth       int
	MinResultsThreshold     int
	DefaultDepth            int
	LevenshteinMaxDistance  int
	CacheTTL                time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxTraversalDepth:      5,
		MinResultsThreshold:    5,
		DefaultDepth:           2,
		LevenshteinMaxDistance: 2,
		CacheTTL:               5 * time.Minute,
	}
}

// Orchestrator wires the resolver, pattern executor, combinator engine, and
// subgraph extractor into the fallback ladder of section 4.7.
type Orchestrator struct {
	graph    store.GraphStore
	chunks   store.ChunkStore
	embedder store.Embedder

	resolver    *resolver.Resolver
	executor    *pattern.Executor
	combinator  *combinator.Engine
	extractor   *subgraph.Extractor

	cache   ResultCache
	metrics MetricsCollector
	log     logging.Logger
	cfg     Config
}

// New constructs an Orchestrator. cache and metrics may be nil.
func New(graph store.GraphStore, chunks store.ChunkStore, embedder store.Embedder, cache ResultCache, metrics MetricsCollector, log logging.Logger, cfg Config) *Orchestrator {
	if log == nil {
		log = logging.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	exec := pattern.New(graph)
	return &Orchestrator{
		graph:      graph,
		chunks:     chunks,
		embedder:   embedder,
		resolver:   resolver.New(graph, chunks, embedder, log, 10, cfg.LevenshteinMaxDistance),
		executor:   exec,
		combinator: combinator.New(exec),
		extractor:  subgraph.New(graph),
		cache:      cache,
		metrics:    metrics,
		log:        log,
		cfg:        cfg,
	}
}

// Retrieve validates req, applies its defaults, runs the fallback ladder,
// and returns the assembled result. The cache is consulted first and
// populated asynchronously, best-effort, on a miss.
func (o *Orchestrator) Retrieve(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, error) {
	start := time.Now()

	req.ApplyDefaults()
	if err := o.validate(&req); err != nil {
		return graphmodel.RetrievalResult{}, err
	}

	cacheKey := generateCacheKey(req)
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	result, err := o.runLadder(ctx, req)
	if err != nil {
		return graphmodel.RetrievalResult{}, err
	}

	result = truncateToBudget(result, req.MaxTokenBudget)
	result.RetrievalTimeMs = time.Since(start).Milliseconds()
	if len(result.Nodes)+len(result.Chunks) < o.effectiveMinResultsThreshold() {
		result.Thin = true
	}

	if o.cache != nil {
		go o.cache.Set(context.WithoutCancel(ctx), cacheKey, result, o.cfg.CacheTTL)
	}

	o.metrics.ObserveRetrieval(result.Strategy, result.RetrievalTimeMs, result.Thin)
	return result, nil
}

func (o *Orchestrator) effectiveMinResultsThreshold() int {
	if o.cfg.MinResultsThreshold > 0 {
		return o.cfg.MinResultsThreshold
	}
	return DefaultConfig().MinResultsThreshold
}

func (o *Orchestrator) validate(req *graphmodel.RetrievalRequest) error {
	if req.Query == "" {
		return errors.InvalidRequest("query must not be blank")
	}
	if len(req.Query) > graphmodel.MaxQueryLength {
		return errors.InvalidRequest("query exceeds maximum length")
	}
	if req.TopK < graphmodel.MinTopK || req.TopK > graphmodel.MaxTopK {
		return errors.InvalidRequest("topK out of range")
	}
	if req.MaxGraphNodes < graphmodel.MinMaxGraphNodes || req.MaxGraphNodes > graphmodel.MaxMaxGraphNodes {
		return errors.InvalidRequest("maxGraphNodes out of range")
	}
	if req.MaxTokenBudget < graphmodel.MinMaxTokenBudget || req.MaxTokenBudget > graphmodel.MaxMaxTokenBudget {
		return errors.InvalidRequest("maxTokenBudget out of range")
	}
	if len(req.SemanticKeywords) > graphmodel.MaxSemanticKeywords {
		return errors.InvalidRequest("too many semanticKeywords")
	}
	for _, k := range req.SemanticKeywords {
		if len(k) > graphmodel.MaxSemanticKeywordLength {
			return errors.InvalidRequest("semanticKeyword exceeds maximum length")
		}
	}
	return nil
}

func (o *Orchestrator) cappedDepth(req graphmodel.RetrievalRequest) int {
	depth := req.Depth()
	if o.cfg.MaxTraversalDepth > 0 && depth > o.cfg.MaxTraversalDepth {
		depth = o.cfg.MaxTraversalDepth
	}
	return depth
}

// runLadder descends PATTERN_BASED -> TARGET_VECTOR_FIRST -> VECTOR_ONLY,
// triggering exactly one descent per empty intermediate result.
func (o *Orchestrator) runLadder(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, error) {
	gq := req.GraphQuery

	if gq != nil && (len(gq.Patterns) > 0 || gq.Combinator != nil) {
		result, ok, err := o.patternBased(ctx, req)
		if err != nil {
			return graphmodel.RetrievalResult{}, err
		}
		if ok {
			return result, nil
		}
		o.metrics.IncFallback(string(graphmodel.StrategyHybrid), "TARGET_VECTOR_FIRST")
	}

	if gq != nil && len(gq.Targets) > 0 {
		result, ok, err := o.targetVectorFirst(ctx, req)
		if err != nil {
			return graphmodel.RetrievalResult{}, err
		}
		if ok {
			return result, nil
		}
		o.metrics.IncFallback("TARGET_VECTOR_FIRST", string(graphmodel.StrategyVectorOnly))
	}

	return o.vectorOnly(ctx, req)
}

func (o *Orchestrator) seedsFromTargets(ctx context.Context, targets []graphmodel.ResolutionTarget) ([]graphmodel.ID, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "retrieval cancelled during seed resolution")
	default:
	}
	return o.resolver.Resolve(ctx, targets)
}

// patternBased: resolve seeds, execute patterns/combinator, extract a
// bounded subgraph around the matched paths and seeds, fetch linked
// chunks, and report HYBRID. Returns ok=false to signal a fallback
// descent on any empty intermediate result.
func (o *Orchestrator) patternBased(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, bool, error) {
	gq := req.GraphQuery

	seeds, err := o.seedsFromTargets(ctx, gq.Targets)
	if err != nil {
		return graphmodel.RetrievalResult{}, false, err
	}
	if len(seeds) == 0 {
		return graphmodel.RetrievalResult{}, false, nil
	}

	strategy := gq.RankingStrategy
	if strategy == "" {
		strategy = graphmodel.RankingHybrid
	}

	var paths []graphmodel.MatchedPath
	if gq.Combinator != nil {
		paths, err = o.combinator.Combine(ctx, *gq.Combinator, seeds, strategy, req.TopK, req.Query)
	} else {
		var all []graphmodel.MatchedPath
		for _, p := range gq.Patterns {
			pp, perr := o.executor.Execute(ctx, p, seeds, strategy, req.TopK, req.Query)
			if perr != nil {
				return graphmodel.RetrievalResult{}, false, perr
			}
			all = append(all, pp...)
		}
		paths = all
	}
	if err != nil {
		return graphmodel.RetrievalResult{}, false, err
	}
	if len(paths) == 0 {
		return graphmodel.RetrievalResult{}, false, nil
	}

	extractIDs := uniqueNodeIDsFromPaths(paths)
	inExtract := make(map[graphmodel.ID]bool, len(extractIDs))
	for _, id := range extractIDs {
		inExtract[id] = true
	}
	for _, id := range seeds {
		if !inExtract[id] {
			inExtract[id] = true
			extractIDs = append(extractIDs, id)
		}
	}
	depth := o.cappedDepth(req)
	sub, err := o.extractor.ExtractBounded(ctx, extractIDs, depth, req.MaxGraphNodes)
	if err != nil {
		return graphmodel.RetrievalResult{}, false, err
	}
	if len(sub.Nodes) == 0 {
		return graphmodel.RetrievalResult{}, false, nil
	}

	chunks, err := o.fetchLinkedChunks(ctx, sub.Nodes)
	if err != nil {
		o.log.Warn("linked chunk fetch failed, continuing without chunks", logging.Err(err))
	}

	return graphmodel.RetrievalResult{
		Nodes:    sub.Nodes,
		Edges:    sub.Edges,
		Chunks:   chunks,
		Strategy: graphmodel.StrategyHybrid,
	}, true, nil
}

// targetVectorFirst: resolve seeds, extract a bounded subgraph around them,
// report GRAPH_ONLY.
func (o *Orchestrator) targetVectorFirst(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, bool, error) {
	gq := req.GraphQuery

	seeds, err := o.seedsFromTargets(ctx, gq.Targets)
	if err != nil {
		return graphmodel.RetrievalResult{}, false, err
	}
	if len(seeds) == 0 {
		return graphmodel.RetrievalResult{}, false, nil
	}

	depth := o.cappedDepth(req)
	sub, err := o.extractor.ExtractBounded(ctx, seeds, depth, req.MaxGraphNodes)
	if err != nil {
		return graphmodel.RetrievalResult{}, false, err
	}
	if len(sub.Nodes) == 0 {
		return graphmodel.RetrievalResult{}, false, nil
	}

	return graphmodel.RetrievalResult{
		Nodes:    sub.Nodes,
		Edges:    sub.Edges,
		Strategy: graphmodel.StrategyGraphOnly,
	}, true, nil
}

// vectorOnly: embed the query, fetch top-K chunks, report VECTOR_ONLY. This
// is the final stratum and never fails out of emptiness, only on hard
// errors.
func (o *Orchestrator) vectorOnly(ctx context.Context, req graphmodel.RetrievalRequest) (graphmodel.RetrievalResult, error) {
	if o.embedder == nil || o.chunks == nil {
		return graphmodel.RetrievalResult{Strategy: graphmodel.StrategyVectorOnly}, nil
	}

	vec, err := o.embedder.Embed(ctx, req.Query)
	if err != nil {
		return graphmodel.RetrievalResult{}, errors.Wrap(err, errors.CodeEmbedderUnavailable, "query embedding failed")
	}

	chunks, err := o.chunks.TopKSimilar(ctx, vec, req.TopK)
	if err != nil {
		return graphmodel.RetrievalResult{}, errors.Wrap(err, errors.CodeStoreUnavailable, "vector-only chunk lookup failed")
	}

	return graphmodel.RetrievalResult{
		Chunks:   chunks,
		Strategy: graphmodel.StrategyVectorOnly,
	}, nil
}

func (o *Orchestrator) fetchLinkedChunks(ctx context.Context, nodes []graphmodel.Node) ([]graphmodel.Chunk, error) {
	if o.chunks == nil {
		return nil, nil
	}
	var out []graphmodel.Chunk
	for _, n := range nodes {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "cancelled during chunk fetch")
		default:
		}
		cs, err := o.chunks.FindByLinkedNodeId(ctx, n.ID)
		if err != nil {
			return out, errors.Wrap(err, errors.CodeStoreUnavailable, "linked chunk lookup failed")
		}
		out = append(out, cs...)
	}
	return out, nil
}

func uniqueNodeIDsFromPaths(paths []graphmodel.MatchedPath) []graphmodel.ID {
	seen := make(map[graphmodel.ID]bool)
	var out []graphmodel.ID
	for _, p := range paths {
		for _, id := range p.NodeIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// generateCacheKey derives a stable sha256-based key from the parts of a
// request that affect its result.
func generateCacheKey(req graphmodel.RetrievalRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// estimateTokens approximates a token count from rune length at the common
// ~4-characters-per-token ratio. Good enough for budget trimming without a
// real tokenizer dependency.
func estimateTokens(s string) int {
	return (len([]rune(s)) + 3) / 4
}

// truncateContent trims content to at most budget estimated tokens and
// returns the budget remaining after accounting for it.
func truncateContent(content string, budget int) (string, int) {
	tokens := estimateTokens(content)
	if tokens <= budget {
		return content, budget - tokens
	}
	if budget <= 0 {
		return "", 0
	}
	runes := []rune(content)
	maxRunes := budget * 4
	if maxRunes > len(runes) {
		maxRunes = len(runes)
	}
	return string(runes[:maxRunes]), 0
}

// truncateToBudget trims chunk and node content so the combined estimated
// token count of the result's free-text fields fits within budget. Graph
// structure (node identity, labels, properties, edges) is never dropped;
// only the text that would be fed to a downstream consumer is reduced, and
// chunks beyond what the remaining budget can hold are dropped outright.
func truncateToBudget(result graphmodel.RetrievalResult, budget int) graphmodel.RetrievalResult {
	if budget <= 0 {
		return result
	}
	remaining := budget

	if len(result.Nodes) > 0 {
		nodes := make([]graphmodel.Node, len(result.Nodes))
		copy(nodes, result.Nodes)
		for i := range nodes {
			nodes[i].VectorizableContent, remaining = truncateContent(nodes[i].VectorizableContent, remaining)
		}
		result.Nodes = nodes
	}

	if len(result.Chunks) > 0 {
		chunks := make([]graphmodel.Chunk, 0, len(result.Chunks))
		for _, c := range result.Chunks {
			if remaining <= 0 {
				break
			}
			c.Content, remaining = truncateContent(c.Content, remaining)
			chunks = append(chunks, c)
		}
		result.Chunks = chunks
	}

	return result
}
