package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/graphctx/internal/config"
	"github.com/turtacn/graphctx/internal/infrastructure/cache"
	"github.com/turtacn/graphctx/internal/infrastructure/database/neo4j"
	"github.com/turtacn/graphctx/internal/infrastructure/database/postgres"
	"github.com/turtacn/graphctx/internal/infrastructure/embedding"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/graphctx/internal/infrastructure/search/embedded"
	"github.com/turtacn/graphctx/internal/infrastructure/search/milvus"
	graphctxhttp "github.com/turtacn/graphctx/internal/interfaces/http"
	"github.com/turtacn/graphctx/internal/interfaces/http/handlers"
	"github.com/turtacn/graphctx/internal/interfaces/http/middleware"
	"github.com/turtacn/graphctx/internal/retrieval/orchestrator"
	"github.com/turtacn/graphctx/internal/retrieval/store"
)

// RunAPIServer builds the orchestrator and its backends per cfg, mounts the
// HTTP interface, and serves until ctx is cancelled. It returns once the
// server has shut down cleanly.
func RunAPIServer(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	collector, err := prometheus.NewCollector(toCollectorConfig("apiserver"))
	if err != nil {
		return fmt.Errorf("failed to build metrics collector: %w", err)
	}
	metrics := prometheus.NewRetrievalMetrics(collector)

	graphStore, graphChecker, closeGraph, err := buildGraphStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build graph store: %w", err)
	}
	defer closeGraph()

	chunkStore, chunkChecker, closeChunks, err := buildChunkStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build chunk store: %w", err)
	}
	defer closeChunks()

	embedder, err := embedding.New(toEmbedderConfig(cfg.Embedder))
	if err != nil {
		return fmt.Errorf("failed to build embedder: %w", err)
	}

	resultCache := cache.NewResultCache(toRedisConfig(cfg.Redis), log)
	defer resultCache.Close()

	orch := orchestrator.New(graphStore, chunkStore, embedder, resultCache, metrics, log, toOrchestratorConfig(cfg.Retrieval))

	checkers := []handlers.Checker{graphChecker, &redisHealthAdapter{rc: resultCache}}
	if chunkChecker != nil {
		checkers = append(checkers, chunkChecker)
	}
	healthHandler := handlers.NewHealthHandler("dev", checkers...)

	router := graphctxhttp.NewRouter(graphctxhttp.RouterConfig{
		RetrieveHandler: handlers.NewRetrieveHandler(orch),
		GraphHandler:    handlers.NewGraphHandler(graphStore),
		HealthHandler:   healthHandler,
		MetricsHandler:  collector.Handler(),
		CORSConfig:      middleware.DefaultCORSConfig(),
		LoggingConfig:   middleware.DefaultLoggingConfig(),
		Logger:          log,
	})

	server := graphctxhttp.NewServer(graphctxhttp.ServerConfig{
		Host:            "0.0.0.0",
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, log)

	log.Info("apiserver starting",
		logging.Int("port", cfg.Server.Port),
		logging.String("graph_backend", cfg.Retrieval.GraphBackend),
		logging.String("chunk_backend", cfg.Retrieval.ChunkBackend),
	)
	return server.Start(ctx)
}

// buildGraphStore constructs the GraphStore selected by
// cfg.Retrieval.GraphBackend along with its health checker and a cleanup
// function. The returned closer is always safe to call.
func buildGraphStore(ctx context.Context, cfg *config.Config, log logging.Logger) (store.GraphStore, handlers.Checker, func(), error) {
	switch cfg.Retrieval.GraphBackend {
	case "postgres":
		pool, err := postgres.NewConnectionPool(ctx, toPostgresConfig(cfg.Postgres), log)
		if err != nil {
			return nil, nil, func() {}, err
		}
		return postgres.NewGraphStore(pool), &postgresHealthAdapter{pool: pool}, func() { postgres.Close(pool) }, nil
	default:
		driver, err := neo4j.NewDriver(ctx, toNeo4jConfig(cfg.Neo4j), log)
		if err != nil {
			return nil, nil, func() {}, err
		}
		closeFn := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = driver.Close(shutdownCtx)
		}
		return neo4j.NewGraphStore(driver, log), &neo4jHealthAdapter{driver: driver}, closeFn, nil
	}
}

// buildChunkStore constructs the ChunkStore selected by
// cfg.Retrieval.ChunkBackend. The embedded backend has no external
// dependency to health-check, so its checker is nil.
func buildChunkStore(ctx context.Context, cfg *config.Config, log logging.Logger) (store.ChunkStore, handlers.Checker, func(), error) {
	switch cfg.Retrieval.ChunkBackend {
	case "embedded":
		cs, err := embedded.NewChunkStore(toEmbeddedConfig(cfg.Embedded), log)
		if err != nil {
			return nil, nil, func() {}, err
		}
		return cs, nil, func() {}, nil
	default:
		client, err := milvus.NewClient(ctx, toMilvusConfig(cfg.Milvus), log)
		if err != nil {
			return nil, nil, func() {}, err
		}
		cs := milvus.NewChunkStore(client, cfg.Milvus.CollectionName, cfg.Milvus.EmbeddingDim)
		return cs, &milvusHealthAdapter{client: client}, func() { _ = client.Close() }, nil
	}
}
