// Package bootstrap wires the retrieval core to its selected backends and
// runs the resulting server/consumer. It exists so cmd/apiserver,
// cmd/worker, and cmd/retrievalctl's "serve" subcommand share one wiring
// path instead of three copies of the same backend-selection logic.
package bootstrap

import (
	"github.com/turtacn/graphctx/internal/config"
	"github.com/turtacn/graphctx/internal/infrastructure/cache"
	"github.com/turtacn/graphctx/internal/infrastructure/database/neo4j"
	"github.com/turtacn/graphctx/internal/infrastructure/database/postgres"
	"github.com/turtacn/graphctx/internal/infrastructure/embedding"
	"github.com/turtacn/graphctx/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/graphctx/internal/infrastructure/search/embedded"
	"github.com/turtacn/graphctx/internal/infrastructure/search/milvus"
	"github.com/turtacn/graphctx/internal/retrieval/orchestrator"
)

// The per-backend Config structs live in their own packages so each backend
// stays independently importable; their field names were settled before
// this wiring layer existed, so conversion here is explicit rather than
// structural.

func toNeo4jConfig(c config.Neo4jConfig) neo4j.Config {
	return neo4j.Config{
		URI:                          c.URI,
		Username:                     c.User,
		Password:                     c.Password,
		Database:                     c.Database,
		MaxConnectionPoolSize:        c.MaxConnectionPoolSize,
		ConnectionAcquisitionTimeout: c.ConnectionTimeout,
	}
}

func toPostgresConfig(c config.PostgresConfig) postgres.Config {
	return postgres.Config{
		Host:                  c.Host,
		Port:                  c.Port,
		User:                  c.User,
		Password:              c.Password,
		Database:              c.Database,
		SSLMode:               c.SSLMode,
		MaxOpenConnections:    c.MaxOpenConns,
		MaxIdleConnections:    c.MaxIdleConns,
		ConnectionMaxLifetime: c.ConnMaxLifetime,
		ConnectionMaxIdleTime: c.ConnMaxIdleTime,
	}
}

func toMilvusConfig(c config.MilvusConfig) milvus.Config {
	return milvus.Config{
		Address:        c.Address,
		Username:       c.Username,
		Password:       c.Password,
		DBName:         c.DBName,
		TLSEnabled:     c.TLSEnabled,
		ConnectTimeout: c.ConnectTimeout,
	}
}

func toEmbeddedConfig(c config.EmbeddedChunkStoreConfig) embedded.Config {
	return embedded.Config{
		PersistPath: c.PersistPath,
		Collection:  c.Collection,
		Dim:         c.Dim,
	}
}

func toRedisConfig(c config.RedisConfig) cache.Config {
	return cache.Config{
		Mode:          c.Mode,
		Addr:          c.Addr,
		MasterName:    c.MasterName,
		SentinelAddrs: c.SentinelAddrs,
		ClusterAddrs:  c.ClusterAddrs,
		Password:      c.Password,
		DB:            c.DB,
		PoolSize:      c.PoolSize,
		DialTimeout:   c.DialTimeout,
		ReadTimeout:   c.ReadTimeout,
		WriteTimeout:  c.WriteTimeout,
		TLSEnabled:    c.TLSEnabled,
		KeyPrefix:     c.KeyPrefix,
	}
}

func toKafkaConfig(c config.KafkaConfig) kafka.Config {
	return kafka.Config{
		Brokers:         c.Brokers,
		GroupID:         c.GroupID,
		Topic:           c.Topic,
		MaxRetries:      c.MaxRetries,
		RetryBackoff:    c.RetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
	}
}

func toEmbedderConfig(c config.EmbedderConfig) embedding.Config {
	return embedding.Config{
		APIKey:       c.APIKey,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		Organization: c.Organization,
		Timeout:      c.Timeout,
	}
}

// ToLoggingConfig converts the root logging section. Exported because every
// cmd/ entry point needs it before bootstrap.Run* can be called.
func ToLoggingConfig(c config.LogConfig) logging.Config {
	return logging.Config{
		Level:            c.Level,
		Format:           c.Format,
		OutputPaths:      c.OutputPaths,
		ErrorOutputPaths: c.ErrorOutputPaths,
	}
}

func toOrchestratorConfig(c config.RetrievalConfig) orchestrator.Config {
	return orchestrator.Config{
		MaxTraversalDepth:      c.MaxTraversalDepth,
		MinResultsThreshold:    c.MinResultsThreshold,
		DefaultDepth:           c.DefaultDepth,
		LevenshteinMaxDistance: c.LevenshteinMaxDistance,
		CacheTTL:               c.CacheTTL,
	}
}

func toCollectorConfig(subsystem string) prometheus.CollectorConfig {
	return prometheus.CollectorConfig{
		Namespace:            "graphctx",
		Subsystem:            subsystem,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}
}
