package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultPostgresHost = "localhost"
	DefaultPostgresPort = 5432
	DefaultPostgresDB   = "graphctx"

	DefaultMilvusAddress = "localhost:19530"

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaGroup  = "graphctx-worker"
	DefaultKafkaTopic  = "retrieval.cache.invalidate"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default. Fields already set by the caller (non-zero values) are left
// unchanged so explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 30 * time.Second
	}

	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDB
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 25
	}

	if cfg.Milvus.Address == "" {
		cfg.Milvus.Address = DefaultMilvusAddress
	}
	if cfg.Milvus.CollectionName == "" {
		cfg.Milvus.CollectionName = "chunks"
	}
	if cfg.Milvus.EmbeddingDim == 0 {
		cfg.Milvus.EmbeddingDim = 1536
	}

	if cfg.Embedded.Collection == "" {
		cfg.Embedded.Collection = "chunks"
	}
	if cfg.Embedded.Dim == 0 {
		cfg.Embedded.Dim = 1536
	}

	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = "standalone"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "graphctx:retrieval:"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroup
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}

	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}

	if cfg.Retrieval.GraphBackend == "" {
		cfg.Retrieval.GraphBackend = "neo4j"
	}
	if cfg.Retrieval.ChunkBackend == "" {
		cfg.Retrieval.ChunkBackend = "milvus"
	}
	if cfg.Retrieval.MaxTraversalDepth == 0 {
		cfg.Retrieval.MaxTraversalDepth = 5
	}
	if cfg.Retrieval.MinResultsThreshold == 0 {
		cfg.Retrieval.MinResultsThreshold = 5
	}
	if cfg.Retrieval.DefaultDepth == 0 {
		cfg.Retrieval.DefaultDepth = 2
	}
	if cfg.Retrieval.LevenshteinMaxDistance == 0 {
		cfg.Retrieval.LevenshteinMaxDistance = 2
	}
	if cfg.Retrieval.CacheTTL == 0 {
		cfg.Retrieval.CacheTTL = 5 * time.Minute
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 4
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
