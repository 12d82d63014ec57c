// Package config defines every configuration structure consumed by the
// retrieval core and its backends. No I/O or parsing logic lives here —
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables for cmd/apiserver.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Neo4jConfig holds connection parameters for the Neo4j GraphStore backend.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// PostgresConfig holds connection parameters for the SQL-adjacency
// GraphStore backend.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// MilvusConfig holds connection parameters for the Milvus ChunkStore
// backend.
type MilvusConfig struct {
	Address          string        `mapstructure:"address"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	TLSEnabled       bool          `mapstructure:"tls_enabled"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	CollectionName   string        `mapstructure:"collection_name"`
	EmbeddingDim     int           `mapstructure:"embedding_dim"`
}

// EmbeddedChunkStoreConfig holds parameters for the embedded chromem-go
// ChunkStore backend, used instead of Milvus for single-node/analytic
// deployments.
type EmbeddedChunkStoreConfig struct {
	PersistPath string `mapstructure:"persist_path"`
	Collection  string `mapstructure:"collection"`
	Dim         int    `mapstructure:"dim"`
}

// RedisConfig holds connection parameters for the orchestrator's result
// cache.
type RedisConfig struct {
	Mode          string        `mapstructure:"mode"` // standalone, sentinel, cluster
	Addr          string        `mapstructure:"addr"`
	MasterName    string        `mapstructure:"master_name"`
	SentinelAddrs []string      `mapstructure:"sentinel_addrs"`
	ClusterAddrs  []string      `mapstructure:"cluster_addrs"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	TLSEnabled    bool          `mapstructure:"tls_enabled"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds parameters for the cache-invalidation consumer run by
// cmd/worker.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	Topic           string        `mapstructure:"topic"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// EmbedderConfig holds parameters for the OpenAI embedding backend.
type EmbedderConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	Organization string        `mapstructure:"organization"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RetrievalConfig holds the orchestrator's tunable fallback-ladder
// parameters.
type RetrievalConfig struct {
	GraphBackend           string        `mapstructure:"graph_backend"` // "neo4j" | "postgres"
	ChunkBackend           string        `mapstructure:"chunk_backend"` // "milvus" | "embedded"
	MaxTraversalDepth      int           `mapstructure:"max_traversal_depth"`
	MinResultsThreshold    int           `mapstructure:"min_results_threshold"`
	DefaultDepth           int           `mapstructure:"default_depth"`
	LevenshteinMaxDistance int           `mapstructure:"levenshtein_max_distance"`
	CacheTTL               time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"` // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// WorkerConfig holds cmd/worker execution parameters.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Config is the root configuration structure read by every entry point.
type Config struct {
	Server    ServerConfig             `mapstructure:"server"`
	Neo4j     Neo4jConfig              `mapstructure:"neo4j"`
	Postgres  PostgresConfig           `mapstructure:"postgres"`
	Milvus    MilvusConfig             `mapstructure:"milvus"`
	Embedded  EmbeddedChunkStoreConfig `mapstructure:"embedded"`
	Redis     RedisConfig              `mapstructure:"redis"`
	Kafka     KafkaConfig              `mapstructure:"kafka"`
	Embedder  EmbedderConfig           `mapstructure:"embedder"`
	Retrieval RetrievalConfig          `mapstructure:"retrieval"`
	Worker    WorkerConfig             `mapstructure:"worker"`
	Log       LogConfig                `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config. It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	switch c.Retrieval.GraphBackend {
	case "neo4j", "postgres":
	default:
		return fmt.Errorf("config: retrieval.graph_backend %q is invalid; expected neo4j|postgres", c.Retrieval.GraphBackend)
	}
	switch c.Retrieval.ChunkBackend {
	case "milvus", "embedded":
	default:
		return fmt.Errorf("config: retrieval.chunk_backend %q is invalid; expected milvus|embedded", c.Retrieval.ChunkBackend)
	}
	if c.Retrieval.MaxTraversalDepth < 1 {
		return fmt.Errorf("config: retrieval.max_traversal_depth must be >= 1, got %d", c.Retrieval.MaxTraversalDepth)
	}

	if c.Retrieval.GraphBackend == "neo4j" && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required when retrieval.graph_backend is neo4j")
	}
	if c.Retrieval.GraphBackend == "postgres" && c.Postgres.Host == "" {
		return fmt.Errorf("config: postgres.host is required when retrieval.graph_backend is postgres")
	}
	if c.Retrieval.ChunkBackend == "milvus" && c.Milvus.Address == "" {
		return fmt.Errorf("config: milvus.address is required when retrieval.chunk_backend is milvus")
	}

	if c.Redis.Addr == "" && c.Redis.Mode == "standalone" {
		return fmt.Errorf("config: redis.addr is required for standalone mode")
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
