package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Config{
		Server:    ServerConfig{Port: 8080, Mode: "debug"},
		Neo4j:     Neo4jConfig{URI: "bolt://localhost:7687"},
		Postgres:  PostgresConfig{Host: "localhost"},
		Milvus:    MilvusConfig{Address: "localhost:19530"},
		Redis:     RedisConfig{Mode: "standalone", Addr: "localhost:6379"},
		Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"},
		Retrieval: RetrievalConfig{GraphBackend: "neo4j", ChunkBackend: "milvus", MaxTraversalDepth: 5},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
	return cfg
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownGraphBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.GraphBackend = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresNeo4jURIWhenSelected(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.URI = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresPostgresHostWhenSelected(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.GraphBackend = "postgres"
	cfg.Postgres.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequiresKafkaBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	assert.Error(t, cfg.Validate())
}

func TestApplyDefaults_FillsZeroValuesOnly(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9090 // explicit, must survive defaulting
	ApplyDefaults(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, 5, cfg.Retrieval.MaxTraversalDepth)
	assert.Equal(t, "neo4j", cfg.Retrieval.GraphBackend)
}
