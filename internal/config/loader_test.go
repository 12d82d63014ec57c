package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: "debug"
neo4j:
  uri: "bolt://localhost:7687"
  user: "neo4j"
  password: "password"
redis:
  addr: "localhost:6379"
milvus:
  address: "localhost:19530"
kafka:
  brokers: ["localhost:9092"]
  group_id: "graphctx-worker"
retrieval:
  graph_backend: "neo4j"
  chunk_backend: "milvus"
log:
  level: "info"
  format: "json"
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"GRAPHCTX_NEO4J_URI": "bolt://override:7687",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://override:7687", cfg.Neo4j.URI)
}

func TestLoad_DefaultsAppliedForUnsetFields(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPostgresHost, cfg.Postgres.Host)
	assert.Equal(t, 5, cfg.Retrieval.MaxTraversalDepth)
}

func TestLoad_ValidationFailure(t *testing.T) {
	invalid := `
server:
  port: 0
`
	path := createTempConfigFile(t, invalid)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("non_existent.yaml")
	})
}

func TestMustLoad_SucceedsOnValidFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() {
		MustLoad(path)
	})
}
