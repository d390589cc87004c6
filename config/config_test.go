package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3007, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.StageTimeout)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Len(t, cfg.Agents, 6)

	url, ok := cfg.Agents.Endpoint(core.AgentQueryParser)
	require.True(t, ok)
	assert.Equal(t, "http://query-parser-agent:3002", url)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
port: 8080
log_level: debug
stage_timeout: 5s
batch_concurrency: 2
agents:
  query-parser: http://localhost:9002
  ingestion: http://localhost:9001
  retrieval: http://localhost:9003
  ranking: http://localhost:9004
  generation: http://localhost:9005
  validation: http://localhost:9006
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.StageTimeout)
	assert.Equal(t, 2, cfg.BatchConcurrency)

	url, _ := cfg.Agents.Endpoint(core.AgentRetrieval)
	assert.Equal(t, "http://localhost:9003", url)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvVar(core.AgentGeneration), "http://gen-canary:3005")
	t.Setenv("CREW_CONTROL_PORT", "4100")

	cfg, err := Load("")
	require.NoError(t, err)

	url, _ := cfg.Agents.Endpoint(core.AgentGeneration)
	assert.Equal(t, "http://gen-canary:3005", url)
	assert.Equal(t, 4100, cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_concurrency: -1\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "batch_concurrency")
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "AGENT_QUERY_PARSER_URL", EnvVar("query-parser"))
	assert.Equal(t, "AGENT_INGESTION_URL", EnvVar("ingestion"))
}

func TestDirectory_Agents(t *testing.T) {
	dir := Directory{"b": "http://b", "a": "http://a"}
	assert.Equal(t, []string{"a", "b"}, dir.Agents())
}
