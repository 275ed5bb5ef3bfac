package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"NEO4J_URI", "NEO4J_AUTH", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "neo4j", cfg.Graph.Backend)
	assert.Equal(t, 30*time.Second, cfg.Graph.ConnectTimeout)
	assert.Equal(t, 3, cfg.LLM.TopN)
	assert.Equal(t, cfg.Postgres.URL, cfg.Warehouse.URL)
	assert.Equal(t, "insurance_plans", cfg.Warehouse.Table)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planrec.yaml")
	yaml := `
server:
  addr: ":9090"
warehouse:
  url: postgres://wh/plans
graph:
  backend: memory
  connect_timeout: 5s
llm:
  top_n: 5
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("PLANREC_LLM_MAX_TOKENS", "1000")
	t.Setenv("PLANREC_LOG_LEVEL", "debug")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://wh/plans", cfg.Warehouse.URL)
	assert.Equal(t, "memory", cfg.Graph.Backend)
	assert.Equal(t, 5*time.Second, cfg.Graph.ConnectTimeout)
	assert.Equal(t, 5, cfg.LLM.TopN)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)

	rc := cfg.Recommender()
	assert.Equal(t, 5, rc.TopN)
	assert.Equal(t, 1000, rc.MaxTokens)
}

func TestLegacyEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://graph:7687")
	t.Setenv("NEO4J_AUTH", "admin/s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "neo4j://graph:7687", cfg.Graph.URI)
	assert.Equal(t, "admin", cfg.Graph.Username)
	assert.Equal(t, "s3cret", cfg.Graph.Password)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)

	gc := cfg.GraphStore()
	assert.Equal(t, "neo4j://graph:7687", gc.URI)
	assert.Equal(t, "admin", gc.Username)
	assert.NoError(t, gc.Validate())
}

func TestPrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://legacy:7687")
	t.Setenv("PLANREC_GRAPH_URI", "neo4j://new:7687")
	t.Setenv("NEO4J_AUTH", "legacy/pass")
	t.Setenv("PLANREC_GRAPH_USERNAME", "svc")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "neo4j://new:7687", cfg.Graph.URI)
	assert.Equal(t, "svc", cfg.Graph.Username)
}

func TestBadNeo4jAuth(t *testing.T) {
	t.Setenv("NEO4J_AUTH", "nopassword")
	_, err := Load(New(), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Addr: ":8000"},
			Postgres:  PostgresConfig{URL: "postgres://x"},
			Warehouse: WarehouseConfig{URL: "postgres://x", Table: "insurance_plans"},
			Graph:     GraphConfig{Backend: "neo4j", URI: "bolt://x"},
			LLM:       LLMConfig{TopN: 3},
			Log:       LogConfig{Level: "info", Format: "text"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"empty postgres":    func(c *Config) { c.Postgres.URL = "" },
		"unknown backend":   func(c *Config) { c.Graph.Backend = "dgraph" },
		"empty neo4j uri":   func(c *Config) { c.Graph.URI = "" },
		"zero top n":        func(c *Config) { c.LLM.TopN = 0 },
		"bad log format":    func(c *Config) { c.Log.Format = "xml" },
		"bad log level":     func(c *Config) { c.Log.Level = "chatty" },
		"empty table":       func(c *Config) { c.Warehouse.Table = "" },
		"empty server addr": func(c *Config) { c.Server.Addr = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.Graph.Backend = "memory"
	c.Graph.URI = ""
	assert.NoError(t, c.Validate())
}
