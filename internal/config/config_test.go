package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// A missing file is not an error; defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, insight.DefaultMaxResults, cfg.Retrieval.MaxResults)
	assert.Equal(t, insight.DefaultTokenBudget, cfg.Retrieval.TokenBudget)
	assert.Equal(t, insight.DefaultOversample, cfg.Retrieval.Oversample)
	assert.Equal(t, insight.DefaultConflictMinScore, cfg.Conflicts.MinScore)
	assert.Equal(t, insight.DefaultConflictMaxResults, cfg.Conflicts.MaxResults)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
store:
  path: /tmp/custom/insights.db
embeddings:
  provider: tei
  base_url: http://localhost:8080
  model: BAAI/bge-small-en-v1.5
retrieval:
  max_results: 10
  token_budget: 2000
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom/insights.db", cfg.Store.Path)
	assert.Equal(t, "tei", cfg.Embeddings.Provider)
	assert.Equal(t, "http://localhost:8080", cfg.Embeddings.BaseURL)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embeddings.Model)
	assert.Equal(t, 10, cfg.Retrieval.MaxResults)
	assert.Equal(t, 2000, cfg.Retrieval.TokenBudget)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
store:
  path: /tmp/from-file.db
retrieval:
  max_results: 10
`)

	t.Setenv("INSIGHTD_STORE_PATH", "/tmp/from-env.db")
	t.Setenv("INSIGHTD_RETRIEVAL_MAX_RESULTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.Store.Path)
	assert.Equal(t, 7, cfg.Retrieval.MaxResults)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
retrieval:
  min_confidence: 2.5
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidLogging(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: shouting
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Config{}
	applyDefaults(valid)
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"zero max results", func(c *Config) { c.Retrieval.MaxResults = -1 }},
		{"confidence out of range", func(c *Config) { c.Retrieval.MinConfidence = 1.5 }},
		{"zero token budget", func(c *Config) { c.Retrieval.TokenBudget = -1 }},
		{"conflict score out of range", func(c *Config) { c.Conflicts.MinScore = 2.0 }},
		{"zero conflict cap", func(c *Config) { c.Conflicts.MaxResults = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
