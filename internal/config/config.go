// Package config provides configuration loading for insightd.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/insightd/internal/embeddings"
	"github.com/fyrsmithlabs/insightd/internal/insight"
	"github.com/fyrsmithlabs/insightd/internal/logging"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// StoreConfig holds settings for the on-disk insight store.
type StoreConfig struct {
	// Path is the SQLite database file location.
	Path string `koanf:"path"`
}

// RetrievalConfig holds defaults for ranked retrieval.
type RetrievalConfig struct {
	MaxResults    int     `koanf:"max_results"`
	MinConfidence float64 `koanf:"min_confidence"`
	TokenBudget   int     `koanf:"token_budget"`
	Oversample    int     `koanf:"oversample"`
}

// ConflictsConfig holds defaults for conflict detection.
type ConflictsConfig struct {
	MinScore   float64 `koanf:"min_score"`
	MaxResults int     `koanf:"max_results"`
}

// Config is the root configuration for insightd.
type Config struct {
	Store      StoreConfig       `koanf:"store"`
	Embeddings embeddings.Config `koanf:"embeddings"`
	Retrieval  RetrievalConfig   `koanf:"retrieval"`
	Conflicts  ConflictsConfig   `koanf:"conflicts"`
	Logging    logging.Config    `koanf:"logging"`
}

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (INSIGHTD_STORE_PATH, INSIGHTD_EMBEDDINGS_MODEL, ...)
//  2. YAML config file (~/.config/insightd/config.yaml by default)
//  3. Hardcoded defaults
//
// A missing config file is not an error; defaults and environment
// variables still apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "insightd", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables use the INSIGHTD_ prefix with underscore
	// separators. The first underscore after the prefix splits section
	// from field name:
	//
	//	INSIGHTD_STORE_PATH       -> store.path
	//	INSIGHTD_EMBEDDINGS_MODEL -> embeddings.model
	//	INSIGHTD_RETRIEVAL_TOKEN_BUDGET -> retrieval.token_budget
	if err := k.Load(env.Provider("INSIGHTD_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "INSIGHTD_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Store.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Store.Path = filepath.Join(home, ".config", "insightd", "insights.db")
		}
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "openai"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.APIKey == "" {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = insight.DefaultMaxResults
	}
	if cfg.Retrieval.TokenBudget == 0 {
		cfg.Retrieval.TokenBudget = insight.DefaultTokenBudget
	}
	if cfg.Retrieval.Oversample == 0 {
		cfg.Retrieval.Oversample = insight.DefaultOversample
	}

	if cfg.Conflicts.MinScore == 0 {
		cfg.Conflicts.MinScore = insight.DefaultConflictMinScore
	}
	if cfg.Conflicts.MaxResults == 0 {
		cfg.Conflicts.MaxResults = insight.DefaultConflictMaxResults
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.Retrieval.MaxResults < 1 {
		return fmt.Errorf("retrieval max_results must be at least 1, got %d", c.Retrieval.MaxResults)
	}
	if c.Retrieval.MinConfidence < 0 || c.Retrieval.MinConfidence > 1 {
		return fmt.Errorf("retrieval min_confidence must be in [0, 1], got %f", c.Retrieval.MinConfidence)
	}
	if c.Retrieval.TokenBudget < 1 {
		return fmt.Errorf("retrieval token_budget must be at least 1, got %d", c.Retrieval.TokenBudget)
	}
	if c.Conflicts.MinScore < 0 || c.Conflicts.MinScore > 1 {
		return fmt.Errorf("conflicts min_score must be in [0, 1], got %f", c.Conflicts.MinScore)
	}
	if c.Conflicts.MaxResults < 1 {
		return fmt.Errorf("conflicts max_results must be at least 1, got %d", c.Conflicts.MaxResults)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
