// Package embeddings provides embedding generation via multiple providers.
//
// Providers declare a fixed dimensionality per model; any returned vector
// whose length disagrees is a hard error, never a silent truncation or pad.
// Failures carry distinct categories (authentication, rate limiting,
// generic) so callers can react to each.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for embedding operations.
var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAuthentication indicates rejected credentials.
	ErrAuthentication = errors.New("embedding provider authentication failed")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("embedding provider rate limited")

	// ErrProvider indicates a generic provider API failure.
	ErrProvider = errors.New("embedding provider error")

	// ErrDimensionMismatch indicates a returned vector whose length
	// disagrees with the declared dimensionality. Always fatal to the
	// operation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Provider is the interface for embedding providers.
type Provider interface {
	// Embed generates one vector per input text, each exactly Dimension()
	// long.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the declared embedding dimension for the model.
	Dimension() int

	// Name returns the provider name, recorded in embedding metadata.
	Name() string

	// Model returns the model name, recorded in embedding metadata.
	Model() string
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Provider is the provider type: "openai" or "tei".
	Provider string `koanf:"provider"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// BaseURL overrides the provider endpoint (required for TEI).
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates against the provider (optional for TEI).
	APIKey string `koanf:"api_key"`

	// Dimensions overrides the detected model dimensionality.
	Dimensions int `koanf:"dimensions"`
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(cfg Config) (Provider, error) {
	dim := cfg.Dimensions
	if dim == 0 {
		dim = detectDimensionFromModel(cfg.Model)
	}

	switch cfg.Provider {
	case "openai", "":
		return newOpenAIProvider(cfg, dim)
	case "tei":
		return newTEIProvider(cfg, dim)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// detectDimensionFromModel returns the embedding dimension for a model
// name. Falls back to 1536 for unknown models.
func detectDimensionFromModel(model string) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "BAAI/bge-small-en-v1.5", "all-MiniLM-L6-v2":
		return 384
	case "BAAI/bge-base-en-v1.5":
		return 768
	}
	switch {
	case strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "base"):
		return 768
	case strings.Contains(model, "small"), strings.Contains(model, "mini"):
		return 384
	default:
		return 1536
	}
}

// checkDimensions verifies every returned vector against the declared
// dimensionality.
func checkDimensions(vectors [][]float32, want int) error {
	for i, vec := range vectors {
		if len(vec) != want {
			return fmt.Errorf("%w: vector %d has length %d, want %d",
				ErrDimensionMismatch, i, len(vec), want)
		}
	}
	return nil
}
