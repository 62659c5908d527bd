package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openAIProvider generates embeddings through the OpenAI-compatible
// embeddings API.
type openAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
}

func newOpenAIProvider(cfg Config, dimension int) (*openAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAIProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: dimension,
	}, nil
}

// Embed generates embeddings for the given texts in one batch. No internal
// retry or backoff: failures propagate immediately with their category
// preserved.
func (p *openAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, categorizeOpenAIError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			ErrProvider, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	if err := checkDimensions(vectors, p.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *openAIProvider) Dimension() int { return p.dimension }
func (p *openAIProvider) Name() string   { return "openai" }
func (p *openAIProvider) Model() string  { return p.model }

// categorizeOpenAIError maps API errors onto the sentinel taxonomy while
// preserving the original error.
func categorizeOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
