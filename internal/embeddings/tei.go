package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// teiProvider generates embeddings against a text-embeddings-inference
// style HTTP endpoint.
type teiProvider struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

func newTEIProvider(cfg Config, dimension int) (*teiProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL required for TEI provider", ErrInvalidConfig)
	}
	return &teiProvider{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: dimension,
		client:    &http.Client{},
	}, nil
}

// teiRequest is the request body for the TEI embed endpoint.
type teiRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// Embed generates embeddings for the given texts in one batch.
func (p *teiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	body, err := json.Marshal(teiRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, categorizeStatus(resp.StatusCode, respBody)
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			ErrProvider, len(vectors), len(texts))
	}
	if err := checkDimensions(vectors, p.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *teiProvider) Dimension() int { return p.dimension }
func (p *teiProvider) Name() string   { return "tei" }
func (p *teiProvider) Model() string  { return p.model }

// categorizeStatus maps HTTP status codes onto the sentinel taxonomy.
func categorizeStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuthentication, status, body)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrProvider, status, body)
	}
}
