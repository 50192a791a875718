package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceConfig configures a remote TEI-compatible embedding endpoint.
type ServiceConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the config.
func (c ServiceConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Service calls a TEI-compatible HTTP embedding endpoint: POST {base}/embed
// with {"inputs": ..., "truncate": true}, expecting a JSON array of
// float32 vectors in response.
type Service struct {
	cfg    ServiceConfig
	client *http.Client
}

// NewService builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Service{cfg: cfg, client: &http.Client{Timeout: timeout}}, nil
}

type teiRequest struct {
	Inputs   interface{} `json:"inputs"`
	Truncate bool        `json:"truncate"`
}

// EmbedDocuments embeds multiple texts in one request, preserving order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	var vectors [][]float32
	if err := s.call(ctx, texts, &vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	var vectors [][]float32
	if err := s.call(ctx, text, &vectors); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

func (s *Service) call(ctx context.Context, inputs interface{}, out *[][]float32) error {
	req := teiRequest{Inputs: inputs, Truncate: true}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("embeddings: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("embeddings: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("embeddings: decode response: %w", err)
	}
	return nil
}

// serviceProvider adapts Service to Provider by attaching a fixed
// dimension detected from the configured model name.
type serviceProvider struct {
	*Service
	dimension int
}

func (s *serviceProvider) Dimension() int { return s.dimension }
func (s *serviceProvider) Close() error   { return nil }
