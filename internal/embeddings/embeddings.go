// Package embeddings implements the Embedding Client:
// batched text-to-vector conversion, preserving order. The providers here
// return an error for the whole batch when a request fails; they never
// return a null vector for a single failed item, so the caller is left
// with no vectors for any item of that batch.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors surfaced by a Provider.
var (
	ErrEmptyInput     = errors.New("embeddings: empty input texts")
	ErrInvalidConfig  = errors.New("embeddings: invalid configuration")
	ErrEmbeddingFailed = errors.New("embeddings: generation failed")
)

// Embedder converts text to fixed-dimension vectors.
type Embedder interface {
	// EmbedDocuments embeds multiple texts, preserving order. Callers skip
	// any nil entry in the result (semantic strategies then skip that
	// item); the providers in this package fail the whole call instead.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is an Embedder bound to one model, exposing its fixed dimension
// so the document store can enforce a single fixed dimension per tenant
// at write time.
type Provider interface {
	Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider (model handles,
	// connection pools).
	Close() error
}

// ProviderConfig selects and configures an embedding Provider.
type ProviderConfig struct {
	// Kind is "fastembed" (local ONNX model) or "service" (remote
	// TEI-compatible HTTP endpoint).
	Kind string

	Model   string
	BaseURL string
	APIKey  string

	CacheDir string
}

// NewProvider builds a Provider from cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{Model: cfg.Model, CacheDir: cfg.CacheDir})
	case "service":
		svc, err := NewService(ServiceConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, APIKey: cfg.APIKey})
		if err != nil {
			return nil, err
		}
		return &serviceProvider{Service: svc, dimension: detectDimension(cfg.Model)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider kind %q", ErrInvalidConfig, cfg.Kind)
	}
}

func detectDimension(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "base"):
		return 768
	case strings.Contains(lower, "large"):
		return 1024
	default:
		return 384
	}
}
