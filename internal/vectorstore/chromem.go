package vectorstore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// ChromemConfig configures the embedded chromem-go store, the default
// vector store backend (no external service to run).
type ChromemConfig struct {
	// Path is the directory chromem-go persists gob snapshots to.
	Path string
	// Compress enables gzip compression of persisted collections.
	Compress bool
	// Dimension is the fixed embedding dimension enforced on every Upsert.
	Dimension int
}

func (c *ChromemConfig) applyDefaults() {
	if c.Path == "" {
		c.Path = "./data/vectorstore"
	}
	if c.Dimension == 0 {
		c.Dimension = 384
	}
}

// ChromemStore implements Store over an embedded chromem-go database, one
// collection per (tenant, kind) pair so a tenant's resource- and
// chunk-level vectors never mix and a deleted tenant's data is a simple
// directory removal away.
type ChromemStore struct {
	db     *chromem.DB
	cfg    ChromemConfig
	logger *zap.Logger

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemStore opens (or creates) the persistent chromem-go database at
// cfg.Path.
func NewChromemStore(cfg ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: creating data dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: opening chromem db: %w", err)
	}
	return &ChromemStore{
		db:          db,
		cfg:         cfg,
		logger:      logger,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// noopEmbeddingFunc always errors: every Record and query vector arrives
// pre-embedded by the Embedding Client, so chromem should never need to
// embed text itself.
func noopEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("vectorstore: chromem embedding func invoked on a store that only accepts precomputed vectors")
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, noopEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get/create collection %s: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

// Upsert writes vectors into their tenant/kind collections.
func (s *ChromemStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return ErrEmptyVectors
	}

	byCollection := make(map[string][]Record)
	for _, r := range records {
		if r.TenantID == "" {
			return fmt.Errorf("vectorstore: record missing tenant_id")
		}
		if len(r.Vector) != s.cfg.Dimension {
			return fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(r.Vector), s.cfg.Dimension)
		}
		name := collectionName(r.TenantID, r.Kind)
		byCollection[name] = append(byCollection[name], r)
	}

	for name, recs := range byCollection {
		col, err := s.collection(name)
		if err != nil {
			return err
		}
		docs := make([]chromem.Document, 0, len(recs))
		for _, r := range recs {
			docs = append(docs, chromem.Document{
				ID:      vectorID(r),
				Content: r.Text,
				Metadata: map[string]string{
					"resource_id": r.ResourceID,
					"chunk_id":    r.ChunkID,
					"kind":        string(r.Kind),
				},
				Embedding: r.Vector,
			})
		}
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("vectorstore: upsert into %s: %w", name, err)
		}
	}
	return nil
}

// Search runs a k-nearest-neighbor query against the tenant/kind collection.
func (s *ChromemStore) Search(ctx context.Context, tenantID string, kind VectorKind, queryVector []float32, k int) ([]Match, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("vectorstore: search requires tenant_id")
	}
	if k <= 0 {
		return nil, fmt.Errorf("vectorstore: k must be positive")
	}

	name := collectionName(tenantID, kind)
	s.mu.Lock()
	col, ok := s.collections[name]
	s.mu.Unlock()
	if !ok {
		var err error
		col, err = s.collection(name)
		if err != nil {
			return nil, err
		}
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, queryVector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query %s: %w", name, err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ResourceID: r.Metadata["resource_id"],
			ChunkID:    r.Metadata["chunk_id"],
			Kind:       VectorKind(r.Metadata["kind"]),
			Score:      r.Similarity,
			Text:       r.Content,
		})
	}
	return matches, nil
}

// DeleteResource removes every resource- and chunk-level vector for
// resourceID from both of the tenant's collections.
func (s *ChromemStore) DeleteResource(ctx context.Context, tenantID, resourceID string) error {
	if tenantID == "" {
		return fmt.Errorf("vectorstore: delete requires tenant_id")
	}
	var errs []string
	for _, kind := range []VectorKind{KindResource, KindChunk} {
		name := collectionName(tenantID, kind)
		col, err := s.collection(name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if err := col.Delete(ctx, map[string]string{"resource_id": resourceID}, nil); err != nil {
			if !strings.Contains(err.Error(), "not found") {
				errs = append(errs, err.Error())
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("vectorstore: delete resource %s: %s", resourceID, strings.Join(errs, "; "))
	}
	return nil
}

// Dimension returns the configured embedding dimension.
func (s *ChromemStore) Dimension() int { return s.cfg.Dimension }

// Close is a no-op: chromem-go persists synchronously on write.
func (s *ChromemStore) Close() error { return nil }

func vectorID(r Record) string {
	if r.Kind == KindChunk {
		return r.ChunkID
	}
	return r.ResourceID
}
