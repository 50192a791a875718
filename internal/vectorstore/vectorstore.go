// Package vectorstore implements the vector-storage half of the Document
// Store: semantic search over Resource and Chunk embeddings,
// tenant-isolated by keeping one collection per tenant and vector kind.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	ErrCollectionNotFound = errors.New("vectorstore: collection not found")
	ErrInvalidConfig      = errors.New("vectorstore: invalid configuration")
	ErrEmptyVectors       = errors.New("vectorstore: empty vectors")
	ErrDimensionMismatch  = errors.New("vectorstore: embedding dimension mismatch")
)

// VectorKind distinguishes the two embedding spaces this store holds:
// whole-resource embeddings (summary-level semantic search) and per-chunk
// embeddings (passage-level semantic search).
type VectorKind string

const (
	KindResource VectorKind = "resource"
	KindChunk    VectorKind = "chunk"
)

// Record is a single embedded item bound for the store. For KindChunk
// records ChunkID and ResourceID are both set; for KindResource only
// ResourceID is set.
type Record struct {
	TenantID   string
	ResourceID string
	ChunkID    string
	Kind       VectorKind
	Vector     []float32
	// Text is stored as payload so callers can render matches without a
	// round trip to the Document Store.
	Text string
}

// Match is a single semantic search hit.
type Match struct {
	ResourceID string
	ChunkID    string
	Kind       VectorKind
	Score      float32
	Text       string
}

// Store is the tenant-isolated vector storage interface consumed by the
// Hybrid Searcher and the Ingestion Coordinator. Every operation is
// scoped to a single tenant; implementations must fail closed if tenantID
// is empty.
type Store interface {
	// Upsert writes or replaces vectors. Records with the same (TenantID,
	// Kind, ResourceID, ChunkID) key overwrite a prior entry.
	Upsert(ctx context.Context, records []Record) error

	// Search runs cosine-similarity search within kind, scoped to tenantID,
	// returning up to k matches ordered by descending score.
	Search(ctx context.Context, tenantID string, kind VectorKind, queryVector []float32, k int) ([]Match, error)

	// DeleteResource removes every vector (resource- and chunk-level)
	// belonging to resourceID within tenantID.
	DeleteResource(ctx context.Context, tenantID, resourceID string) error

	// Dimension reports the fixed embedding dimension this store was
	// configured for.
	Dimension() int

	// Close releases any held resources.
	Close() error
}

func collectionName(tenantID string, kind VectorKind) string {
	return tenantID + "_" + string(kind)
}
