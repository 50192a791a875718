package vectorstore

import (
	"context"
	"errors"
	"testing"
)

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{Path: t.TempDir(), Dimension: 4}, nil)
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChromemStoreUpsertAndSearchIsTenantIsolated(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		{TenantID: "tenant-a", ResourceID: "r1", Kind: KindResource, Vector: []float32{1, 0, 0, 0}, Text: "google invoice"},
		{TenantID: "tenant-b", ResourceID: "r2", Kind: KindResource, Vector: []float32{1, 0, 0, 0}, Text: "aws invoice"},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	matches, err := store.Search(ctx, "tenant-a", KindResource, []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 1 || matches[0].ResourceID != "r1" {
		t.Fatalf("Search() = %+v, want only tenant-a's r1", matches)
	}
}

func TestChromemStoreUpsertRejectsDimensionMismatch(t *testing.T) {
	store := newTestChromemStore(t)
	err := store.Upsert(context.Background(), []Record{
		{TenantID: "tenant-a", ResourceID: "r1", Kind: KindResource, Vector: []float32{1, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Upsert() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestChromemStoreUpsertRejectsEmptyVectors(t *testing.T) {
	store := newTestChromemStore(t)
	if err := store.Upsert(context.Background(), nil); !errors.Is(err, ErrEmptyVectors) {
		t.Errorf("Upsert() error = %v, want ErrEmptyVectors", err)
	}
}

func TestChromemStoreSearchEmptyCollectionReturnsNoMatches(t *testing.T) {
	store := newTestChromemStore(t)
	matches, err := store.Search(context.Background(), "tenant-a", KindResource, []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Search() = %+v, want empty", matches)
	}
}

func TestChromemStoreDeleteResourceRemovesVectors(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		{TenantID: "tenant-a", ResourceID: "r1", Kind: KindResource, Vector: []float32{1, 0, 0, 0}},
		{TenantID: "tenant-a", ResourceID: "r1", ChunkID: "c1", Kind: KindChunk, Vector: []float32{1, 0, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.DeleteResource(ctx, "tenant-a", "r1"); err != nil {
		t.Fatalf("DeleteResource() error = %v", err)
	}

	matches, err := store.Search(ctx, "tenant-a", KindResource, []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Search() after delete = %+v, want empty", matches)
	}
}

func TestChromemStoreDimensionReportsConfiguredValue(t *testing.T) {
	store := newTestChromemStore(t)
	if store.Dimension() != 4 {
		t.Errorf("Dimension() = %d, want 4", store.Dimension())
	}
}
