package suggest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client)
}

func googleInvoiceResource() *docmodel.Resource {
	return &docmodel.Resource{
		ResourceID: "r1",
		TenantID:   "tenant-a",
		FileName:   "google cloud invoice.pdf",
		Vendor:     "google",
		Entities:   []string{"google cloud"},
		Keywords:   []string{"invoice", "billing"},
	}
}

func TestQueryPrefixReturnsFileAndVendorWithPriorityScores(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexResource(ctx, "tenant-a", googleInvoiceResource()))

	results := idx.QueryPrefix(ctx, "tenant-a", "goo", 10)
	require.NotEmpty(t, results)

	var fileResult, vendorResult *Suggestion
	for i := range results {
		switch results[i].Category {
		case docmodel.SuggestFilenames:
			fileResult = &results[i]
		case docmodel.SuggestVendors:
			vendorResult = &results[i]
		}
	}
	require.NotNil(t, fileResult)
	require.NotNil(t, vendorResult)
	require.Equal(t, "file", fileResult.Type())
	require.Equal(t, "vendor", vendorResult.Type())
	require.GreaterOrEqual(t, fileResult.Score, 0.9)
	require.GreaterOrEqual(t, vendorResult.Score, 0.8)
}

func TestQueryPrefixBelowTwoCharsReturnsEmpty(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.IndexResource(ctx, "tenant-a", googleInvoiceResource()))

	require.Empty(t, idx.QueryPrefix(ctx, "tenant-a", "g", 10))
	require.Empty(t, idx.QueryPrefix(ctx, "tenant-a", "", 10))
}

func TestQueryPrefixTenantIsolated(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.IndexResource(ctx, "tenant-a", googleInvoiceResource()))

	require.Empty(t, idx.QueryPrefix(ctx, "tenant-b", "goo", 10))
}

func TestQueryPrefixDegradesOnBackendFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	idx := NewWithClient(client)
	defer idx.Close()

	results := idx.QueryPrefix(context.Background(), "tenant-a", "goo", 10)
	require.Empty(t, results)
}

func TestRemoveResourceDecrementsScore(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	resource := googleInvoiceResource()

	require.NoError(t, idx.IndexResource(ctx, "tenant-a", resource))
	require.NoError(t, idx.IndexResource(ctx, "tenant-a", resource))
	require.NoError(t, idx.RemoveResource(ctx, "tenant-a", resource))

	// The lex entry survives (residual, per spec), but score reflects one
	// fewer contribution.
	results := idx.QueryPrefix(ctx, "tenant-a", "goo", 10)
	require.NotEmpty(t, results)
}
