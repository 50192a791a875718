package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/store"
)

type fakeChunkSource struct {
	byField map[store.KeywordField][]store.KeywordHit
}

func (f *fakeChunkSource) KeywordSearch(_ context.Context, _, phraseNormalized string, field store.KeywordField, _ int) ([]store.KeywordHit, error) {
	var out []store.KeywordHit
	for _, kh := range f.byField[field] {
		if phraseNormalized != "" && strings.Contains(kh.Chunk.SearchableText, phraseNormalized) {
			out = append(out, kh)
		}
	}
	return out, nil
}

type fakeResourceSource struct {
	resources map[string]*docmodel.Resource
	byVendor  map[string][]*docmodel.Resource
}

func (f *fakeResourceSource) ResourcesByKeywordAny(_ context.Context, _ string, _ []string) ([]*docmodel.Resource, error) {
	return nil, nil
}

func (f *fakeResourceSource) ResourcesByEntityAny(_ context.Context, _ string, _ []string) ([]*docmodel.Resource, error) {
	return nil, nil
}

func (f *fakeResourceSource) ResourcesByVendor(_ context.Context, _ string, vendors []string) ([]*docmodel.Resource, error) {
	var out []*docmodel.Resource
	for _, v := range vendors {
		out = append(out, f.byVendor[v]...)
	}
	return out, nil
}

func (f *fakeResourceSource) ResourcesWithAnyAmount(_ context.Context, _ string) ([]*docmodel.Resource, error) {
	return nil, nil
}

func (f *fakeResourceSource) ResourcesByMoney(_ context.Context, _, _ string, _ int64) ([]*docmodel.Resource, error) {
	return nil, nil
}

func (f *fakeResourceSource) GetResource(_ context.Context, _, resourceID string) (*docmodel.Resource, error) {
	r, ok := f.resources[resourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func googleInvoiceFixtures() (*fakeChunkSource, *fakeResourceSource) {
	resource := &docmodel.Resource{
		ResourceID: "r1",
		FileName:   "google cloud invoice.pdf",
		Vendor:     "google",
	}
	chunk := &docmodel.Chunk{
		ParentResourceID: "r1",
		SearchableText:   "google cloud invoice",
	}
	chunks := &fakeChunkSource{byField: map[store.KeywordField][]store.KeywordHit{
		store.FieldSearchableText: {{Chunk: chunk, Occurrences: 1}},
	}}
	resources := &fakeResourceSource{
		resources: map[string]*docmodel.Resource{"r1": resource},
		byVendor:  map[string][]*docmodel.Resource{"google": {resource}},
	}
	return chunks, resources
}

func TestExactFilenameRetrieval(t *testing.T) {
	chunks, resources := googleInvoiceFixtures()
	searcher := New(chunks, resources, nil, nil)

	intent := &query.Intent{CleanText: "google cloud invoice"}
	results, err := searcher.Search(context.Background(), "tenant-a", intent, 30)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "r1", results[0].ResourceID)
	require.Equal(t, MatchExactPhrase, results[0].MatchType)
	require.Equal(t, 1.0, results[0].Score)
}

func TestVendorCategoryMatchRanksBelowContentMatch(t *testing.T) {
	chunks, resources := googleInvoiceFixtures()
	searcher := New(chunks, resources, nil, nil)

	intent := &query.Intent{
		CleanText: "google cloud invoice",
		Categories: map[docmodel.CategoryType]query.CategoryMatch{
			docmodel.CategoryVendor: {
				MatchedEntities: []string{"google"},
				Category:        &docmodel.Category{MatchScore: 0.88, CategoryType: docmodel.CategoryVendor},
			},
		},
	}
	results, err := searcher.Search(context.Background(), "tenant-a", intent, 30)
	require.NoError(t, err)
	require.Len(t, results, 1)
	// exact_phrase (1.00) and vendor_match (0.88) differ by more than the
	// 5-point tie band, so the higher content-level score wins outright.
	require.Equal(t, MatchExactPhrase, results[0].MatchType)
}

func TestNoiseFloorDropsWeakMultiWordMatches(t *testing.T) {
	chunks, resources := googleInvoiceFixtures()
	searcher := New(chunks, resources, nil, nil)

	intent := &query.Intent{CleanText: "totally unrelated phrase here"}
	results, err := searcher.Search(context.Background(), "tenant-a", intent, 30)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestStrongSignalBypassesNoiseFloor(t *testing.T) {
	chunks, resources := googleInvoiceFixtures()
	searcher := New(chunks, resources, nil, nil)

	intent := &query.Intent{
		CleanText:       "google cloud invoice",
		HasStrongSignal: true,
		Categories: map[docmodel.CategoryType]query.CategoryMatch{
			docmodel.CategoryVendor: {
				MatchedEntities: []string{"google"},
				Category:        &docmodel.Category{MatchScore: 0.88, CategoryType: docmodel.CategoryVendor},
			},
		},
	}
	results, err := searcher.Search(context.Background(), "tenant-a", intent, 30)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestSearchHonorsCancellation(t *testing.T) {
	chunks, resources := googleInvoiceFixtures()
	searcher := New(chunks, resources, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	intent := &query.Intent{CleanText: "google cloud invoice"}
	_, err := searcher.Search(ctx, "tenant-a", intent, 30)
	require.Error(t, err)
}
