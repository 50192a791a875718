package reindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

func TestDecidePlanContentChange(t *testing.T) {
	plan := DecidePlan([]string{"content"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.RegenerateEmbeddings)
	require.False(t, plan.ReExtractKeywords)
	require.False(t, plan.RefreshSuggestionIndex)
	require.False(t, plan.IsNoop())
}

func TestDecidePlanSummaryChange(t *testing.T) {
	plan := DecidePlan([]string{"summary"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.RegenerateEmbeddings)
}

func TestDecidePlanTagsChange(t *testing.T) {
	plan := DecidePlan([]string{"tags"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.ReExtractKeywords)
	require.False(t, plan.RegenerateEmbeddings)
	require.False(t, plan.RefreshSuggestionIndex)
}

func TestDecidePlanFileNameChange(t *testing.T) {
	plan := DecidePlan([]string{"file_name"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.RefreshSuggestionIndex)
	require.False(t, plan.RegenerateEmbeddings)
	require.False(t, plan.ReExtractKeywords)
}

func TestDecidePlanVendorChange(t *testing.T) {
	plan := DecidePlan([]string{"vendor"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.RefreshSuggestionIndex)
}

func TestDecidePlanTechnicalMetadataOnlyIsNoop(t *testing.T) {
	plan := DecidePlan([]string{"technical_metadata"})
	require.True(t, plan.IsNoop())
}

func TestDecidePlanEmptyChangeSetIsNoop(t *testing.T) {
	plan := DecidePlan(nil)
	require.True(t, plan.IsNoop())
}

func TestDecidePlanMultipleFieldsUnion(t *testing.T) {
	plan := DecidePlan([]string{"tags", "vendor"})
	require.True(t, plan.RegenerateSearchableText)
	require.True(t, plan.ReExtractKeywords)
	require.True(t, plan.RefreshSuggestionIndex)
	require.False(t, plan.RegenerateEmbeddings)
}

type fakeResourceStore struct {
	resource *docmodel.Resource
	updated  *docmodel.Resource
	deleted  int
	chunks   []*docmodel.Chunk
}

func (f *fakeResourceStore) GetResource(_ context.Context, _, _ string) (*docmodel.Resource, error) {
	return f.resource, nil
}

func (f *fakeResourceStore) UpdateResource(_ context.Context, r *docmodel.Resource) error {
	f.updated = r
	return nil
}

func (f *fakeResourceStore) DeleteChunksForResource(_ context.Context, _, _ string) error {
	f.deleted++
	return nil
}

func (f *fakeResourceStore) PutChunksBulk(_ context.Context, chunks []*docmodel.Chunk) error {
	f.chunks = chunks
	return nil
}

type fakeSuggestIndex struct {
	calls int
}

func (f *fakeSuggestIndex) IndexResource(_ context.Context, _ string, _ *docmodel.Resource) error {
	f.calls++
	return nil
}

func TestRegenerateChunksReplacesPriorSet(t *testing.T) {
	store := &fakeResourceStore{resource: &docmodel.Resource{
		ResourceID: "res-1",
		TenantID:   "tenant-a",
		FileName:   "invoice.txt",
		FileType:   docmodel.FileTypeText,
		Content:    "Invoice from google cloud dated 2024-01-01.",
	}}
	activities := &Activities{Store: store}

	updated, err := activities.RegenerateChunks(context.Background(), RegenerateChunksInput{
		TenantID:   "tenant-a",
		ResourceID: "res-1",
	})
	require.NoError(t, err)
	require.Greater(t, updated, 0)
	require.Equal(t, 1, store.deleted)
	require.Len(t, store.chunks, updated)
}

func TestRefreshSuggestionIndexCallsSuggest(t *testing.T) {
	store := &fakeResourceStore{resource: &docmodel.Resource{ResourceID: "res-1", TenantID: "tenant-a"}}
	suggest := &fakeSuggestIndex{}
	activities := &Activities{Store: store, Suggest: suggest}

	err := activities.RefreshSuggestionIndex(context.Background(), "tenant-a", "res-1")
	require.NoError(t, err)
	require.Equal(t, 1, suggest.calls)
}

func TestReExtractKeywordsNoopsWithoutExtractor(t *testing.T) {
	store := &fakeResourceStore{resource: &docmodel.Resource{ResourceID: "res-1", TenantID: "tenant-a", Keywords: []string{"existing"}}}
	activities := &Activities{Store: store}

	err := activities.ReExtractKeywords(context.Background(), "tenant-a", "res-1")
	require.NoError(t, err)
	require.Nil(t, store.updated)
}

func TestMergeKeywordsDeduplicates(t *testing.T) {
	merged := mergeKeywords([]string{"a", "b"}, []string{"b", "c"})
	require.Equal(t, []string{"a", "b", "c"}, merged)
}

func TestWorkflowIDIsDeterministicPerResource(t *testing.T) {
	id1 := workflowID("tenant-a", "res-1")
	id2 := workflowID("tenant-a", "res-1")
	id3 := workflowID("tenant-a", "res-2")
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, id3)
}

func TestReindexResultZeroValueAfterNoop(t *testing.T) {
	var result ReindexResult
	require.Zero(t, result.ChunksRegenerated)
	require.False(t, result.SuggestionsRefreshed)
}
