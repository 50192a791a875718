package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

type fakeCategorySource struct {
	categories []*docmodel.Category
}

func (f *fakeCategorySource) ListCategories(_ context.Context, _ string) ([]*docmodel.Category, error) {
	return f.categories, nil
}

func vendorCategory() *docmodel.Category {
	return &docmodel.Category{
		TenantID:            "tenant-a",
		CategoryType:        docmodel.CategoryVendor,
		Entities:            []string{"google"},
		IgnoredWords:        []string{"invoice", "bill", "payment"},
		MaxNonCategoryWords: 1,
		MatchScore:          0.88,
		Enabled:             true,
	}
}

func TestGoogleInvoiceActivatesVendorCategory(t *testing.T) {
	src := &fakeCategorySource{categories: []*docmodel.Category{vendorCategory()}}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "google invoice")
	require.NoError(t, err)

	match, ok := intent.Categories[docmodel.CategoryVendor]
	require.True(t, ok, "vendor category should be active")
	require.Contains(t, match.MatchedEntities, "google")
}

func TestGoogleTagManagerDoesNotActivateVendorCategory(t *testing.T) {
	src := &fakeCategorySource{categories: []*docmodel.Category{vendorCategory()}}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "google tag manager")
	require.NoError(t, err)

	_, ok := intent.Categories[docmodel.CategoryVendor]
	require.False(t, ok, "two non-category words should exceed the max of 1")
}

func TestStrongSignalDetection(t *testing.T) {
	src := &fakeCategorySource{}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "invoice INV-20394 from jane@example.com")
	require.NoError(t, err)

	require.True(t, intent.HasStrongSignal)
	require.Contains(t, intent.IDs, "INV-20394")
	require.Contains(t, intent.Emails, "jane@example.com")
}

func TestFileTypeHintDetection(t *testing.T) {
	src := &fakeCategorySource{}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "budget report pdf")
	require.NoError(t, err)

	require.Contains(t, intent.FileTypes, "pdf")
	require.NotContains(t, intent.CleanText, "pdf")
}

func TestMoneyAmountDetection(t *testing.T) {
	src := &fakeCategorySource{}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "payment of $120.50")
	require.NoError(t, err)

	require.True(t, intent.HasStrongSignal)
	require.Len(t, intent.Money, 1)
	require.Equal(t, "USD", intent.Money[0].Currency)
	require.Equal(t, int64(12050), intent.Money[0].AmountCents)
}

func TestCleanTextResidualWithNoCategoryOrSignal(t *testing.T) {
	src := &fakeCategorySource{}
	analyzer := New(src)

	intent, err := analyzer.Analyze(context.Background(), "tenant-a", "architecture diagram payments service")
	require.NoError(t, err)

	require.False(t, intent.HasStrongSignal)
	require.Equal(t, "architecture diagram payments service", intent.CleanText)
}
