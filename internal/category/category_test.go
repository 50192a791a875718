package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

type fakeStore struct {
	byTenant map[string]map[docmodel.CategoryType]*docmodel.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{byTenant: make(map[string]map[docmodel.CategoryType]*docmodel.Category)}
}

func (f *fakeStore) GetCategories(_ context.Context, tenantID string) ([]*docmodel.Category, error) {
	m, ok := f.byTenant[tenantID]
	if !ok {
		return nil, nil
	}
	out := make([]*docmodel.Category, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpsertCategory(_ context.Context, c *docmodel.Category) error {
	m, ok := f.byTenant[c.TenantID]
	if !ok {
		m = make(map[docmodel.CategoryType]*docmodel.Category)
		f.byTenant[c.TenantID] = m
	}
	m[c.CategoryType] = c
	return nil
}

func TestListCategoriesSeedsDefaultsOnce(t *testing.T) {
	fs := newFakeStore()
	admin, err := New(fs)
	require.NoError(t, err)

	categories, err := admin.ListCategories(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, categories, 3)

	require.Len(t, fs.byTenant["tenant-a"], 3)
	vendor := fs.byTenant["tenant-a"][docmodel.CategoryVendor]
	require.Contains(t, vendor.Entities, "google")
	require.Contains(t, vendor.IgnoredWords, "invoice")

	// Second call must not reseed (idempotent).
	_, err = admin.ListCategories(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Len(t, fs.byTenant["tenant-a"], 3)
}

func TestAddEntityIsNormalizedAndDeduped(t *testing.T) {
	fs := newFakeStore()
	admin, err := New(fs)
	require.NoError(t, err)

	_, err = admin.ListCategories(context.Background(), "tenant-a")
	require.NoError(t, err)

	require.NoError(t, admin.AddEntity(context.Background(), "tenant-a", docmodel.CategoryVendor, "Café Co"))
	require.NoError(t, admin.AddEntity(context.Background(), "tenant-a", docmodel.CategoryVendor, "café co"))

	c, err := admin.GetCategory(context.Background(), "tenant-a", docmodel.CategoryVendor)
	require.NoError(t, err)

	count := 0
	for _, e := range c.Entities {
		if e == "cafe co" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestUpsertInvalidatesCache(t *testing.T) {
	fs := newFakeStore()
	admin, err := New(fs)
	require.NoError(t, err)

	_, err = admin.ListCategories(context.Background(), "tenant-a")
	require.NoError(t, err)

	require.NoError(t, admin.SetTriggerKeywords(context.Background(), "tenant-a", docmodel.CategoryPrice, []string{"how much"}))

	c, err := admin.GetCategory(context.Background(), "tenant-a", docmodel.CategoryPrice)
	require.NoError(t, err)
	require.Equal(t, []string{"how much"}, c.TriggerKeywords)
}
