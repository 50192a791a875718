package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/search"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/suggest"
)

// fakeResourceStore is an in-memory ResourceStore for handler tests.
type fakeResourceStore struct {
	byID    map[string]*docmodel.Resource
	audited []string
}

func newFakeResourceStore() *fakeResourceStore {
	return &fakeResourceStore{byID: map[string]*docmodel.Resource{}}
}

func (f *fakeResourceStore) GetResource(_ context.Context, tenantID, resourceID string) (*docmodel.Resource, error) {
	r, ok := f.byID[resourceID]
	if !ok || r.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeResourceStore) GetResourceByFileID(_ context.Context, tenantID, fileID string) (*docmodel.Resource, error) {
	for _, r := range f.byID {
		if r.FileID == fileID && r.TenantID == tenantID {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeResourceStore) UpdateResource(_ context.Context, r *docmodel.Resource) error {
	f.byID[r.ResourceID] = r
	return nil
}

func (f *fakeResourceStore) DeleteResource(_ context.Context, tenantID, resourceID string) error {
	r, ok := f.byID[resourceID]
	if !ok || r.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(f.byID, resourceID)
	return nil
}

func (f *fakeResourceStore) ListResources(_ context.Context, tenantID string, _ store.ResourceFilters, _ store.Pagination) ([]*docmodel.Resource, error) {
	var out []*docmodel.Resource
	for _, r := range f.byID {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResourceStore) RecordAudit(tenantID, callerID, action, targetID string, _ time.Time) error {
	f.audited = append(f.audited, action+":"+targetID)
	return nil
}

type fakeAnalyzer struct {
	intent *query.Intent
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, raw string) (*query.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &query.Intent{RawText: raw, CleanText: raw, Categories: map[docmodel.CategoryType]query.CategoryMatch{}}, nil
}

type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ *query.Intent, _ int) ([]search.Result, error) {
	return f.results, f.err
}

type fakeSuggestIndex struct {
	suggestions []suggest.Suggestion
}

func (f *fakeSuggestIndex) QueryPrefix(_ context.Context, _ string, _ string, _ int) []suggest.Suggestion {
	return f.suggestions
}

type fakeCategoryAdmin struct {
	categories map[docmodel.CategoryType]*docmodel.Category
}

func newFakeCategoryAdmin() *fakeCategoryAdmin {
	return &fakeCategoryAdmin{categories: map[docmodel.CategoryType]*docmodel.Category{}}
}

func (f *fakeCategoryAdmin) ListCategories(_ context.Context, tenantID string) ([]*docmodel.Category, error) {
	var out []*docmodel.Category
	for _, c := range f.categories {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryAdmin) GetCategory(_ context.Context, _ string, categoryType docmodel.CategoryType) (*docmodel.Category, error) {
	c, ok := f.categories[categoryType]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (f *fakeCategoryAdmin) UpsertCategory(_ context.Context, c *docmodel.Category) error {
	f.categories[c.CategoryType] = c
	return nil
}

func (f *fakeCategoryAdmin) AddEntity(context.Context, string, docmodel.CategoryType, string) error {
	return nil
}

func (f *fakeCategoryAdmin) RemoveEntity(context.Context, string, docmodel.CategoryType, string) error {
	return nil
}

func (f *fakeCategoryAdmin) SetIgnoredWords(context.Context, string, docmodel.CategoryType, []string) error {
	return nil
}

func (f *fakeCategoryAdmin) SetTriggerKeywords(context.Context, string, docmodel.CategoryType, []string) error {
	return nil
}

func newTestServer(t *testing.T, resources *fakeResourceStore, categories CategoryAdmin, analyzer QueryAnalyzer, searcher Searcher, sug SuggestIndex) *Server {
	t.Helper()
	srv, err := NewServer(Config{Host: "127.0.0.1", Port: 0}, Dependencies{
		Resources:  resources,
		Blobs:      blobStoreStub{},
		Categories: categories,
		Analyzer:   analyzer,
		Searcher:   searcher,
		Suggest:    sug,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

// blobStoreStub satisfies the BlobStore interface without a real backend;
// none of the tests below exercise file download.
type blobStoreStub struct{}

func (blobStoreStub) Get(context.Context, string, string) (io.ReadCloser, string, error) {
	return nil, "", store.ErrNotFound
}
func (blobStoreStub) Delete(context.Context, string, string) error { return nil }

func doRequest(srv *Server, method, path string, tenantID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tenantID != "" {
		req.Header.Set(tenantHeader, tenantID)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearchMissingTenantIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})
	rec := doRequest(srv, http.MethodGet, "/api/v1/search?query=invoice", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleSearchRequiresQueryParam(t *testing.T) {
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})
	rec := doRequest(srv, http.MethodGet, "/api/v1/search", "tenant-a")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearchReturnsRankedResults(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{ResourceID: "r1", FileName: "google cloud invoice.pdf", Score: 1.0, MatchType: search.MatchExactPhrase},
	}}
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, searcher, &fakeSuggestIndex{})
	rec := doRequest(srv, http.MethodGet, "/api/v1/search?query=google+cloud+invoice", "tenant-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if want := `"resource_id":"r1"`; !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body = %s, want to contain %q", rec.Body.String(), want)
	}
}

func TestHandleAutocompleteBelowMinPrefixReturnsEmpty(t *testing.T) {
	sug := &fakeSuggestIndex{suggestions: []suggest.Suggestion{{Text: "google", Category: docmodel.SuggestVendors, Score: 0.9}}}
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, sug)
	rec := doRequest(srv, http.MethodGet, "/api/v1/autocomplete?q=g", "tenant-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "google") {
		t.Errorf("body = %s, want empty suggestions for a 1-char prefix", rec.Body.String())
	}
}

func TestHandleAutocompleteReturnsSuggestions(t *testing.T) {
	sug := &fakeSuggestIndex{suggestions: []suggest.Suggestion{{Text: "google", Category: docmodel.SuggestVendors, Score: 0.9}}}
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, sug)
	rec := doRequest(srv, http.MethodGet, "/api/v1/autocomplete?q=goo", "tenant-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"type":"vendor"`) {
		t.Errorf("body = %s, want vendor type", rec.Body.String())
	}
}

func TestHandleGetResourceNotFoundAcrossTenants(t *testing.T) {
	resources := newFakeResourceStore()
	resources.byID["r1"] = &docmodel.Resource{ResourceID: "r1", TenantID: "tenant-a", FileName: "secret.pdf"}
	srv := newTestServer(t, resources, newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/resources/r1", "tenant-b")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for cross-tenant get", rec.Code)
	}
}

func TestHandleGetResourceOwnTenantSucceeds(t *testing.T) {
	resources := newFakeResourceStore()
	resources.byID["r1"] = &docmodel.Resource{ResourceID: "r1", TenantID: "tenant-a", FileName: "invoice.pdf"}
	srv := newTestServer(t, resources, newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/resources/r1", "tenant-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeleteResourceRecordsAudit(t *testing.T) {
	resources := newFakeResourceStore()
	resources.byID["r1"] = &docmodel.Resource{ResourceID: "r1", TenantID: "tenant-a"}
	srv := newTestServer(t, resources, newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})

	rec := doRequest(srv, http.MethodDelete, "/api/v1/resources/r1", "tenant-a")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := resources.byID["r1"]; ok {
		t.Error("expected resource to be deleted")
	}
	found := false
	for _, a := range resources.audited {
		if a == "delete:r1" {
			found = true
		}
	}
	if !found {
		t.Errorf("audited = %v, want a delete:r1 entry", resources.audited)
	}
}

func TestHandleHealthReportsDegradedOnFailingDependency(t *testing.T) {
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})
	srv.health = map[string]HealthChecker{"store": failingHealthChecker{}}

	rec := doRequest(srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 degraded", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("body = %s, want degraded status", rec.Body.String())
	}
}

func TestHandleHealthDoesNotRequireTenantHeader(t *testing.T) {
	srv := newTestServer(t, newFakeResourceStore(), newFakeCategoryAdmin(), &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})
	rec := doRequest(srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for an unauthenticated health probe", rec.Code)
	}
}

type failingHealthChecker struct{}

func (failingHealthChecker) Ping(context.Context) error { return errors.New("unreachable") }

func TestHandleListCategoriesScopedByTenant(t *testing.T) {
	admin := newFakeCategoryAdmin()
	admin.categories[docmodel.CategoryVendor] = &docmodel.Category{TenantID: "tenant-a", CategoryType: docmodel.CategoryVendor, Enabled: true}
	srv := newTestServer(t, newFakeResourceStore(), admin, &fakeAnalyzer{}, &fakeSearcher{}, &fakeSuggestIndex{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/categories", "tenant-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"category_type":"vendor"`) {
		t.Errorf("body = %s, want vendor category", rec.Body.String())
	}
}
