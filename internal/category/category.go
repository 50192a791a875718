// Package category implements the Category Admin:
// per-tenant CRUD over vendor/people/price/custom category configuration,
// with lazy default seeding on first access and an in-process cache so the
// Query Analyzer (I) and Hybrid Searcher (J) don't round-trip to the
// Document Store on every query.
package category

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
)

// Store is the persistence surface Admin needs from the Document Store.
// Defined narrowly here (rather than depending on *store.Store directly)
// so tests can supply an in-memory fake.
type Store interface {
	GetCategories(ctx context.Context, tenantID string) ([]*docmodel.Category, error)
	UpsertCategory(ctx context.Context, c *docmodel.Category) error
}

// cacheSize bounds the number of tenants whose category sets are cached at
// once; least-recently-used tenants are evicted first.
const cacheSize = 1024

// Admin implements Category CRUD with lazy per-tenant default seeding.
type Admin struct {
	store Store
	cache *lru.Cache[string, []*docmodel.Category]
	mu    sync.Mutex
}

// New builds an Admin backed by store.
func New(store Store) (*Admin, error) {
	cache, err := lru.New[string, []*docmodel.Category](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("category: building cache: %w", err)
	}
	return &Admin{store: store, cache: cache}, nil
}

// defaultVendors seeds a curated list of well-known vendors so a fresh
// tenant's vendor category is immediately useful.
var defaultVendors = []string{
	"google", "amazon", "microsoft", "apple", "adobe", "dropbox",
	"slack", "zoom", "github", "gitlab", "atlassian", "salesforce",
	"stripe", "paypal", "uber", "airbnb", "netflix", "spotify",
	"digitalocean", "cloudflare", "godaddy", "linkedin", "oracle",
}

var defaultVendorIgnoredWords = []string{
	"invoice", "bill", "payment", "contract", "subscription",
	"from", "by", "provider", "service",
}

var defaultPeopleIgnoredWords = []string{
	"email", "from", "to", "cc", "contact", "person",
	"sent", "received", "by", "author", "sender",
}

var defaultPriceTriggers = []string{
	"price", "cost", "amount", "number", "how much", "what price",
}

func seedDefaults(tenantID string) []*docmodel.Category {
	return []*docmodel.Category{
		{
			TenantID:            tenantID,
			CategoryType:        docmodel.CategoryVendor,
			Entities:            append([]string(nil), defaultVendors...),
			IgnoredWords:        append([]string(nil), defaultVendorIgnoredWords...),
			MaxNonCategoryWords: 1,
			MatchScore:          0.88,
			Enabled:             true,
		},
		{
			TenantID:            tenantID,
			CategoryType:        docmodel.CategoryPeople,
			IgnoredWords:        append([]string(nil), defaultPeopleIgnoredWords...),
			MaxNonCategoryWords: 1,
			MatchScore:          0.85,
			Enabled:             true,
		},
		{
			TenantID:            tenantID,
			CategoryType:        docmodel.CategoryPrice,
			TriggerKeywords:     append([]string(nil), defaultPriceTriggers...),
			MaxNonCategoryWords: 2,
			MatchScore:          0.90,
			Enabled:             true,
		},
	}
}

// normalizeCategory lowercases/normalizes entity and word lists so matching
// in the Query Analyzer is a plain string comparison.
func normalizeCategory(c *docmodel.Category) {
	c.Entities = normalizeAll(c.Entities)
	c.IgnoredWords = normalizeAll(c.IgnoredWords)
	c.TriggerKeywords = normalizeAll(c.TriggerKeywords)
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalize.Text(s)
	}
	return out
}

// ListCategories returns every category configured for tenantID, seeding
// defaults on first access. Results are cached until the next mutation.
func (a *Admin) ListCategories(ctx context.Context, tenantID string) ([]*docmodel.Category, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listLocked(ctx, tenantID)
}

func (a *Admin) listLocked(ctx context.Context, tenantID string) ([]*docmodel.Category, error) {
	if cached, ok := a.cache.Get(tenantID); ok {
		return cached, nil
	}

	categories, err := a.store.GetCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("category: list: %w", err)
	}

	if len(categories) == 0 {
		categories = seedDefaults(tenantID)
		for _, c := range categories {
			normalizeCategory(c)
			if err := a.store.UpsertCategory(ctx, c); err != nil {
				return nil, fmt.Errorf("category: seeding defaults: %w", err)
			}
		}
	}

	a.cache.Add(tenantID, categories)
	return categories, nil
}

// GetCategory returns one category by type, seeding defaults first if the
// tenant has none configured yet.
func (a *Admin) GetCategory(ctx context.Context, tenantID string, categoryType docmodel.CategoryType) (*docmodel.Category, error) {
	categories, err := a.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.CategoryType == categoryType {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category: %s not found for tenant %s", categoryType, tenantID)
}

// UpsertCategory creates or replaces a tenant's category configuration and
// invalidates the cache so the next query sees the change immediately.
func (a *Admin) UpsertCategory(ctx context.Context, c *docmodel.Category) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	normalizeCategory(c)
	if err := a.store.UpsertCategory(ctx, c); err != nil {
		return fmt.Errorf("category: upsert: %w", err)
	}
	a.cache.Remove(c.TenantID)
	return nil
}

// AddEntity appends entity (normalized) to categoryType's entity set if
// not already present.
func (a *Admin) AddEntity(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, entity string) error {
	c, err := a.getForMutation(ctx, tenantID, categoryType)
	if err != nil {
		return err
	}
	normalized := normalize.Text(entity)
	if !contains(c.Entities, normalized) {
		c.Entities = append(c.Entities, normalized)
		sort.Strings(c.Entities)
	}
	return a.UpsertCategory(ctx, c)
}

// RemoveEntity removes entity (normalized) from categoryType's entity set.
func (a *Admin) RemoveEntity(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, entity string) error {
	c, err := a.getForMutation(ctx, tenantID, categoryType)
	if err != nil {
		return err
	}
	c.Entities = remove(c.Entities, normalize.Text(entity))
	return a.UpsertCategory(ctx, c)
}

// SetIgnoredWords replaces categoryType's ignored-word set.
func (a *Admin) SetIgnoredWords(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, words []string) error {
	c, err := a.getForMutation(ctx, tenantID, categoryType)
	if err != nil {
		return err
	}
	c.IgnoredWords = words
	return a.UpsertCategory(ctx, c)
}

// SetTriggerKeywords replaces categoryType's trigger-keyword set.
func (a *Admin) SetTriggerKeywords(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, keywords []string) error {
	c, err := a.getForMutation(ctx, tenantID, categoryType)
	if err != nil {
		return err
	}
	c.TriggerKeywords = keywords
	return a.UpsertCategory(ctx, c)
}

func (a *Admin) getForMutation(ctx context.Context, tenantID string, categoryType docmodel.CategoryType) (*docmodel.Category, error) {
	c, err := a.GetCategory(ctx, tenantID, categoryType)
	if err != nil {
		// Unknown custom category type: start a fresh, enabled one.
		return &docmodel.Category{TenantID: tenantID, CategoryType: categoryType, Enabled: true, MatchScore: 0.8}, nil
	}
	clone := *c
	clone.Entities = append([]string(nil), c.Entities...)
	clone.IgnoredWords = append([]string(nil), c.IgnoredWords...)
	clone.TriggerKeywords = append([]string(nil), c.TriggerKeywords...)
	return &clone, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func remove(haystack []string, needle string) []string {
	out := haystack[:0:0]
	for _, s := range haystack {
		if s != needle {
			out = append(out, s)
		}
	}
	return out
}
