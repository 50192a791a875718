// Package suggest implements the Suggestion Index: five
// per-tenant, lexicographically-ordered term sets (filenames, vendors,
// entities, keywords, all_terms) backed by Redis, supporting prefix-range
// autocomplete queries well under the user's typing cadence.
//
// Redis sorted sets rank by score, not lexicographic order, so a single
// ZSET can't serve both "accumulate type_priority×frequency" and "scan by
// prefix" at once. Each category therefore gets two keys: a score-0 ZSET
// used purely for ZRANGEBYLEX prefix scans, and a HASH carrying the
// accumulated score per term, looked up after the scan.
package suggest

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
)

// Categories lists the five sorted sets in descending type-priority order,
// the order query_prefix merges results in.
var Categories = []docmodel.SuggestionCategory{
	docmodel.SuggestFilenames,
	docmodel.SuggestVendors,
	docmodel.SuggestEntities,
	docmodel.SuggestKeywords,
	docmodel.SuggestAllTerms,
}

// Index is the Redis-backed Suggestion Index.
type Index struct {
	client *redis.Client
}

// New builds an Index connected to addr.
func New(addr, password string, db int) *Index {
	return &Index{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewWithClient wraps an already-constructed client (used by tests against
// miniredis and by callers wanting custom TLS/pool options).
func NewWithClient(client *redis.Client) *Index {
	return &Index{client: client}
}

// Close releases the connection pool.
func (i *Index) Close() error {
	return i.client.Close()
}

// Ping checks that Redis is reachable, for the health endpoint.
func (i *Index) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

func lexKey(tenantID string, category docmodel.SuggestionCategory) string {
	return fmt.Sprintf("suggest:lex:%s:%s", tenantID, category)
}

func scoreKey(tenantID string, category docmodel.SuggestionCategory) string {
	return fmt.Sprintf("suggest:score:%s:%s", tenantID, category)
}

// Terms extracts the per-category terms a Resource contributes to the
// index. all_terms is every individual token across the other four
// categories' normalized phrases.
func Terms(resource *docmodel.Resource) map[docmodel.SuggestionCategory][]string {
	terms := map[docmodel.SuggestionCategory][]string{}

	if resource.FileName != "" {
		terms[docmodel.SuggestFilenames] = []string{normalize.Text(resource.FileName)}
	}
	if resource.Vendor != "" {
		terms[docmodel.SuggestVendors] = []string{normalize.Text(resource.Vendor)}
	}
	if len(resource.Entities) > 0 {
		terms[docmodel.SuggestEntities] = normalizeEach(resource.Entities)
	}
	if len(resource.Keywords) > 0 {
		terms[docmodel.SuggestKeywords] = normalizeEach(resource.Keywords)
	}

	allTermsSet := map[string]struct{}{}
	for _, phrases := range terms {
		for _, phrase := range phrases {
			for _, tok := range normalize.Tokenize(phrase) {
				allTermsSet[normalize.Text(tok)] = struct{}{}
			}
		}
	}
	if len(allTermsSet) > 0 {
		all := make([]string, 0, len(allTermsSet))
		for t := range allTermsSet {
			all = append(all, t)
		}
		sort.Strings(all)
		terms[docmodel.SuggestAllTerms] = all
	}

	return terms
}

func normalizeEach(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, normalize.Text(s))
	}
	return out
}

// IndexResource increments every term the resource contributes, across its
// four source categories plus all_terms.
func (i *Index) IndexResource(ctx context.Context, tenantID string, resource *docmodel.Resource) error {
	terms := Terms(resource)
	pipe := i.client.TxPipeline()
	for category, phrases := range terms {
		priority := category.TypePriority()
		lex, score := lexKey(tenantID, category), scoreKey(tenantID, category)
		for _, term := range phrases {
			if term == "" {
				continue
			}
			pipe.ZAdd(ctx, lex, redis.Z{Score: 0, Member: term})
			pipe.HIncrByFloat(ctx, score, term, priority)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("suggest: index resource: %w", err)
	}
	return nil
}

// RemoveResource attempts to decrement the score contributed by resource's
// current fields. Because term-to-resource membership isn't tracked, terms
// shared with other resources are left at whatever residual score remains.
// query_prefix correctness is unaffected, only suggestion freshness.
func (i *Index) RemoveResource(ctx context.Context, tenantID string, resource *docmodel.Resource) error {
	terms := Terms(resource)
	pipe := i.client.TxPipeline()
	for category, phrases := range terms {
		priority := category.TypePriority()
		score := scoreKey(tenantID, category)
		for _, term := range phrases {
			if term == "" {
				continue
			}
			pipe.HIncrByFloat(ctx, score, term, -priority)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("suggest: remove resource: %w", err)
	}
	return nil
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Text     string
	Category docmodel.SuggestionCategory
	Score    float64
}

// typeLabel maps a SuggestionCategory to the external "type" the
// autocomplete endpoint exposes (singular).
func typeLabel(category docmodel.SuggestionCategory) string {
	switch category {
	case docmodel.SuggestFilenames:
		return "file"
	case docmodel.SuggestVendors:
		return "vendor"
	case docmodel.SuggestEntities:
		return "entity"
	case docmodel.SuggestKeywords:
		return "keyword"
	default:
		return "term"
	}
}

// Type returns the external type label for this suggestion.
func (s Suggestion) Type() string { return typeLabel(s.Category) }

// overfetchFactor widens the per-category lex scan beyond maxResults so
// that after merge+dedup there are still enough distinct terms to fill the
// final top-maxResults list.
const overfetchFactor = 4

// QueryPrefix returns up to maxResults suggestions across all five
// categories whose normalized term starts with prefixNormalized, merged in
// descending type-priority order and deduplicated (first/highest-priority
// category wins per term), then sorted by final score descending.
//
// Any Redis failure degrades to an empty list rather than an error:
// autocomplete never surfaces a backend outage to the caller.
func (i *Index) QueryPrefix(ctx context.Context, tenantID, prefixNormalized string, maxResults int) []Suggestion {
	if len(prefixNormalized) < 2 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	seen := make(map[string]struct{})
	var out []Suggestion

	for _, category := range Categories {
		terms, err := i.scanPrefix(ctx, tenantID, category, prefixNormalized, maxResults*overfetchFactor)
		if err != nil {
			continue
		}
		for _, term := range terms {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			score, err := i.client.HGet(ctx, scoreKey(tenantID, category), term).Float64()
			if err != nil {
				score = category.TypePriority()
			}
			out = append(out, Suggestion{Text: term, Category: category, Score: score})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

func (i *Index) scanPrefix(ctx context.Context, tenantID string, category docmodel.SuggestionCategory, prefix string, limit int) ([]string, error) {
	min := "[" + prefix
	max := "[" + prefix + "\xff"
	result, err := i.client.ZRangeByLex(ctx, lexKey(tenantID, category), &redis.ZRangeBy{
		Min:   min,
		Max:   max,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("suggest: scan prefix: %w", err)
	}
	return result, nil
}
