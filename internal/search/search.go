// Package search implements the Hybrid Searcher: a
// concurrent fan-out across exact, category, keyword, and semantic
// strategies, deduplicated and ranked into a single ordered result list.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/embeddings"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/vectorstore"
)

// MatchType labels why a result was returned.
type MatchType string

const (
	MatchExactPhrase   MatchType = "exact_phrase"
	MatchExactID       MatchType = "exact_id"
	MatchExactAmount   MatchType = "exact_amount"
	MatchVendor        MatchType = "vendor_match"
	MatchPeople        MatchType = "people_match"
	MatchPrice         MatchType = "price_match"
	MatchPartialWords  MatchType = "partial_words"
	MatchSemanticDoc   MatchType = "semantic_doc"
	MatchSemanticChunk MatchType = "semantic_chunk"
)

// isContentLevel reports whether mt is a content-level match type, for the
// content-over-category tie-break rule applied during ranking.
func (mt MatchType) isContentLevel() bool {
	switch mt {
	case MatchExactPhrase, MatchPartialWords, MatchSemanticDoc, MatchSemanticChunk:
		return true
	default:
		return false
	}
}

// Result is one ranked hit.
type Result struct {
	ResourceID     string
	FileName       string
	FileID         string
	MimeType       string
	Summary        string
	Vendor         string
	Score          float64
	MatchType      MatchType
	MatchedValue   string
	Occurrences    int
	MatchingChunks int
	PageNumber     *int
	RowIndex       *int
	Highlights     []string
}

// ChunkSource runs the chunk-level keyword search the searcher needs,
// satisfied by *store.Store.
type ChunkSource interface {
	KeywordSearch(ctx context.Context, tenantID, phraseNormalized string, field store.KeywordField, limit int) ([]store.KeywordHit, error)
}

// ResourceSource resolves resources by various predicates, satisfied by
// *store.Store.
type ResourceSource interface {
	ResourcesByKeywordAny(ctx context.Context, tenantID string, keywords []string) ([]*docmodel.Resource, error)
	ResourcesByEntityAny(ctx context.Context, tenantID string, entities []string) ([]*docmodel.Resource, error)
	ResourcesByVendor(ctx context.Context, tenantID string, vendors []string) ([]*docmodel.Resource, error)
	ResourcesWithAnyAmount(ctx context.Context, tenantID string) ([]*docmodel.Resource, error)
	ResourcesByMoney(ctx context.Context, tenantID, currency string, cents int64) ([]*docmodel.Resource, error)
	GetResource(ctx context.Context, tenantID, resourceID string) (*docmodel.Resource, error)
}

// Searcher is the Hybrid Searcher, fanning out strategies over the
// Document Store (F) and Embedding Client (E).
type Searcher struct {
	chunks    ChunkSource
	resources ResourceSource
	vectors   vectorstore.Store
	embedder  embeddings.Embedder
}

// New builds a Searcher.
func New(chunks ChunkSource, resources ResourceSource, vectors vectorstore.Store, embedder embeddings.Embedder) *Searcher {
	return &Searcher{chunks: chunks, resources: resources, vectors: vectors, embedder: embedder}
}

const (
	defaultLimit  = 30
	maxLimit      = 100
	noiseFloor    = 0.50
	tieBandPoints = 0.05
	semanticTopK  = 20
)

var chunkFieldScore = map[store.KeywordField]float64{
	store.FieldSearchableText:    1.00,
	store.FieldOCRTextNormalized: 0.98,
	store.FieldTextNormalized:    0.95,
	store.FieldImageDescription:  0.93,
}

var partialWordFieldScore = map[store.KeywordField]float64{
	store.FieldSearchableText:    0.50,
	store.FieldOCRTextNormalized: 0.45,
	store.FieldTextNormalized:    0.40,
}

var searchTracer = otel.Tracer("docsearch.search")

var chunkFieldOrder = []store.KeywordField{
	store.FieldSearchableText,
	store.FieldOCRTextNormalized,
	store.FieldTextNormalized,
	store.FieldImageDescription,
}

type hit struct {
	resourceID     string
	score          float64
	matchType      MatchType
	matchedValue   string
	occurrences    int
	matchingChunks int
	pageNumber     *int
	rowIndex       *int
	highlights     []string
}

// Search runs the strategy fan-out for intent over tenantID, returning up
// to limit ranked results. Every strategy is isolated: one failing leaves
// its contribution empty rather than failing the whole search.
func (s *Searcher) Search(ctx context.Context, tenantID string, intent *query.Intent, limit int) ([]Result, error) {
	ctx, span := searchTracer.Start(ctx, "Searcher.Search")
	defer span.End()
	span.SetAttributes(attribute.String("tenant_id", tenantID), attribute.Int("limit", limit))

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var (
		mu   sync.Mutex
		hits []hit
	)
	add := func(h ...hit) {
		mu.Lock()
		hits = append(hits, h...)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) []hit) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logging.FromContext(ctx).Warn(ctx, "search strategy panicked", zap.String("strategy", name), zap.Any("recover", r))
				}
			}()
			add(fn(ctx)...)
		}()
	}

	if intent.CleanText != "" {
		run("exact_phrase", func(ctx context.Context) []hit { return s.exactPhrase(ctx, tenantID, intent.CleanText) })
	}
	if len(intent.IDs) > 0 || len(intent.Emails) > 0 || len(intent.IBANs) > 0 {
		run("exact_identifier", func(ctx context.Context) []hit { return s.exactIdentifier(ctx, tenantID, intent) })
	}
	if len(intent.Money) > 0 {
		run("money", func(ctx context.Context) []hit { return s.money(ctx, tenantID, intent.Money) })
	}
	run("category", func(ctx context.Context) []hit { return s.categories(ctx, tenantID, intent) })

	// Strategy selector: a strong signal (IDs, emails, IBANs, money) keeps
	// the fan-out on the exact strategies above; short queries without one
	// stay on keyword + category; only longer free-text queries pay for the
	// semantic round trips.
	tokens := normalize.Tokenize(intent.CleanText)
	if len(tokens) > 1 && !intent.HasStrongSignal {
		run("partial_words", func(ctx context.Context) []hit { return s.partialWords(ctx, tenantID, tokens) })
	}
	if s.embedder != nil && s.vectors != nil && len(tokens) > 2 && !intent.HasStrongSignal {
		run("semantic_doc", func(ctx context.Context) []hit {
			return s.semantic(ctx, tenantID, intent.CleanText, vectorstore.KindResource, MatchSemanticDoc)
		})
		run("semantic_chunk", func(ctx context.Context) []hit {
			return s.semantic(ctx, tenantID, intent.CleanText, vectorstore.KindChunk, MatchSemanticChunk)
		})
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	best := dedupe(hits)
	filtered := applyNoiseFloor(best, tokens, intent.HasStrongSignal)
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].score > filtered[j].score })
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	results := make([]Result, 0, len(filtered))
	for _, h := range filtered {
		resource, err := s.resources.GetResource(ctx, tenantID, h.resourceID)
		if err != nil {
			continue
		}
		results = append(results, Result{
			ResourceID:     resource.ResourceID,
			FileName:       resource.FileName,
			FileID:         resource.FileID,
			MimeType:       resource.MimeType,
			Summary:        resource.Summary,
			Vendor:         resource.Vendor,
			Score:          h.score,
			MatchType:      h.matchType,
			MatchedValue:   h.matchedValue,
			Occurrences:    h.occurrences,
			MatchingChunks: h.matchingChunks,
			PageNumber:     h.pageNumber,
			RowIndex:       h.rowIndex,
			Highlights:     h.highlights,
		})
	}
	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}

// exactPhrase runs strategy 1: substring match of clean_text across every
// chunk field, scored by the field's fixed base score.
func (s *Searcher) exactPhrase(ctx context.Context, tenantID, cleanText string) []hit {
	phrase := normalize.Text(cleanText)
	var out []hit
	for _, field := range chunkFieldOrder {
		hits, err := s.chunks.KeywordSearch(ctx, tenantID, phrase, field, 50)
		if err != nil || len(hits) == 0 {
			continue
		}
		byResource := map[string]*hit{}
		for _, kh := range hits {
			h, ok := byResource[kh.Chunk.ParentResourceID]
			if !ok {
				h = &hit{
					resourceID:   kh.Chunk.ParentResourceID,
					score:        chunkFieldScore[field],
					matchType:    MatchExactPhrase,
					matchedValue: cleanText,
					pageNumber:   kh.Chunk.PageNumber,
					rowIndex:     kh.Chunk.RowIndex,
				}
				byResource[kh.Chunk.ParentResourceID] = h
			}
			h.occurrences += kh.Occurrences
			h.matchingChunks++
		}
		for _, h := range byResource {
			out = append(out, *h)
		}
	}
	return out
}

// exactIdentifier runs strategy 2: resources whose keywords set contains
// any extracted ID, email, or IBAN.
func (s *Searcher) exactIdentifier(ctx context.Context, tenantID string, intent *query.Intent) []hit {
	candidates := make([]string, 0, len(intent.IDs)+len(intent.Emails)+len(intent.IBANs))
	candidates = append(candidates, intent.IDs...)
	candidates = append(candidates, intent.Emails...)
	candidates = append(candidates, intent.IBANs...)
	if len(candidates) == 0 {
		return nil
	}
	resources, err := s.resources.ResourcesByKeywordAny(ctx, tenantID, candidates)
	if err != nil {
		return nil
	}
	out := make([]hit, 0, len(resources))
	for _, r := range resources {
		out = append(out, hit{
			resourceID:   r.ResourceID,
			score:        1.0,
			matchType:    MatchExactID,
			matchedValue: strings.Join(candidates, ", "),
		})
	}
	return out
}

// money runs strategy 3: resources whose amounts_cents set intersects any
// extracted money amount, honoring currency when present on both sides.
func (s *Searcher) money(ctx context.Context, tenantID string, amounts []extraction.MoneyAmount) []hit {
	var out []hit
	seen := map[string]bool{}
	for _, m := range amounts {
		resources, err := s.resources.ResourcesByMoney(ctx, tenantID, m.Currency, m.AmountCents)
		if err != nil {
			continue
		}
		for _, r := range resources {
			if seen[r.ResourceID] {
				continue
			}
			seen[r.ResourceID] = true
			out = append(out, hit{
				resourceID:   r.ResourceID,
				score:        1.0,
				matchType:    MatchExactAmount,
				matchedValue: fmt.Sprintf("%s %d", m.Currency, m.AmountCents),
			})
		}
	}
	return out
}

// categories runs strategy 4 across every category active on the intent.
func (s *Searcher) categories(ctx context.Context, tenantID string, intent *query.Intent) []hit {
	var out []hit
	for categoryType, match := range intent.Categories {
		switch categoryType {
		case docmodel.CategoryVendor:
			resources, err := s.resources.ResourcesByVendor(ctx, tenantID, match.MatchedEntities)
			if err != nil {
				continue
			}
			out = append(out, categoryHits(resources, match.Category.MatchScore, MatchVendor, match.MatchedEntities)...)
		case docmodel.CategoryPeople:
			resources, err := s.resources.ResourcesByEntityAny(ctx, tenantID, match.MatchedEntities)
			if err != nil {
				continue
			}
			out = append(out, categoryHits(resources, match.Category.MatchScore, MatchPeople, match.MatchedEntities)...)
		case docmodel.CategoryPrice:
			resources, err := s.resources.ResourcesWithAnyAmount(ctx, tenantID)
			if err != nil {
				continue
			}
			out = append(out, categoryHits(resources, match.Category.MatchScore, MatchPrice, match.MatchedEntities)...)
		default:
			// Custom categories reuse the entity-membership strategy; the
			// category's own MatchScore and type label carry through.
			if len(match.MatchedEntities) == 0 {
				continue
			}
			resources, err := s.resources.ResourcesByEntityAny(ctx, tenantID, match.MatchedEntities)
			if err != nil {
				continue
			}
			out = append(out, categoryHits(resources, match.Category.MatchScore, MatchType(categoryType), match.MatchedEntities)...)
		}
	}
	return out
}

func categoryHits(resources []*docmodel.Resource, score float64, matchType MatchType, matchedEntities []string) []hit {
	out := make([]hit, 0, len(resources))
	for _, r := range resources {
		out = append(out, hit{
			resourceID:   r.ResourceID,
			score:        score,
			matchType:    matchType,
			matchedValue: strings.Join(matchedEntities, ", "),
		})
	}
	return out
}

// partialWords runs strategy 5: counts clean_text tokens present in each
// chunk's fields, requiring overlap_ratio >= 0.5.
func (s *Searcher) partialWords(ctx context.Context, tenantID string, tokens []string) []hit {
	type accumulator struct {
		matched  map[string]bool
		chunks   int
		field    store.KeywordField
		pageNum  *int
		rowIndex *int
	}
	byResourceField := map[string]*accumulator{}

	for _, field := range []store.KeywordField{store.FieldSearchableText, store.FieldOCRTextNormalized, store.FieldTextNormalized} {
		for _, token := range tokens {
			hits, err := s.chunks.KeywordSearch(ctx, tenantID, token, field, 50)
			if err != nil {
				continue
			}
			for _, kh := range hits {
				key := kh.Chunk.ParentResourceID + "|" + string(field)
				acc, ok := byResourceField[key]
				if !ok {
					acc = &accumulator{matched: map[string]bool{}, field: field, pageNum: kh.Chunk.PageNumber, rowIndex: kh.Chunk.RowIndex}
					byResourceField[key] = acc
				}
				acc.matched[token] = true
				acc.chunks++
			}
		}
	}

	var out []hit
	total := float64(len(tokens))
	for key, acc := range byResourceField {
		overlap := float64(len(acc.matched)) / total
		if overlap < 0.5 {
			continue
		}
		resourceID := strings.SplitN(key, "|", 2)[0]
		out = append(out, hit{
			resourceID:     resourceID,
			score:          partialWordFieldScore[acc.field] * overlap,
			matchType:      MatchPartialWords,
			matchedValue:   strings.Join(tokens, " "),
			matchingChunks: acc.chunks,
			pageNumber:     acc.pageNum,
			rowIndex:       acc.rowIndex,
		})
	}
	return out
}

// semantic runs strategies 6/7: embed clean_text and rank by cosine
// similarity against resource- or chunk-level vectors.
func (s *Searcher) semantic(ctx context.Context, tenantID, cleanText string, kind vectorstore.VectorKind, matchType MatchType) []hit {
	vector, err := s.embedder.EmbedQuery(ctx, cleanText)
	if err != nil || vector == nil {
		return nil
	}
	matches, err := s.vectors.Search(ctx, tenantID, kind, vector, semanticTopK)
	if err != nil {
		return nil
	}
	out := make([]hit, 0, len(matches))
	for _, m := range matches {
		h := hit{
			resourceID:   m.ResourceID,
			score:        float64(m.Score),
			matchType:    matchType,
			matchedValue: cleanText,
		}
		if kind == vectorstore.KindChunk {
			h.matchingChunks = 1
		}
		out = append(out, h)
	}
	return out
}

// dedupe groups hits by resource_id, keeping the highest score and
// applying the content-over-category tie-break.
func dedupe(hits []hit) []hit {
	byResource := map[string]hit{}
	for _, h := range hits {
		existing, ok := byResource[h.resourceID]
		if !ok {
			byResource[h.resourceID] = h
			continue
		}
		if winsOver(h, existing) {
			byResource[h.resourceID] = h
		}
	}
	out := make([]hit, 0, len(byResource))
	for _, h := range byResource {
		out = append(out, h)
	}
	return out
}

// winsOver reports whether candidate should replace current as the
// resource's kept hit.
func winsOver(candidate, current hit) bool {
	diff := candidate.score - current.score
	if diff > tieBandPoints {
		return true
	}
	if diff < -tieBandPoints {
		return false
	}
	// within the tie band: prefer content-level over category-level
	if candidate.matchType.isContentLevel() && !current.matchType.isContentLevel() {
		return true
	}
	if !candidate.matchType.isContentLevel() && current.matchType.isContentLevel() {
		return false
	}
	return candidate.score > current.score
}

// applyNoiseFloor drops results scoring below 0.50 when the query has
// multiple words and no strong signal.
func applyNoiseFloor(hits []hit, tokens []string, hasStrongSignal bool) []hit {
	if hasStrongSignal || len(tokens) <= 1 {
		return hits
	}
	out := make([]hit, 0, len(hits))
	for _, h := range hits {
		if h.score < noiseFloor {
			continue
		}
		out = append(out, h)
	}
	return out
}
