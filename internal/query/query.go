// Package query implements the Query Analyzer: parses a
// free-form query string into a structured QueryIntent — detected
// identifiers, money, dates, active per-tenant categories, file-type
// hints, and a residual semantic phrase — with no external calls.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
)

// CategorySource resolves the enabled categories for a tenant by consulting
// per-tenant category configuration. It is satisfied by *category.Admin.
type CategorySource interface {
	ListCategories(ctx context.Context, tenantID string) ([]*docmodel.Category, error)
}

// CategoryMatch is one active category's matched entities, alongside the
// category configuration that produced the match.
type CategoryMatch struct {
	MatchedEntities []string
	Category        *docmodel.Category
}

// Intent is the structured parse of a raw query string.
type Intent struct {
	RawText   string
	CleanText string

	IDs    []string
	Emails []string
	IBANs  []string
	Money  []extraction.MoneyAmount
	Dates  []string

	FileTypes []string

	Categories map[docmodel.CategoryType]CategoryMatch

	HasStrongSignal bool
}

// fileTypeHints maps trailing query tokens to the FileType filter they
// imply.
var fileTypeHints = map[string]docmodel.FileType{
	"pdf":        docmodel.FileTypePDF,
	"image":      docmodel.FileTypeImage,
	"images":     docmodel.FileTypeImage,
	"photo":      docmodel.FileTypeImage,
	"photos":     docmodel.FileTypeImage,
	"picture":    docmodel.FileTypeImage,
	"csv":        docmodel.FileTypeCSV,
	"spreadsheet": docmodel.FileTypeCSV,
	"text":       docmodel.FileTypeText,
	"note":       docmodel.FileTypeSnippet,
	"snippet":    docmodel.FileTypeSnippet,
}

// Analyzer parses raw queries into Intent, consulting a CategorySource for
// per-tenant category configuration.
type Analyzer struct {
	categories CategorySource
}

// New builds an Analyzer backed by categories.
func New(categories CategorySource) *Analyzer {
	return &Analyzer{categories: categories}
}

// Analyze parses raw into a structured Intent for tenantID.
func (a *Analyzer) Analyze(ctx context.Context, tenantID, raw string) (*Intent, error) {
	extracted := extraction.ExtractAll(raw)
	normalizedQuery := normalize.Text(raw)
	tokens := normalize.Tokenize(normalizedQuery)

	intent := &Intent{
		RawText:    raw,
		IDs:        extracted.IDs,
		Emails:     extracted.Emails,
		IBANs:      extracted.IBANs,
		Money:      extracted.Money,
		Dates:      extracted.Dates,
		Categories: map[docmodel.CategoryType]CategoryMatch{},
	}
	intent.HasStrongSignal = len(intent.IDs) > 0 || len(intent.Emails) > 0 || len(intent.IBANs) > 0 || len(intent.Money) > 0

	intent.FileTypes = detectFileTypes(tokens)

	categories, err := a.categories.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query: loading categories: %w", err)
	}

	consumed := make(map[string]bool, len(tokens))
	for _, c := range categories {
		if !c.Enabled {
			continue
		}
		match := matchCategory(c, normalizedQuery, tokens)
		if match == nil {
			continue
		}
		intent.Categories[c.CategoryType] = CategoryMatch{MatchedEntities: match.entities, Category: c}
		for _, tok := range match.consumedTokens {
			consumed[tok] = true
		}
	}

	intent.CleanText = buildCleanText(tokens, consumed, intent.FileTypes, extracted)
	return intent, nil
}

type categoryMatchResult struct {
	entities       []string
	consumedTokens []string
}

// matchCategory applies the category-detection algorithm: entities matched
// as a whole or hyphenated token, trigger keywords matched as a substring,
// and a cap on "non-category" words.
func matchCategory(c *docmodel.Category, normalizedQuery string, tokens []string) *categoryMatchResult {
	var matchedEntities []string
	consumedTokens := map[string]bool{}

	for _, entity := range c.Entities {
		if entity == "" {
			continue
		}
		if normalize.ContainsPhrase(normalizedQuery, entity) {
			matchedEntities = append(matchedEntities, entity)
			for _, tok := range normalize.Tokenize(entity) {
				consumedTokens[tok] = true
			}
		}
	}

	triggered := false
	for _, trigger := range c.TriggerKeywords {
		if trigger == "" {
			continue
		}
		if strings.Contains(normalizedQuery, trigger) {
			triggered = true
			for _, tok := range normalize.Tokenize(trigger) {
				consumedTokens[tok] = true
			}
		}
	}

	if len(matchedEntities) == 0 && !triggered {
		return nil
	}

	ignored := toSet(c.IgnoredWords)
	nonCategoryWords := 0
	for _, tok := range tokens {
		if consumedTokens[tok] || ignored[tok] {
			continue
		}
		nonCategoryWords++
	}
	if nonCategoryWords > c.MaxNonCategoryWords {
		return nil
	}

	// ignored words also count as "consumed" for clean_text purposes so
	// they don't pollute the residual semantic phrase once a category has
	// claimed the query.
	for w := range ignored {
		consumedTokens[w] = true
	}

	consumed := make([]string, 0, len(consumedTokens))
	for tok := range consumedTokens {
		consumed = append(consumed, tok)
	}
	return &categoryMatchResult{entities: matchedEntities, consumedTokens: consumed}
}

func detectFileTypes(tokens []string) []string {
	var types []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		if ft, ok := fileTypeHints[tok]; ok && !seen[string(ft)] {
			types = append(types, string(ft))
			seen[string(ft)] = true
		}
	}
	return types
}

func toSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// buildCleanText strips recognized tokens (IDs, emails, IBANs, dates,
// consumed category tokens, file-type hints) from the normalized query,
// leaving the residual semantic phrase. Money amounts are not stripped:
// their digit tokens stay in the residual phrase.
func buildCleanText(tokens []string, consumed map[string]bool, fileTypes []string, extracted extraction.Result) string {
	recognized := map[string]bool{}
	for _, ft := range fileTypes {
		for label, hint := range fileTypeHints {
			if string(hint) == ft {
				recognized[label] = true
			}
		}
	}
	for _, id := range extracted.IDs {
		for _, tok := range normalize.Tokenize(normalize.Text(id)) {
			recognized[tok] = true
		}
	}
	for _, email := range extracted.Emails {
		for _, tok := range normalize.Tokenize(normalize.Text(email)) {
			recognized[tok] = true
		}
	}
	for _, iban := range extracted.IBANs {
		for _, tok := range normalize.Tokenize(normalize.Text(iban)) {
			recognized[tok] = true
		}
	}
	for _, d := range extracted.Dates {
		for _, tok := range normalize.Tokenize(d) {
			recognized[tok] = true
		}
	}

	var out []string
	for _, tok := range tokens {
		if consumed[tok] || recognized[tok] {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
