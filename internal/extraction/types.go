// Package extraction implements the Metadata Extractors:
// deterministic regex extraction of identifiers, emails, IBANs, money
// amounts, and dates, plus opportunistic LLM-backed extraction of entities,
// keywords, and vendor candidates.
package extraction

import "context"

// MoneyAmount is a (currency, amount_cents) pair extracted from text.
type MoneyAmount struct {
	Currency     string
	AmountCents  int64
}

// Result is everything the Metadata Extractors emit for one text block.
type Result struct {
	IDs      []string
	Emails   []string
	IBANs    []string
	Money    []MoneyAmount
	Dates    []string // ISO-8601 calendar dates (YYYY-MM-DD)
	Entities []string // LLM-backed, best effort
	Keywords []string // LLM-backed, best effort
}

// SemanticExtractor is the interface for the opportunistic, model-backed
// half of extraction: entities and keywords. Ingestion must succeed even
// when it is unavailable or times out: on failure the sets remain empty.
type SemanticExtractor interface {
	// ExtractEntitiesKeywords returns (entities, keywords) for text, or an
	// error when the call fails, including timeouts and non-2xx responses;
	// those are not swallowed. Callers log a non-nil error and carry on
	// with empty sets.
	ExtractEntitiesKeywords(ctx context.Context, text string) (entities, keywords []string, err error)

	// Available reports whether the extractor is configured (has an API key).
	Available() bool
}
