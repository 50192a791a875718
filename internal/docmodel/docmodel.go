// Package docmodel defines the entities shared across the ingestion,
// query, and search packages: Resource, Chunk, Category, and the
// autocomplete Suggestion Entry.
package docmodel

import "time"

// FileType enumerates the Resource.FileType values recognized by the File
// Processors.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeImage   FileType = "image"
	FileTypeCSV     FileType = "csv"
	FileTypeText    FileType = "text"
	FileTypeSnippet FileType = "snippet"
)

// Resource is one ingested document or snippet.
type Resource struct {
	ResourceID string
	TenantID   string
	FileID     string // empty for snippets

	FileName  string
	MimeType  string
	FileType  FileType
	SizeBytes int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Summary is user-authored and never overwritten by machine extraction.
	Summary string
	// TechnicalMetadata holds processor/LLM-derived detail, kept separate
	// from Summary.
	TechnicalMetadata map[string]string
	Tags              []string

	// Derived searchable fields, refreshed by the Ingestion Coordinator
	// and Reindex Coordinator.
	Vendor            string
	Entities          []string
	Keywords          []string
	AmountsCents      []int64
	Currency          string
	Dates             []time.Time
	Content           string
	DocumentEmbedding []float32
}

// Chunk is one searchable unit of a Resource.
type Chunk struct {
	ChunkID          string
	ParentResourceID string
	TenantID         string
	ChunkIndex       int
	CharStart        int
	CharEnd          int

	Text              string
	TextNormalized    string
	OCRText           string
	OCRTextNormalized string
	ImageDescription  string
	// SearchableText concatenates resource file name + summary + tags +
	// keywords + chunk text (+ OCR text), all normalized. It is the field
	// scored against phrase queries.
	SearchableText string

	PageNumber *int
	RowIndex   *int

	ChunkEmbedding []float32
}

// CategoryType enumerates the built-in category types; user-defined
// strings are also valid.
type CategoryType string

const (
	CategoryVendor CategoryType = "vendor"
	CategoryPeople CategoryType = "people"
	CategoryPrice  CategoryType = "price"
)

// Category is per-tenant configuration of entity recognition, consumed by
// the Query Analyzer (I) and Hybrid Searcher (J).
type Category struct {
	TenantID     string
	CategoryType CategoryType

	Entities            []string // canonical, lowercase, matched case-insensitively
	IgnoredWords        []string
	TriggerKeywords     []string
	MaxNonCategoryWords int
	MatchScore          float64
	Enabled             bool
}

// SuggestionCategory enumerates the five sorted sets maintained by the
// Suggestion Index.
type SuggestionCategory string

const (
	SuggestFilenames SuggestionCategory = "filenames"
	SuggestVendors   SuggestionCategory = "vendors"
	SuggestEntities  SuggestionCategory = "entities"
	SuggestKeywords  SuggestionCategory = "keywords"
	SuggestAllTerms  SuggestionCategory = "all_terms"
)

// TypePriority returns the per-category constant used to compute a
// suggestion entry's score (type_priority × observed_frequency).
func (c SuggestionCategory) TypePriority() float64 {
	switch c {
	case SuggestFilenames:
		return 1.0
	case SuggestVendors:
		return 0.9
	case SuggestEntities:
		return 0.8
	case SuggestKeywords:
		return 0.7
	case SuggestAllTerms:
		return 0.5
	default:
		return 0
	}
}

// SuggestionEntry is one term in the autocomplete index.
type SuggestionEntry struct {
	TenantID       string
	Category       SuggestionCategory
	TermNormalized string
	Score          float64
}

// AuditEntry records an administrative or mutating action for compliance.
type AuditEntry struct {
	TenantID  string
	CallerID  string
	Action    string
	TargetID  string
	Timestamp time.Time
}
