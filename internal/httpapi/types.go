package httpapi

import (
	"time"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/search"
)

const (
	defaultSearchLimit = 30
	maxSearchLimit     = 100
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
	minPrefixLength     = 2
)

// SearchResponse is the response body for GET /api/v1/search.
type SearchResponse struct {
	Results     []SearchResultDTO `json:"results"`
	QueryIntent QueryIntentDTO    `json:"query_intent"`
	ElapsedMS   int64             `json:"elapsed_ms"`
}

// SearchResultDTO mirrors search.Result for JSON transport.
type SearchResultDTO struct {
	ResourceID     string   `json:"resource_id"`
	FileName       string   `json:"file_name"`
	FileID         string   `json:"file_id"`
	MimeType       string   `json:"mime_type"`
	Summary        string   `json:"summary"`
	Vendor         string   `json:"vendor,omitempty"`
	Score          float64  `json:"score"`
	MatchType      string   `json:"match_type"`
	MatchedValue   string   `json:"matched_value,omitempty"`
	Occurrences    int      `json:"occurrences"`
	MatchingChunks int      `json:"matching_chunks"`
	PageNumber     *int     `json:"page_number,omitempty"`
	RowIndex       *int     `json:"row_index,omitempty"`
	Highlights     []string `json:"highlights,omitempty"`
}

func toSearchResultDTO(r search.Result) SearchResultDTO {
	return SearchResultDTO{
		ResourceID:     r.ResourceID,
		FileName:       r.FileName,
		FileID:         r.FileID,
		MimeType:       r.MimeType,
		Summary:        r.Summary,
		Vendor:         r.Vendor,
		Score:          r.Score,
		MatchType:      string(r.MatchType),
		MatchedValue:   r.MatchedValue,
		Occurrences:    r.Occurrences,
		MatchingChunks: r.MatchingChunks,
		PageNumber:     r.PageNumber,
		RowIndex:       r.RowIndex,
		Highlights:     r.Highlights,
	}
}

// QueryIntentDTO surfaces the detected filters for UI display, returned
// alongside search results as the QueryIntent used.
type QueryIntentDTO struct {
	CleanText  string   `json:"clean_text"`
	IDs        []string `json:"ids,omitempty"`
	Emails     []string `json:"emails,omitempty"`
	IBANs      []string `json:"ibans,omitempty"`
	Dates      []string `json:"dates,omitempty"`
	Categories []string `json:"matched_categories,omitempty"`
}

func toQueryIntentDTO(intent *query.Intent) QueryIntentDTO {
	dto := QueryIntentDTO{
		CleanText: intent.CleanText,
		IDs:       intent.IDs,
		Emails:    intent.Emails,
		IBANs:     intent.IBANs,
		Dates:     intent.Dates,
	}
	for categoryType := range intent.Categories {
		dto.Categories = append(dto.Categories, string(categoryType))
	}
	return dto
}

// SuggestionDTO is one autocomplete entry.
type SuggestionDTO struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// AutocompleteResponse is the response body for GET /api/v1/autocomplete.
type AutocompleteResponse struct {
	Suggestions []SuggestionDTO `json:"suggestions"`
}

// IngestResponse is the response body for both ingestion endpoints.
type IngestResponse struct {
	ResourceID string    `json:"resource_id"`
	FileID     string    `json:"file_id,omitempty"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResourceDTO is a Resource projected for external consumption.
type ResourceDTO struct {
	ResourceID string            `json:"resource_id"`
	FileID     string            `json:"file_id,omitempty"`
	FileName   string            `json:"file_name"`
	MimeType   string            `json:"mime_type"`
	FileType   string            `json:"file_type"`
	SizeBytes  int64             `json:"size_bytes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Summary    string            `json:"summary"`
	Tags       []string          `json:"tags,omitempty"`
	Vendor     string            `json:"vendor,omitempty"`
	Entities   []string          `json:"entities,omitempty"`
	Keywords   []string          `json:"keywords,omitempty"`
}

func toResourceDTO(r *docmodel.Resource) ResourceDTO {
	return ResourceDTO{
		ResourceID: r.ResourceID,
		FileID:     r.FileID,
		FileName:   r.FileName,
		MimeType:   r.MimeType,
		FileType:   string(r.FileType),
		SizeBytes:  r.SizeBytes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Summary:    r.Summary,
		Tags:       r.Tags,
		Vendor:     r.Vendor,
		Entities:   r.Entities,
		Keywords:   r.Keywords,
	}
}

// UpdateResourceRequest is the request body for PATCH /resources/:id. Only
// summary, tags, and description are mutable via this endpoint.
type UpdateResourceRequest struct {
	Summary     *string   `json:"summary"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
}

// CategoryDTO is a Category projected for external consumption.
type CategoryDTO struct {
	CategoryType        string   `json:"category_type"`
	Entities            []string `json:"entities"`
	IgnoredWords        []string `json:"ignored_words"`
	TriggerKeywords     []string `json:"trigger_keywords"`
	MaxNonCategoryWords int      `json:"max_non_category_words"`
	MatchScore          float64  `json:"match_score"`
	Enabled             bool     `json:"enabled"`
}

func toCategoryDTO(c *docmodel.Category) CategoryDTO {
	return CategoryDTO{
		CategoryType:        string(c.CategoryType),
		Entities:            c.Entities,
		IgnoredWords:        c.IgnoredWords,
		TriggerKeywords:     c.TriggerKeywords,
		MaxNonCategoryWords: c.MaxNonCategoryWords,
		MatchScore:          c.MatchScore,
		Enabled:             c.Enabled,
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
