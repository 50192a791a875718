package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Bajtlamer/docsearch-core/internal/normalize"
	"github.com/Bajtlamer/docsearch-core/internal/tenant"
)

// handleSearch handles a search request: free-text query plus optional
// limit, returning ranked results and the detected QueryIntent.
func (s *Server) handleSearch(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	if s.analyzer == nil || s.searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	}
	q := c.QueryParam("query")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	limit := parseLimit(c.QueryParam("limit"), defaultSearchLimit, maxSearchLimit)

	start := time.Now()
	ctx := c.Request().Context()

	intent, err := s.analyzer.Analyze(ctx, info.TenantID, q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "analyzing query")
	}

	results, err := s.searcher.Search(ctx, info.TenantID, intent, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	dtoResults := make([]SearchResultDTO, 0, len(results))
	for _, r := range results {
		dtoResults = append(dtoResults, toSearchResultDTO(r))
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Results:     dtoResults,
		QueryIntent: toQueryIntentDTO(intent),
		ElapsedMS:   time.Since(start).Milliseconds(),
	})
}

// handleAutocomplete handles an autocomplete request. Prefixes shorter
// than minPrefixLength, and any backend failure, yield an empty
// suggestion list rather than an error.
func (s *Server) handleAutocomplete(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	q := c.QueryParam("q")
	if len(q) < minPrefixLength || s.suggest == nil {
		return c.JSON(http.StatusOK, AutocompleteResponse{Suggestions: []SuggestionDTO{}})
	}
	limit := parseLimit(c.QueryParam("limit"), defaultSuggestLimit, maxSuggestLimit)

	prefixNormalized := normalize.Text(q)
	suggestions := s.suggest.QueryPrefix(c.Request().Context(), info.TenantID, prefixNormalized, limit)

	out := make([]SuggestionDTO, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, SuggestionDTO{Text: sg.Text, Type: sg.Type(), Score: sg.Score})
	}
	return c.JSON(http.StatusOK, AutocompleteResponse{Suggestions: out})
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
