package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/tenant"
)

// handleListCategories handles the category admin list.
func (s *Server) handleListCategories(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	categories, err := s.categories.ListCategories(c.Request().Context(), info.TenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing categories failed")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, cat := range categories {
		dtos = append(dtos, toCategoryDTO(cat))
	}
	return c.JSON(http.StatusOK, dtos)
}

// handleGetCategory handles the category admin get.
func (s *Server) handleGetCategory(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	cat, err := s.categories.GetCategory(c.Request().Context(), info.TenantID, docmodel.CategoryType(c.Param("type")))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}
	return c.JSON(http.StatusOK, toCategoryDTO(cat))
}

// handleUpsertCategory handles the category admin upsert.
func (s *Server) handleUpsertCategory(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req CategoryDTO
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.CategoryType = c.Param("type")

	cat := &docmodel.Category{
		TenantID:            info.TenantID,
		CategoryType:        docmodel.CategoryType(req.CategoryType),
		Entities:            req.Entities,
		IgnoredWords:        req.IgnoredWords,
		TriggerKeywords:     req.TriggerKeywords,
		MaxNonCategoryWords: req.MaxNonCategoryWords,
		MatchScore:          req.MatchScore,
		Enabled:             req.Enabled,
	}
	if err := s.categories.UpsertCategory(c.Request().Context(), cat); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "saving category failed")
	}
	_ = s.resources.RecordAudit(info.TenantID, info.CallerID, "upsert_category", req.CategoryType, time.Now())
	return c.JSON(http.StatusOK, toCategoryDTO(cat))
}

// handleAddEntity adds an entity to a category's recognized set.
func (s *Server) handleAddEntity(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var body struct {
		Entity string `json:"entity"`
	}
	if err := c.Bind(&body); err != nil || body.Entity == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity is required")
	}
	categoryType := docmodel.CategoryType(c.Param("type"))
	if err := s.categories.AddEntity(c.Request().Context(), info.TenantID, categoryType, body.Entity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "adding entity failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleRemoveEntity removes an entity from a category's recognized set.
func (s *Server) handleRemoveEntity(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	categoryType := docmodel.CategoryType(c.Param("type"))
	if err := s.categories.RemoveEntity(c.Request().Context(), info.TenantID, categoryType, c.Param("entity")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "removing entity failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSetIgnoredWords replaces a category's ignored-word list.
func (s *Server) handleSetIgnoredWords(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var body struct {
		Words []string `json:"words"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	categoryType := docmodel.CategoryType(c.Param("type"))
	if err := s.categories.SetIgnoredWords(c.Request().Context(), info.TenantID, categoryType, body.Words); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "setting ignored words failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSetTriggerKeywords replaces a category's trigger-keyword list.
func (s *Server) handleSetTriggerKeywords(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var body struct {
		Keywords []string `json:"keywords"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	categoryType := docmodel.CategoryType(c.Param("type"))
	if err := s.categories.SetTriggerKeywords(c.Request().Context(), info.TenantID, categoryType, body.Keywords); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "setting trigger keywords failed")
	}
	return c.NoContent(http.StatusNoContent)
}
