package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/ingest"
	"github.com/Bajtlamer/docsearch-core/internal/reindex"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/tenant"
)

// handleIngestFile handles file ingestion: multipart with file, optional
// comma-separated tags, optional description.
func (s *Server) handleIngestFile(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if s.ingest == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion unavailable")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}

	upload := ingest.Upload{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
		Summary:  c.FormValue("description"),
		Tags:     splitTags(c.FormValue("tags")),
	}
	return s.runIngest(c, info, upload)
}

// handleIngestSnippet handles snippet ingestion.
func (s *Server) handleIngestSnippet(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if s.ingest == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion unavailable")
	}

	title := c.FormValue("title")
	text := c.FormValue("text")
	if title == "" || text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and text are required")
	}

	upload := ingest.Upload{
		SnippetTitle: title,
		SnippetBody:  text,
		Summary:      c.FormValue("snippet_source"),
		Tags:         splitTags(c.FormValue("tags")),
	}
	return s.runIngest(c, info, upload)
}

func (s *Server) runIngest(c echo.Context, info *tenant.Info, upload ingest.Upload) error {
	ctx := c.Request().Context()
	resourceID, err := s.ingest.Ingest(ctx, info.TenantID, info.CallerID, upload)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		}
		if errors.Is(err, ingest.ErrTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		}
		s.logger.Error(ctx, "ingest failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	resource, err := s.resources.GetResource(ctx, info.TenantID, resourceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "resource created but could not be read back")
	}

	_ = s.resources.RecordAudit(info.TenantID, info.CallerID, "ingest", resourceID, time.Now())

	return c.JSON(http.StatusCreated, IngestResponse{
		ResourceID: resource.ResourceID,
		FileID:     resource.FileID,
		FileName:   resource.FileName,
		MimeType:   resource.MimeType,
		CreatedAt:  resource.CreatedAt,
	})
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// handleListResources handles Resource CRUD "list".
func (s *Server) handleListResources(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	filters := store.ResourceFilters{
		FileType: c.QueryParam("file_type"),
		Vendor:   c.QueryParam("vendor"),
	}
	page := store.Pagination{
		Offset: atoiDefault(c.QueryParam("offset"), 0),
		Limit:  atoiDefault(c.QueryParam("limit"), 50),
	}

	resources, err := s.resources.ListResources(c.Request().Context(), info.TenantID, filters, page)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing resources failed")
	}

	dtos := make([]ResourceDTO, 0, len(resources))
	for _, r := range resources {
		dtos = append(dtos, toResourceDTO(r))
	}
	return c.JSON(http.StatusOK, dtos)
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// handleGetResource handles Resource CRUD "get".
func (s *Server) handleGetResource(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	resource, err := s.resources.GetResource(c.Request().Context(), info.TenantID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "reading resource failed")
	}
	return c.JSON(http.StatusOK, toResourceDTO(resource))
}

// handleUpdateResource handles Resource CRUD "update" (summary, tags,
// description only), triggering a reindex event.
func (s *Server) handleUpdateResource(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	ctx := c.Request().Context()
	resourceID := c.Param("id")

	var req UpdateResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resource, err := s.resources.GetResource(ctx, info.TenantID, resourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "reading resource failed")
	}

	var changedFields []string
	if req.Summary != nil {
		resource.Summary = *req.Summary
		changedFields = append(changedFields, "summary")
	}
	if req.Tags != nil {
		resource.Tags = *req.Tags
		changedFields = append(changedFields, "tags")
	}
	if req.Description != nil {
		if resource.TechnicalMetadata == nil {
			resource.TechnicalMetadata = map[string]string{}
		}
		resource.TechnicalMetadata["description"] = *req.Description
	}

	if err := s.resources.UpdateResource(ctx, resource); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "updating resource failed")
	}
	_ = s.resources.RecordAudit(info.TenantID, info.CallerID, "update", resourceID, time.Now())

	if s.reindex != nil && len(changedFields) > 0 {
		if err := s.reindex.Enqueue(ctx, reindex.ChangeEvent{
			TenantID:      info.TenantID,
			ResourceID:    resourceID,
			ChangedFields: changedFields,
		}); err != nil {
			s.logger.Warn(ctx, "enqueue reindex failed", zap.Error(err), zap.String("resource_id", resourceID))
		}
	}

	return c.JSON(http.StatusOK, toResourceDTO(resource))
}

// handleDeleteResource handles Resource CRUD "delete", cascading to
// chunks (via the store), blob, and suggestions.
func (s *Server) handleDeleteResource(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	ctx := c.Request().Context()
	resourceID := c.Param("id")

	resource, err := s.resources.GetResource(ctx, info.TenantID, resourceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "reading resource failed")
	}

	if err := s.resources.DeleteResource(ctx, info.TenantID, resourceID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting resource failed")
	}
	if resource.FileID != "" {
		if err := s.blobs.Delete(ctx, info.TenantID, resource.FileID); err != nil {
			s.logger.Warn(ctx, "blob delete failed", zap.Error(err), zap.String("resource_id", resourceID))
		}
	}
	if s.suggestRemover != nil {
		if err := s.suggestRemover.RemoveResource(ctx, info.TenantID, resource); err != nil {
			s.logger.Warn(ctx, "suggestion removal failed", zap.Error(err), zap.String("resource_id", resourceID))
		}
	}
	_ = s.resources.RecordAudit(info.TenantID, info.CallerID, "delete", resourceID, time.Now())

	return c.NoContent(http.StatusNoContent)
}

// handleDownloadFile handles the file download/view endpoint. Admins may
// download any tenant's resource; that cross-tenant access is always
// audit-logged.
func (s *Server) handleDownloadFile(c echo.Context) error {
	info, err := tenant.FromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	ctx := c.Request().Context()
	fileID := c.Param("file_id")
	ownerTenantID := c.QueryParam("tenant_id")
	if ownerTenantID == "" {
		ownerTenantID = info.TenantID
	}
	if !tenant.AccessAllowed(info, ownerTenantID) {
		return echo.NewHTTPError(http.StatusForbidden, "cross-tenant access requires admin")
	}

	resource, err := s.resources.GetResourceByFileID(ctx, ownerTenantID, fileID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	stream, _, err := s.blobs.Get(ctx, ownerTenantID, fileID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	defer stream.Close()

	if tenant.IsCrossTenant(info, ownerTenantID) {
		_ = s.resources.RecordAudit(info.TenantID, info.CallerID, "cross_tenant_download", resource.ResourceID, time.Now())
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+resource.FileName+`"`)
	return c.Stream(http.StatusOK, resource.MimeType, stream)
}
