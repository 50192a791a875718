// Package httpapi implements the external interfaces: search, autocomplete,
// ingestion, resource CRUD, file download, and category administration,
// all tenant-scoped over an echo HTTP server.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/ingest"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/query"
	"github.com/Bajtlamer/docsearch-core/internal/reindex"
	"github.com/Bajtlamer/docsearch-core/internal/search"
	"github.com/Bajtlamer/docsearch-core/internal/store"
	"github.com/Bajtlamer/docsearch-core/internal/suggest"
	"github.com/Bajtlamer/docsearch-core/internal/tenant"
)

// Ingester runs the Ingestion Coordinator, satisfied by *ingest.Coordinator.
type Ingester interface {
	Ingest(ctx context.Context, tenantID, callerID string, upload ingest.Upload) (string, error)
}

// ResourceStore is the subset of *store.Store CRUD handlers need.
type ResourceStore interface {
	GetResource(ctx context.Context, tenantID, resourceID string) (*docmodel.Resource, error)
	GetResourceByFileID(ctx context.Context, tenantID, fileID string) (*docmodel.Resource, error)
	UpdateResource(ctx context.Context, r *docmodel.Resource) error
	DeleteResource(ctx context.Context, tenantID, resourceID string) error
	ListResources(ctx context.Context, tenantID string, filters store.ResourceFilters, page store.Pagination) ([]*docmodel.Resource, error)
	RecordAudit(tenantID, callerID, action, targetID string, at time.Time) error
}

// BlobStore serves file bytes for download, satisfied by *blobstore.Store.
type BlobStore interface {
	Get(ctx context.Context, tenantID, fileID string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, tenantID, fileID string) error
}

// CategoryAdmin is the subset of *category.Admin the admin endpoints need.
type CategoryAdmin interface {
	ListCategories(ctx context.Context, tenantID string) ([]*docmodel.Category, error)
	GetCategory(ctx context.Context, tenantID string, categoryType docmodel.CategoryType) (*docmodel.Category, error)
	UpsertCategory(ctx context.Context, c *docmodel.Category) error
	AddEntity(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, entity string) error
	RemoveEntity(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, entity string) error
	SetIgnoredWords(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, words []string) error
	SetTriggerKeywords(ctx context.Context, tenantID string, categoryType docmodel.CategoryType, keywords []string) error
}

// QueryAnalyzer resolves free text into an Intent, satisfied by *query.Analyzer.
type QueryAnalyzer interface {
	Analyze(ctx context.Context, tenantID, raw string) (*query.Intent, error)
}

// Searcher runs the Hybrid Searcher, satisfied by *search.Searcher.
type Searcher interface {
	Search(ctx context.Context, tenantID string, intent *query.Intent, limit int) ([]search.Result, error)
}

// SuggestIndex serves autocomplete, satisfied by *suggest.Index.
type SuggestIndex interface {
	QueryPrefix(ctx context.Context, tenantID, prefixNormalized string, maxResults int) []suggest.Suggestion
}

// SuggestRemover removes a deleted resource's suggestion contribution,
// also satisfied by *suggest.Index. Split from SuggestIndex because the
// autocomplete path never mutates the index.
type SuggestRemover interface {
	RemoveResource(ctx context.Context, tenantID string, resource *docmodel.Resource) error
}

// ReindexDispatcher enqueues reindex events, satisfied by *reindex.Dispatcher.
type ReindexDispatcher interface {
	Enqueue(ctx context.Context, event reindex.ChangeEvent) error
}

// HealthChecker reports whether a collaborator is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server wires every external interface over HTTP.
type Server struct {
	echo *echo.Echo

	logger         *logging.Logger
	config         Config
	ingest         Ingester
	resources      ResourceStore
	blobs          BlobStore
	categories     CategoryAdmin
	analyzer       QueryAnalyzer
	searcher       Searcher
	suggest        SuggestIndex
	suggestRemover SuggestRemover
	reindex        ReindexDispatcher

	health  map[string]HealthChecker
	metrics *Metrics
}

// Config holds httpapi-level tunables.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Dependencies bundles every collaborator the Server needs. Reindex may be
// nil (reindex events are then skipped without being logged).
type Dependencies struct {
	Ingest         Ingester
	Resources      ResourceStore
	Blobs          BlobStore
	Categories     CategoryAdmin
	Analyzer       QueryAnalyzer
	Searcher       Searcher
	Suggest        SuggestIndex
	SuggestRemover SuggestRemover
	Reindex        ReindexDispatcher
	Health         map[string]HealthChecker
}

// NewServer builds the echo server and registers every route.
func NewServer(cfg Config, deps Dependencies, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("httpapi: logger is required")
	}
	if deps.Resources == nil || deps.Blobs == nil || deps.Categories == nil {
		return nil, fmt.Errorf("httpapi: resources, blobs, and categories collaborators are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewMetrics()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})
	s := &Server{
		echo:           e,
		logger:         logger,
		config:         cfg,
		ingest:         deps.Ingest,
		resources:      deps.Resources,
		blobs:          deps.Blobs,
		categories:     deps.Categories,
		analyzer:       deps.Analyzer,
		searcher:       deps.Searcher,
		suggest:        deps.Suggest,
		suggestRemover: deps.SuggestRemover,
		reindex:        deps.Reindex,
		health:         deps.Health,
		metrics:        metrics,
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.Use(tenantMiddleware)
	v1.GET("/search", s.handleSearch)
	v1.GET("/autocomplete", s.handleAutocomplete)

	v1.POST("/resources/file", s.handleIngestFile)
	v1.POST("/resources/snippet", s.handleIngestSnippet)
	v1.GET("/resources", s.handleListResources)
	v1.GET("/resources/:id", s.handleGetResource)
	v1.PATCH("/resources/:id", s.handleUpdateResource)
	v1.DELETE("/resources/:id", s.handleDeleteResource)
	v1.GET("/resources/download/:file_id", s.handleDownloadFile)

	v1.GET("/categories", s.handleListCategories)
	v1.GET("/categories/:type", s.handleGetCategory)
	v1.PUT("/categories/:type", s.handleUpsertCategory)
	v1.POST("/categories/:type/entities", s.handleAddEntity)
	v1.DELETE("/categories/:type/entities/:entity", s.handleRemoveEntity)
	v1.PUT("/categories/:type/ignored-words", s.handleSetIgnoredWords)
	v1.PUT("/categories/:type/trigger-keywords", s.handleSetTriggerKeywords)
}

// tenantHeader/callerHeader/adminHeader stand in for the verified-identity front
// door this server doesn't provide: a reverse proxy or auth gateway is
// expected to set these after authenticating the caller.
const (
	tenantHeader = "X-Tenant-ID"
	callerHeader = "X-Caller-ID"
	adminHeader  = "X-Admin"
)

func tenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := c.Request().Header.Get(tenantHeader)
		if tenantID == "" {
			return echo.NewHTTPError(401, "missing "+tenantHeader)
		}
		info := &tenant.Info{
			TenantID: tenantID,
			CallerID: c.Request().Header.Get(callerHeader),
			IsAdmin:  c.Request().Header.Get(adminHeader) == "true",
		}
		ctx := tenant.ContextWithTenant(c.Request().Context(), info)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
