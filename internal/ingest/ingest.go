// Package ingest implements the Ingestion Coordinator: the
// pipeline turning an uploaded file or snippet into a persisted Resource,
// its Chunks, embeddings, and Suggestion Index entries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Bajtlamer/docsearch-core/internal/chunker"
	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"github.com/Bajtlamer/docsearch-core/internal/embeddings"
	"github.com/Bajtlamer/docsearch-core/internal/extraction"
	"github.com/Bajtlamer/docsearch-core/internal/logging"
	"github.com/Bajtlamer/docsearch-core/internal/normalize"
	"github.com/Bajtlamer/docsearch-core/internal/processors"
	"github.com/Bajtlamer/docsearch-core/internal/vectorstore"
)

// Errors surfaced by Ingest.
var (
	ErrUnsupportedFormat = processors.ErrUnsupportedFormat
	ErrTooLarge          = processors.ErrTooLarge
	ErrProcessorError    = errors.New("ingest: processor failed")
	ErrStoreError        = errors.New("ingest: store failed")
)

// Upload is either a file (bytes + filename + MIME) or a snippet (title +
// body).
type Upload struct {
	FileName string
	MimeType string
	Data     []byte

	// SnippetTitle/SnippetBody are set instead of FileName/Data for a
	// text-snippet upload.
	SnippetTitle string
	SnippetBody  string

	// Summary is the user-authored description, never overwritten by
	// machine extraction.
	Summary string
	Tags    []string
}

func (u Upload) isSnippet() bool {
	return len(u.Data) == 0 && u.SnippetBody != ""
}

// BlobStore persists file bytes, satisfied by *blobstore.Store.
type BlobStore interface {
	Put(ctx context.Context, tenantID string, data []byte, ext string) (fileID string, err error)
	Delete(ctx context.Context, tenantID, fileID string) error
}

// ResourceStore persists resources and chunks, satisfied by *store.Store.
type ResourceStore interface {
	PutResource(ctx context.Context, r *docmodel.Resource) error
	PutChunksBulk(ctx context.Context, chunks []*docmodel.Chunk) error
	RecordAudit(tenantID, callerID, action, targetID string, at time.Time) error
}

// SuggestIndex indexes a resource's terms, satisfied by *suggest.Index.
type SuggestIndex interface {
	IndexResource(ctx context.Context, tenantID string, resource *docmodel.Resource) error
}

// CategoryAdmin resolves the vendor category used for vendor detection,
// satisfied by *category.Admin.
type CategoryAdmin interface {
	GetCategory(ctx context.Context, tenantID string, categoryType docmodel.CategoryType) (*docmodel.Category, error)
}

// Coordinator orchestrates the ingestion pipeline.
type Coordinator struct {
	blobs      BlobStore
	processors *processors.Registry
	extractor  extraction.SemanticExtractor // optional; nil disables LLM extraction
	categories CategoryAdmin
	embedder   embeddings.Embedder // optional; nil disables embedding
	vectors    vectorstore.Store   // optional; nil disables vector storage
	resources  ResourceStore
	suggest    SuggestIndex
}

// Config wires every collaborator the Coordinator needs. Embedder, Vectors,
// and Extractor may be nil to run without those optional capabilities.
type Config struct {
	Blobs      BlobStore
	Processors *processors.Registry
	Extractor  extraction.SemanticExtractor
	Categories CategoryAdmin
	Embedder   embeddings.Embedder
	Vectors    vectorstore.Store
	Resources  ResourceStore
	Suggest    SuggestIndex
}

// New builds a Coordinator from cfg.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		blobs:      cfg.Blobs,
		processors: cfg.Processors,
		extractor:  cfg.Extractor,
		categories: cfg.Categories,
		embedder:   cfg.Embedder,
		vectors:    cfg.Vectors,
		resources:  cfg.Resources,
		suggest:    cfg.Suggest,
	}
}

var ingestTracer = otel.Tracer("docsearch.ingest")

// Ingest runs the full pipeline for upload under tenantID, returning the
// new resource_id. Steps 1-2 (blob persistence, processor dispatch) must
// both succeed before a Resource is created; every step after that
// degrades gracefully.
func (c *Coordinator) Ingest(ctx context.Context, tenantID, callerID string, upload Upload) (string, error) {
	ctx, span := ingestTracer.Start(ctx, "Coordinator.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("tenant_id", tenantID))
	logger := logging.FromContext(ctx)

	resourceID := uuid.NewString()

	var (
		fileID    string
		mimeType  = upload.MimeType
		fileType  docmodel.FileType
		fileName  = upload.FileName
		sizeBytes int64
	)

	if upload.isSnippet() {
		fileType = docmodel.FileTypeSnippet
		mimeType = "text/plain"
		if fileName == "" {
			fileName = upload.SnippetTitle
		}
	} else {
		fileType = fileTypeFromMime(mimeType)
		sizeBytes = int64(len(upload.Data))

		var err error
		fileID, err = c.blobs.Put(ctx, tenantID, upload.Data, extensionFromFileName(fileName))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("%w: %v", ErrStoreError, err)
		}
	}

	processed, err := c.dispatchProcessor(ctx, upload, mimeType)
	if err != nil {
		if fileID != "" {
			if delErr := c.blobs.Delete(ctx, tenantID, fileID); delErr != nil {
				logger.Warn(ctx, "ingest: rollback blob delete failed", zap.Error(delErr), zap.String("file_id", fileID))
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	now := time.Now()
	resource := &docmodel.Resource{
		ResourceID:        resourceID,
		TenantID:          tenantID,
		FileID:            fileID,
		FileName:          fileName,
		MimeType:          mimeType,
		FileType:          fileType,
		SizeBytes:         sizeBytes,
		CreatedAt:         now,
		UpdatedAt:         now,
		Summary:           upload.Summary,
		TechnicalMetadata: processed.TechnicalMetadata,
		Tags:              upload.Tags,
		Content:           processed.RawText,
	}

	// Step 3: metadata extraction. Failures here never abort ingestion.
	c.extractMetadata(ctx, resource, processed.RawText)

	// Step 4: create the Resource.
	if err := c.resources.PutResource(ctx, resource); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %v", ErrStoreError, err)
	}

	// Step 5: chunk.
	imageDescription := processed.TechnicalMetadata["image_description"]
	chunks := chunker.Chunk(resource, processed.Units, imageDescription)

	// Step 6: embeddings (best effort).
	c.embedChunks(ctx, resource, chunks)

	// Step 7: persist chunks.
	if len(chunks) > 0 {
		if err := c.resources.PutChunksBulk(ctx, chunks); err != nil {
			logger.Warn(ctx, "ingest: chunk persistence failed", zap.Error(err), zap.String("resource_id", resourceID))
		}
	}

	// Step 8: suggestion index (best effort).
	if c.suggest != nil {
		if err := c.suggest.IndexResource(ctx, tenantID, resource); err != nil {
			logger.Warn(ctx, "ingest: suggestion indexing failed", zap.Error(err), zap.String("resource_id", resourceID))
		}
	}

	// Step 9: audit.
	if err := c.resources.RecordAudit(tenantID, callerID, "ingest", resourceID, now); err != nil {
		logger.Warn(ctx, "ingest: audit log failed", zap.Error(err), zap.String("resource_id", resourceID))
	}

	return resourceID, nil
}

func (c *Coordinator) dispatchProcessor(ctx context.Context, upload Upload, mimeType string) (processors.Result, error) {
	if upload.isSnippet() {
		return (&processors.SnippetProcessor{}).Process(upload.SnippetTitle, upload.SnippetBody), nil
	}

	result, err := c.processors.Process(ctx, mimeType, upload.Data)
	if err != nil {
		switch {
		case errors.Is(err, processors.ErrUnsupportedFormat):
			return processors.Result{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		case errors.Is(err, processors.ErrTooLarge):
			return processors.Result{}, fmt.Errorf("%w: %v", ErrTooLarge, err)
		default:
			return processors.Result{}, fmt.Errorf("%w: %v", ErrProcessorError, err)
		}
	}
	return result, nil
}

// extractMetadata runs the metadata extractors and, when a vendor
// category is configured, vendor detection against it.
func (c *Coordinator) extractMetadata(ctx context.Context, resource *docmodel.Resource, text string) {
	logger := logging.FromContext(ctx)
	extracted := extraction.ExtractAll(text)

	resource.Keywords = extracted.IDs
	amounts := make([]int64, 0, len(extracted.Money))
	currency := ""
	for _, m := range extracted.Money {
		amounts = append(amounts, m.AmountCents)
		if currency == "" {
			currency = m.Currency
		}
	}
	resource.AmountsCents = amounts
	resource.Currency = currency
	resource.Keywords = append(resource.Keywords, extracted.Emails...)
	resource.Keywords = append(resource.Keywords, extracted.IBANs...)
	resource.Dates = parseDates(extracted.Dates)

	if c.extractor != nil && c.extractor.Available() {
		entities, keywords, err := c.extractor.ExtractEntitiesKeywords(ctx, text)
		if err != nil {
			logger.Warn(ctx, "ingest: semantic extraction unavailable", zap.Error(err))
		} else {
			resource.Entities = entities
			resource.Keywords = append(resource.Keywords, keywords...)
		}
	}

	if c.categories != nil {
		if vendorCategory, err := c.categories.GetCategory(ctx, resource.TenantID, docmodel.CategoryVendor); err == nil {
			if vendor, ok := detectVendor(text, resource.FileName, vendorCategory); ok {
				resource.Vendor = vendor
			}
		}
	}
}

// detectVendor reports the first vendor category entity present, as a
// whole word or hyphenated phrase, in either the document text or its
// filename. It uses the same boundary matching as query-time category
// detection so a resource tagged with a vendor here is findable through
// the vendor category later.
func detectVendor(text, fileName string, category *docmodel.Category) (string, bool) {
	if category == nil {
		return "", false
	}
	haystack := normalize.Text(text + " " + fileName)
	for _, entity := range category.Entities {
		if entity == "" {
			continue
		}
		if normalize.ContainsPhrase(haystack, normalize.Text(entity)) {
			return entity, true
		}
	}
	return "", false
}

func parseDates(raw []string) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// embedChunks invokes the embedding client for the document and each
// chunk; a failure leaves null vectors rather than aborting ingestion.
func (c *Coordinator) embedChunks(ctx context.Context, resource *docmodel.Resource, chunks []*docmodel.Chunk) {
	if c.embedder == nil {
		return
	}
	logger := logging.FromContext(ctx)

	if docText := documentEmbeddingText(resource); docText != "" {
		vec, err := c.embedder.EmbedQuery(ctx, docText)
		if err != nil {
			logger.Warn(ctx, "ingest: document embedding failed", zap.Error(err), zap.String("resource_id", resource.ResourceID))
		} else {
			resource.DocumentEmbedding = vec
			if c.vectors != nil {
				if err := c.vectors.Upsert(ctx, []vectorstore.Record{{
					TenantID:   resource.TenantID,
					ResourceID: resource.ResourceID,
					Kind:       vectorstore.KindResource,
					Vector:     vec,
					Text:       resource.Content,
				}}); err != nil {
					logger.Warn(ctx, "ingest: document vector upsert failed", zap.Error(err))
				}
			}
		}
	}

	if len(chunks) == 0 {
		return
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.SearchableText
	}
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		logger.Warn(ctx, "ingest: chunk embedding failed", zap.Error(err), zap.String("resource_id", resource.ResourceID))
		return
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	for i, ch := range chunks {
		if i >= len(vectors) || vectors[i] == nil {
			continue
		}
		ch.ChunkEmbedding = vectors[i]
		records = append(records, vectorstore.Record{
			TenantID:   resource.TenantID,
			ResourceID: resource.ResourceID,
			ChunkID:    ch.ChunkID,
			Kind:       vectorstore.KindChunk,
			Vector:     vectors[i],
			Text:       ch.SearchableText,
		})
	}
	if c.vectors != nil && len(records) > 0 {
		if err := c.vectors.Upsert(ctx, records); err != nil {
			logger.Warn(ctx, "ingest: chunk vector upsert failed", zap.Error(err), zap.String("resource_id", resource.ResourceID))
		}
	}
}

// documentEmbeddingText builds the resource-level embedding input: the
// user summary plus the top extracted keywords, falling back to the raw
// content for resources with neither.
func documentEmbeddingText(resource *docmodel.Resource) string {
	keywords := resource.Keywords
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	text := normalize.Join(resource.Summary, strings.Join(keywords, " "))
	if text == "" {
		text = resource.Content
	}
	return text
}

func fileTypeFromMime(mimeType string) docmodel.FileType {
	switch {
	case strings.HasPrefix(mimeType, "application/pdf"):
		return docmodel.FileTypePDF
	case strings.HasPrefix(mimeType, "image/"):
		return docmodel.FileTypeImage
	case strings.Contains(mimeType, "csv"):
		return docmodel.FileTypeCSV
	default:
		return docmodel.FileTypeText
	}
}

func extensionFromFileName(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx == -1 || idx == len(fileName)-1 {
		return ""
	}
	return fileName[idx+1:]
}
