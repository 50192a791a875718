package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"gorm.io/gorm"
)

func chunkToRow(c *docmodel.Chunk) ChunkRow {
	return ChunkRow{
		ChunkID:           c.ChunkID,
		ParentResourceID:  c.ParentResourceID,
		TenantID:          c.TenantID,
		ChunkIndex:        c.ChunkIndex,
		CharStart:         c.CharStart,
		CharEnd:           c.CharEnd,
		Text:              c.Text,
		TextNormalized:    c.TextNormalized,
		OCRText:           c.OCRText,
		OCRTextNormalized: c.OCRTextNormalized,
		ImageDescription:  c.ImageDescription,
		SearchableText:    c.SearchableText,
		PageNumber:        c.PageNumber,
		RowIndex:          c.RowIndex,
		ChunkEmbedding:    Float32Slice(c.ChunkEmbedding),
	}
}

func rowToChunk(row ChunkRow) *docmodel.Chunk {
	return &docmodel.Chunk{
		ChunkID:           row.ChunkID,
		ParentResourceID:  row.ParentResourceID,
		TenantID:          row.TenantID,
		ChunkIndex:        row.ChunkIndex,
		CharStart:         row.CharStart,
		CharEnd:           row.CharEnd,
		Text:              row.Text,
		TextNormalized:    row.TextNormalized,
		OCRText:           row.OCRText,
		OCRTextNormalized: row.OCRTextNormalized,
		ImageDescription:  row.ImageDescription,
		SearchableText:    row.SearchableText,
		PageNumber:        row.PageNumber,
		RowIndex:          row.RowIndex,
		ChunkEmbedding:    []float32(row.ChunkEmbedding),
	}
}

// PutChunksBulk inserts every chunk of a newly ingested (or reindexed)
// resource in one transaction.
func (s *Store) PutChunksBulk(ctx context.Context, chunks []*docmodel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]ChunkRow, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, chunkToRow(c))
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("store: put chunks bulk: %w", err)
	}
	return nil
}

// DeleteChunksForResource removes every chunk belonging to resourceID.
// Used by the Reindex Coordinator before re-chunking, and by
// DeleteResource's cascade.
func (s *Store) DeleteChunksForResource(ctx context.Context, tenantID, resourceID string) error {
	return s.db.WithContext(ctx).
		Where("parent_resource_id = ? AND tenant_id = ?", resourceID, tenantID).
		Delete(&ChunkRow{}).Error
}

// UpdateChunkSearchableText refreshes a single chunk's searchable_text
// after its parent resource's summary or tags changed.
func (s *Store) UpdateChunkSearchableText(ctx context.Context, tenantID, chunkID, searchableText string) error {
	result := s.db.WithContext(ctx).
		Model(&ChunkRow{}).
		Where("chunk_id = ? AND tenant_id = ?", chunkID, tenantID).
		Update("searchable_text", searchableText)
	if result.Error != nil {
		return fmt.Errorf("store: update chunk searchable_text: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: chunk %s", ErrNotFound, chunkID)
	}
	return nil
}

// KeywordField enumerates the chunk fields keyword_search may match
// against.
type KeywordField string

const (
	FieldSearchableText     KeywordField = "searchable_text"
	FieldTextNormalized     KeywordField = "text_normalized"
	FieldOCRTextNormalized  KeywordField = "ocr_text_normalized"
	FieldImageDescription   KeywordField = "image_description"
)

func (f KeywordField) column() (string, bool) {
	switch f {
	case FieldSearchableText, FieldTextNormalized, FieldOCRTextNormalized, FieldImageDescription:
		return string(f), true
	default:
		return "", false
	}
}

// KeywordHit is one substring match, with the occurrence count the
// Hybrid Searcher needs for its scoring.
type KeywordHit struct {
	Chunk       *docmodel.Chunk
	Occurrences int
}

// KeywordSearch runs a substring match of phraseNormalized against field,
// scoped to tenant, returning up to limit hits ordered by occurrence
// count descending.
func (s *Store) KeywordSearch(ctx context.Context, tenantID, phraseNormalized string, field KeywordField, limit int) ([]KeywordHit, error) {
	column, ok := field.column()
	if !ok {
		return nil, fmt.Errorf("store: unknown keyword field %q", field)
	}
	if phraseNormalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []ChunkRow
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND "+column+" ILIKE ?", tenantID, "%"+escapeLike(phraseNormalized)+"%").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: keyword search: %w", err)
	}

	hits := make([]KeywordHit, 0, len(rows))
	for _, row := range rows {
		text := rowFieldValue(row, field)
		count := strings.Count(text, phraseNormalized)
		if count == 0 {
			continue
		}
		hits = append(hits, KeywordHit{Chunk: rowToChunk(row), Occurrences: count})
	}

	sortKeywordHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func rowFieldValue(row ChunkRow, field KeywordField) string {
	switch field {
	case FieldSearchableText:
		return row.SearchableText
	case FieldTextNormalized:
		return row.TextNormalized
	case FieldOCRTextNormalized:
		return row.OCRTextNormalized
	case FieldImageDescription:
		return row.ImageDescription
	default:
		return ""
	}
}

func sortKeywordHits(hits []KeywordHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Occurrences > hits[j-1].Occurrences; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer("%", "\\%", "_", "\\_")
	return replacer.Replace(s)
}

// ResourcePredicate expresses an exact-match filter_search query over
// Resource fields.
type ResourcePredicate struct {
	Vendor         string
	AmountCents    *int64
	KeywordMember  string
}

// FilterSearch returns resources matching every set predicate field.
func (s *Store) FilterSearch(ctx context.Context, tenantID string, pred ResourcePredicate) ([]*docmodel.Resource, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if pred.Vendor != "" {
		query = query.Where("vendor = ?", pred.Vendor)
	}
	if pred.AmountCents != nil {
		query = query.Where("amounts_cents @> ?", fmt.Sprintf("[%d]", *pred.AmountCents))
	}
	if pred.KeywordMember != "" {
		query = query.Where("keywords @> ?", fmt.Sprintf("[%q]", pred.KeywordMember))
	}

	var rows []ResourceRow
	if err := query.Find(&rows).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("store: filter search: %w", err)
	}

	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}
