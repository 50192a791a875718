package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
	"gorm.io/gorm"
)

func resourceToRow(r *docmodel.Resource) ResourceRow {
	return ResourceRow{
		ResourceID:        r.ResourceID,
		TenantID:          r.TenantID,
		FileID:            r.FileID,
		FileName:          r.FileName,
		MimeType:          r.MimeType,
		FileType:          string(r.FileType),
		SizeBytes:         r.SizeBytes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Summary:           r.Summary,
		TechnicalMetadata: StringMap(r.TechnicalMetadata),
		Tags:              StringSlice(r.Tags),
		Vendor:            r.Vendor,
		Entities:          StringSlice(r.Entities),
		Keywords:          StringSlice(r.Keywords),
		AmountsCents:      Int64Slice(r.AmountsCents),
		Currency:          r.Currency,
		Dates:             TimeSlice(r.Dates),
		Content:           r.Content,
		DocumentEmbedding: Float32Slice(r.DocumentEmbedding),
	}
}

func rowToResource(row ResourceRow) *docmodel.Resource {
	return &docmodel.Resource{
		ResourceID:        row.ResourceID,
		TenantID:          row.TenantID,
		FileID:            row.FileID,
		FileName:          row.FileName,
		MimeType:          row.MimeType,
		FileType:          docmodel.FileType(row.FileType),
		SizeBytes:         row.SizeBytes,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		Summary:           row.Summary,
		TechnicalMetadata: map[string]string(row.TechnicalMetadata),
		Tags:              []string(row.Tags),
		Vendor:            row.Vendor,
		Entities:          []string(row.Entities),
		Keywords:          []string(row.Keywords),
		AmountsCents:      []int64(row.AmountsCents),
		Currency:          row.Currency,
		Dates:             []time.Time(row.Dates),
		Content:           row.Content,
		DocumentEmbedding: []float32(row.DocumentEmbedding),
	}
}

// PutResource inserts a new Resource. A duplicate resource_id is a
// Conflict.
func (s *Store) PutResource(ctx context.Context, r *docmodel.Resource) error {
	row := resourceToRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: resource %s", ErrConflict, r.ResourceID)
		}
		return fmt.Errorf("store: put resource: %w", err)
	}
	return nil
}

// GetResource fetches a Resource scoped to tenantID. Cross-tenant lookups
// (a resourceID owned by another tenant) return ErrNotFound, never the
// other tenant's data.
func (s *Store) GetResource(ctx context.Context, tenantID, resourceID string) (*docmodel.Resource, error) {
	var row ResourceRow
	err := s.db.WithContext(ctx).
		Where("resource_id = ? AND tenant_id = ?", resourceID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
		}
		return nil, fmt.Errorf("store: get resource: %w", err)
	}
	return rowToResource(row), nil
}

// GetResourceByFileID looks up the resource owning a blob, for the
// download endpoint's original-filename/mime-type metadata.
func (s *Store) GetResourceByFileID(ctx context.Context, tenantID, fileID string) (*docmodel.Resource, error) {
	var row ResourceRow
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND tenant_id = ?", fileID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("store: get resource by file id: %w", err)
	}
	return rowToResource(row), nil
}

// UpdateResource overwrites the mutable fields of a Resource. To preserve
// fields the caller didn't intend to touch, callers pass the full,
// already-merged Resource; UpdateResource does not special-case any
// field.
func (s *Store) UpdateResource(ctx context.Context, r *docmodel.Resource) error {
	row := resourceToRow(r)
	result := s.db.WithContext(ctx).
		Where("resource_id = ? AND tenant_id = ?", r.ResourceID, r.TenantID).
		Model(&ResourceRow{}).
		Select("*").
		Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("store: update resource: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %s", ErrNotFound, r.ResourceID)
	}
	return nil
}

// DeleteResource removes a Resource and cascades to its Chunks.
func (s *Store) DeleteResource(ctx context.Context, tenantID, resourceID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_resource_id = ? AND tenant_id = ?", resourceID, tenantID).
			Delete(&ChunkRow{}).Error; err != nil {
			return fmt.Errorf("store: cascade delete chunks: %w", err)
		}
		result := tx.Where("resource_id = ? AND tenant_id = ?", resourceID, tenantID).Delete(&ResourceRow{})
		if result.Error != nil {
			return fmt.Errorf("store: delete resource: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
		}
		return nil
	})
}

// ResourceFilters narrows ListResources. Zero-value fields are ignored.
type ResourceFilters struct {
	FileType string
	Vendor   string
}

// Pagination bounds ListResources.
type Pagination struct {
	Offset int
	Limit  int
}

// ListResources returns a tenant's resources ordered newest-first.
func (s *Store) ListResources(ctx context.Context, tenantID string, filters ResourceFilters, page Pagination) ([]*docmodel.Resource, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filters.FileType != "" {
		query = query.Where("file_type = ?", filters.FileType)
	}
	if filters.Vendor != "" {
		query = query.Where("vendor = ?", filters.Vendor)
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []ResourceRow
	if err := query.Order("created_at DESC").Offset(page.Offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list resources: %w", err)
	}

	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}
