package store

import (
	"context"
	"fmt"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

func categoryToRow(c *docmodel.Category) CategoryRow {
	return CategoryRow{
		TenantID:            c.TenantID,
		CategoryType:        string(c.CategoryType),
		Entities:            StringSlice(c.Entities),
		IgnoredWords:        StringSlice(c.IgnoredWords),
		TriggerKeywords:     StringSlice(c.TriggerKeywords),
		MaxNonCategoryWords: c.MaxNonCategoryWords,
		MatchScore:          c.MatchScore,
		Enabled:             c.Enabled,
	}
}

func rowToCategory(row CategoryRow) *docmodel.Category {
	return &docmodel.Category{
		TenantID:            row.TenantID,
		CategoryType:        docmodel.CategoryType(row.CategoryType),
		Entities:            []string(row.Entities),
		IgnoredWords:        []string(row.IgnoredWords),
		TriggerKeywords:     []string(row.TriggerKeywords),
		MaxNonCategoryWords: row.MaxNonCategoryWords,
		MatchScore:          row.MatchScore,
		Enabled:             row.Enabled,
	}
}

// GetCategories returns every category configured for tenantID. An empty
// result signals the caller (Category Admin) should lazily seed defaults.
func (s *Store) GetCategories(ctx context.Context, tenantID string) ([]*docmodel.Category, error) {
	var rows []CategoryRow
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: get categories: %w", err)
	}
	categories := make([]*docmodel.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, rowToCategory(row))
	}
	return categories, nil
}

// UpsertCategory creates or replaces a tenant's category configuration.
func (s *Store) UpsertCategory(ctx context.Context, c *docmodel.Category) error {
	row := categoryToRow(c)
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND category_type = ?", c.TenantID, string(c.CategoryType)).
		Assign(row).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("store: upsert category: %w", err)
	}
	return nil
}
