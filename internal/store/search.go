package store

import (
	"context"
	"fmt"

	"github.com/Bajtlamer/docsearch-core/internal/docmodel"
)

// ResourcesByKeywordAny returns resources whose keywords set contains any
// of keywords, for the hybrid searcher's exact-ID/email/IBAN strategy:
// identifiers extracted from a query are stashed in a resource's keywords
// set at ingestion time, so this is a membership OR across the extracted
// candidates.
func (s *Store) ResourcesByKeywordAny(ctx context.Context, tenantID string, keywords []string) ([]*docmodel.Resource, error) {
	return s.resourcesByArrayMembershipAny(ctx, tenantID, "keywords", keywords)
}

// ResourcesByEntityAny returns resources whose entities set intersects
// entities, for the Hybrid Searcher's people-category strategy.
func (s *Store) ResourcesByEntityAny(ctx context.Context, tenantID string, entities []string) ([]*docmodel.Resource, error) {
	return s.resourcesByArrayMembershipAny(ctx, tenantID, "entities", entities)
}

func (s *Store) resourcesByArrayMembershipAny(ctx context.Context, tenantID, column string, values []string) ([]*docmodel.Resource, error) {
	if len(values) == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	clause := column + " @> ?"
	or := s.db.WithContext(ctx)
	for i, v := range values {
		cond := fmt.Sprintf("[%q]", v)
		if i == 0 {
			or = or.Where(clause, cond)
		} else {
			or = or.Or(clause, cond)
		}
	}
	query = query.Where(or)

	var rows []ResourceRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: resources by %s membership: %w", column, err)
	}
	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}

// ResourcesByVendor returns resources whose vendor field matches any of
// vendors (case handled by the caller — vendor is stored normalized).
func (s *Store) ResourcesByVendor(ctx context.Context, tenantID string, vendors []string) ([]*docmodel.Resource, error) {
	if len(vendors) == 0 {
		return nil, nil
	}
	var rows []ResourceRow
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND vendor IN ?", tenantID, vendors).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: resources by vendor: %w", err)
	}
	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}

// ResourcesWithAnyAmount returns resources with a non-empty amounts_cents
// set, for the price category's trigger-only (no specific amount in the
// query) match.
func (s *Store) ResourcesWithAnyAmount(ctx context.Context, tenantID string) ([]*docmodel.Resource, error) {
	var rows []ResourceRow
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND jsonb_array_length(amounts_cents) > 0", tenantID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: resources with any amount: %w", err)
	}
	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}

// ResourcesByMoney returns resources whose amounts_cents set contains
// cents. Currency must match only when both sides carry one: a resource
// with no detected currency still matches a currency-qualified query.
func (s *Store) ResourcesByMoney(ctx context.Context, tenantID, currency string, cents int64) ([]*docmodel.Resource, error) {
	query := s.db.WithContext(ctx).
		Where("tenant_id = ? AND amounts_cents @> ?", tenantID, fmt.Sprintf("[%d]", cents))
	if currency != "" {
		query = query.Where("currency = ? OR currency = ''", currency)
	}
	var rows []ResourceRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: resources by money: %w", err)
	}
	resources := make([]*docmodel.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, rowToResource(row))
	}
	return resources, nil
}
