package derived

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "golang-imputation-service/pkg/errors"
)

// Mapper resolves a standardized label ("Total Revenues") to the ordered
// canonical concept names that may carry it in a company's filings
// ("us-gaap:Revenues", "us-gaap:RevenueFromContractWithCustomer...").
// Filers pick different taxonomy tags for the same line item; the
// synthesizer tries the names in order until one exists in the company's
// catalog.
type Mapper interface {
	CanonicalNames(ctx context.Context, standardLabel string) ([]string, error)
}

// MemoryMapper is an in-memory Mapper used by tests and bootstraps
type MemoryMapper struct {
	mu       sync.RWMutex
	mappings map[string][]string
}

// NewMemoryMapper creates a mapper from a label to canonical-names table
func NewMemoryMapper(mappings map[string][]string) *MemoryMapper {
	copied := make(map[string][]string, len(mappings))
	for label, names := range mappings {
		copied[label] = append([]string(nil), names...)
	}
	return &MemoryMapper{mappings: copied}
}

// CanonicalNames returns the canonical concept names for the label
func (m *MemoryMapper) CanonicalNames(ctx context.Context, standardLabel string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.mappings[standardLabel]...), nil
}

// DefaultMappings covers the labels used by the shipped gross profit
// definition. Ordered by how commonly each tag appears in filings.
func DefaultMappings() map[string][]string {
	return map[string][]string{
		"Total Revenues": {
			"us-gaap:Revenues",
			"us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax",
			"us-gaap:SalesRevenueNet",
		},
		"Cost of Revenues": {
			"us-gaap:CostOfRevenue",
			"us-gaap:CostOfGoodsAndServicesSold",
			"us-gaap:CostOfGoodsSold",
		},
	}
}

// fallbackMapper consults the primary mapper first and falls back to a
// static table for labels the primary does not know
type fallbackMapper struct {
	primary  Mapper
	fallback *MemoryMapper
}

// NewFallbackMapper wraps primary so that labels it returns no names for
// are resolved against the static mappings instead
func NewFallbackMapper(primary Mapper, mappings map[string][]string) Mapper {
	return &fallbackMapper{primary: primary, fallback: NewMemoryMapper(mappings)}
}

// CanonicalNames returns the primary mapper's names, or the fallback's
// when the primary has none
func (m *fallbackMapper) CanonicalNames(ctx context.Context, standardLabel string) ([]string, error) {
	names, err := m.primary.CanonicalNames(ctx, standardLabel)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return names, nil
	}
	return m.fallback.CanonicalNames(ctx, standardLabel)
}

// PostgresMapper reads mappings from the concept_standard_mappings table
type PostgresMapper struct {
	pool *pgxpool.Pool
}

// NewPostgresMapper creates a mapper over the given pool
func NewPostgresMapper(pool *pgxpool.Pool) *PostgresMapper {
	return &PostgresMapper{pool: pool}
}

// CanonicalNames returns the canonical concept names for the label,
// ordered by mapping priority
func (m *PostgresMapper) CanonicalNames(ctx context.Context, standardLabel string) ([]string, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT canonical_name FROM concept_standard_mappings
		 WHERE standard_label = $1 ORDER BY priority, canonical_name`, standardLabel)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "mapping lookup", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "mapping scan", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
