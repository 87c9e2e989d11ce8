// Package catalog provides read access to concept definitions. Quarterly-filed
// and annual-filed concepts live in two independent catalogs with identical
// shape; callers hold one Catalog instance per filing cycle.
package catalog

import (
	"context"
	"fmt"

	"golang-imputation-service/internal/models"
)

// Query selects concepts within one catalog. Zero-valued fields are not
// filtered on. QualifiedName alone is not unique when dimensional breakdowns
// share a name; add Path or DimensionMember to narrow.
type Query struct {
	CompanyID       string
	StatementType   models.StatementType
	QualifiedName   string
	Path            string
	DimensionMember string
}

// Catalog is the lookup interface over one concept catalog
type Catalog interface {
	// Find returns all concepts matching the query, ordered by path then
	// dimension member
	Find(ctx context.Context, q Query) ([]*models.Concept, error)

	// FindOne returns the single concept matching the query, nil when none
	// match, and an error when the query is ambiguous
	FindOne(ctx context.Context, q Query) (*models.Concept, error)

	// Get returns the concept with the given ID, or nil when absent
	Get(ctx context.Context, id string) (*models.Concept, error)

	// ListNonAbstract returns every value-carrying concept for a company and
	// statement type, for batch iteration
	ListNonAbstract(ctx context.Context, companyID string, st models.StatementType) ([]*models.Concept, error)

	// Create inserts a new concept. Only derived concepts are created this
	// way; filed concepts arrive through the ingestion pipeline.
	Create(ctx context.Context, c *models.Concept) error

	// Companies returns the distinct company IDs present in the catalog
	Companies(ctx context.Context) ([]string, error)
}

// RootParentName walks parent references to the topmost ancestor of c and
// returns its qualified name. A concept without a parent is its own root.
func RootParentName(ctx context.Context, cat Catalog, c *models.Concept) (string, error) {
	current := c
	seen := map[string]bool{}
	for current.ParentID != "" {
		if seen[current.ID] {
			return "", fmt.Errorf("parent cycle detected at concept %s", current.ID)
		}
		seen[current.ID] = true

		parent, err := cat.Get(ctx, current.ParentID)
		if err != nil {
			return "", err
		}
		if parent == nil {
			// Dangling reference; treat the last resolvable ancestor as root
			break
		}
		current = parent
	}
	return current.QualifiedName, nil
}
