package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang-imputation-service/internal/models"

	"github.com/google/uuid"

	apperrors "golang-imputation-service/pkg/errors"
)

// MemoryCatalog is an in-memory Catalog implementation. It backs tests and
// local dry runs; production deployments use the Postgres catalog.
type MemoryCatalog struct {
	mu       sync.RWMutex
	byID     map[string]*models.Concept
	concepts []*models.Concept
}

// NewMemoryCatalog creates an empty in-memory catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		byID: make(map[string]*models.Concept),
	}
}

// Find returns all concepts matching the query
func (m *MemoryCatalog) Find(_ context.Context, q Query) ([]*models.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*models.Concept
	for _, c := range m.concepts {
		if matchesQuery(c, q) {
			matches = append(matches, c)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].DimensionMember < matches[j].DimensionMember
	})

	return matches, nil
}

// FindOne returns the single concept matching the query
func (m *MemoryCatalog) FindOne(ctx context.Context, q Query) (*models.Concept, error) {
	matches, err := m.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, apperrors.New(apperrors.CategoryCatalog, apperrors.CodeAmbiguousMatch,
			fmt.Sprintf("query matched %d concepts for %s", len(matches), q.QualifiedName))
	}
}

// Get returns the concept with the given ID
func (m *MemoryCatalog) Get(_ context.Context, id string) (*models.Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id], nil
}

// ListNonAbstract returns every value-carrying concept for a company and
// statement type
func (m *MemoryCatalog) ListNonAbstract(ctx context.Context, companyID string, st models.StatementType) ([]*models.Concept, error) {
	all, err := m.Find(ctx, Query{CompanyID: companyID, StatementType: st})
	if err != nil {
		return nil, err
	}

	var concrete []*models.Concept
	for _, c := range all {
		if !c.IsAbstract {
			concrete = append(concrete, c)
		}
	}
	return concrete, nil
}

// Create inserts a new concept, assigning an ID when absent. The tuple
// (company, statementType, path, dimensionMember) must be unique.
func (m *MemoryCatalog) Create(_ context.Context, c *models.Concept) error {
	if err := c.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeMissingField, "concept", c.QualifiedName, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.concepts {
		if existing.CompanyID == c.CompanyID &&
			existing.StatementType == c.StatementType &&
			existing.Path == c.Path &&
			existing.DimensionMember == c.DimensionMember {
			return apperrors.StorageError(apperrors.CodeInsertFailed, "concept create", nil).
				WithContext("qualified_name", c.QualifiedName).
				WithContext("path", c.Path)
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	m.byID[c.ID] = c
	m.concepts = append(m.concepts, c)
	return nil
}

// Companies returns the distinct company IDs present in the catalog
func (m *MemoryCatalog) Companies(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var companies []string
	for _, c := range m.concepts {
		if !seen[c.CompanyID] {
			seen[c.CompanyID] = true
			companies = append(companies, c.CompanyID)
		}
	}
	sort.Strings(companies)
	return companies, nil
}

func matchesQuery(c *models.Concept, q Query) bool {
	if q.CompanyID != "" && c.CompanyID != q.CompanyID {
		return false
	}
	if q.StatementType != "" && c.StatementType != q.StatementType {
		return false
	}
	if q.QualifiedName != "" && c.QualifiedName != q.QualifiedName {
		return false
	}
	if q.Path != "" && c.Path != q.Path {
		return false
	}
	if q.DimensionMember != "" && c.DimensionMember != q.DimensionMember {
		return false
	}
	return true
}
