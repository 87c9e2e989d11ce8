package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-imputation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "golang-imputation-service/pkg/errors"
)

// Concept table names, one per filing cycle
const (
	TableQuarterlyConcepts = "quarterly_concepts"
	TableAnnualConcepts    = "annual_concepts"
)

const conceptColumns = `id, company_id, statement_type, qualified_name, label, path,
	is_abstract, is_dimensional, dimension_member, parent_id, is_calculated, created_at`

// PostgresCatalog is a Catalog backed by one concept table
type PostgresCatalog struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresCatalog creates a catalog over the given concept table
func NewPostgresCatalog(pool *pgxpool.Pool, table string) (*PostgresCatalog, error) {
	switch table {
	case TableQuarterlyConcepts, TableAnnualConcepts:
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "concept_table", table, nil)
	}
	return &PostgresCatalog{pool: pool, table: table}, nil
}

// Find returns all concepts matching the query
func (p *PostgresCatalog) Find(ctx context.Context, q Query) ([]*models.Concept, error) {
	where, args := buildConceptWhere(q)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY path, dimension_member`,
		conceptColumns, p.table, where)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "concept find", err)
	}
	defer rows.Close()

	var concepts []*models.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "concept scan", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

// FindOne returns the single concept matching the query
func (p *PostgresCatalog) FindOne(ctx context.Context, q Query) (*models.Concept, error) {
	matches, err := p.Find(ctx, q)
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
func (p *PostgresCatalog) Get(ctx context.Context, id string) (*models.Concept, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, conceptColumns, p.table)

	rows, err := p.pool.Query(ctx, query, id)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "concept get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanConcept(rows)
}

// ListNonAbstract returns every value-carrying concept for a company and
// statement type
func (p *PostgresCatalog) ListNonAbstract(ctx context.Context, companyID string, st models.StatementType) ([]*models.Concept, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE company_id = $1 AND statement_type = $2 AND NOT is_abstract
		ORDER BY path, dimension_member`, conceptColumns, p.table)

	rows, err := p.pool.Query(ctx, query, companyID, string(st))
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "concept list", err)
	}
	defer rows.Close()

	var concepts []*models.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "concept scan", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

// Create inserts a new concept, assigning an ID when absent
func (p *PostgresCatalog) Create(ctx context.Context, c *models.Concept) error {
	if err := c.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeMissingField, "concept", c.QualifiedName, err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, p.table, conceptColumns)

	_, err := p.pool.Exec(ctx, query,
		c.ID, c.CompanyID, string(c.StatementType), c.QualifiedName, c.Label, c.Path,
		c.IsAbstract, c.IsDimensional, nullable(c.DimensionMember), nullable(c.ParentID),
		c.IsCalculated, c.CreatedAt)
	if err != nil {
		return apperrors.StorageError(apperrors.CodeInsertFailed, "concept create", err).
			WithContext("qualified_name", c.QualifiedName)
	}
	return nil
}

// Companies returns the distinct company IDs present in the catalog
func (p *PostgresCatalog) Companies(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT company_id FROM %s ORDER BY company_id`, p.table)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "company list", err)
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "company scan", err)
		}
		companies = append(companies, id)
	}
	return companies, rows.Err()
}

func buildConceptWhere(q Query) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if q.CompanyID != "" {
		add("company_id", q.CompanyID)
	}
	if q.StatementType != "" {
		add("statement_type", string(q.StatementType))
	}
	if q.QualifiedName != "" {
		add("qualified_name", q.QualifiedName)
	}
	if q.Path != "" {
		add("path", q.Path)
	}
	if q.DimensionMember != "" {
		add("dimension_member", q.DimensionMember)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanConcept(rows pgx.Rows) (*models.Concept, error) {
	var c models.Concept
	var member, parent *string
	if err := rows.Scan(&c.ID, &c.CompanyID, &c.StatementType, &c.QualifiedName, &c.Label,
		&c.Path, &c.IsAbstract, &c.IsDimensional, &member, &parent,
		&c.IsCalculated, &c.CreatedAt); err != nil {
		return nil, err
	}
	if member != nil {
		c.DimensionMember = *member
	}
	if parent != nil {
		c.ParentID = *parent
	}
	return &c, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
