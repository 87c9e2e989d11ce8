package facts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/models"
	apperrors "golang-imputation-service/pkg/errors"
)

// Fact table names, one per period space
const (
	tableQuarterlyFacts = "quarterly_facts"
	tableAnnualFacts    = "annual_facts"
)

const factColumns = `id, concept_id, company_id, statement_type, fiscal_year, quarter,
	value, is_calculated, is_corrected, start_date, end_date, form_type,
	accession_number, data_source, note, created_at`

// PostgresStore is a Store backed by the quarterly_facts and annual_facts
// tables. Annual facts (quarter 0) live in their own table so the two
// period spaces cannot collide.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a fact store over the given pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func factTable(quarter int) string {
	if quarter == models.AnnualPeriod {
		return tableAnnualFacts
	}
	return tableQuarterlyFacts
}

// GetQuarterlyValues returns the values for quarters 1-3, keyed by quarter
func (p *PostgresStore) GetQuarterlyValues(ctx context.Context, conceptID, companyID string, fiscalYear int) (map[int]decimal.Decimal, error) {
	query := fmt.Sprintf(`SELECT quarter, value FROM %s
		WHERE concept_id = $1 AND company_id = $2 AND fiscal_year = $3
		  AND quarter BETWEEN $4 AND $5`, tableQuarterlyFacts)

	rows, err := p.pool.Query(ctx, query, conceptID, companyID, fiscalYear,
		models.QuarterFirst, models.QuarterLast-1)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "quarterly values", err)
	}
	defer rows.Close()

	values := make(map[int]decimal.Decimal)
	for rows.Next() {
		var quarter int
		var value decimal.Decimal
		if err := rows.Scan(&quarter, &value); err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "quarterly value scan", err)
		}
		values[quarter] = value
	}
	return values, rows.Err()
}

// GetAnnualValue returns the annual value, or nil when absent
func (p *PostgresStore) GetAnnualValue(ctx context.Context, conceptID, companyID string, fiscalYear int) (*decimal.Decimal, error) {
	fact, err := p.GetAnnualFact(ctx, conceptID, companyID, fiscalYear)
	if err != nil || fact == nil {
		return nil, err
	}
	v := fact.Value
	return &v, nil
}

// GetAnnualFact returns the full annual fact, or nil when absent
func (p *PostgresStore) GetAnnualFact(ctx context.Context, conceptID, companyID string, fiscalYear int) (*models.Fact, error) {
	return p.GetFact(ctx, conceptID, companyID, fiscalYear, models.AnnualPeriod)
}

// GetFact returns the fact for the given period, or nil when absent
func (p *PostgresStore) GetFact(ctx context.Context, conceptID, companyID string, fiscalYear, quarter int) (*models.Fact, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE concept_id = $1 AND company_id = $2 AND fiscal_year = $3 AND quarter = $4`,
		factColumns, factTable(quarter))

	rows, err := p.pool.Query(ctx, query, conceptID, companyID, fiscalYear, quarter)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "fact get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanFact(rows)
}

// ExistsQ4 reports whether a fourth-quarter fact already exists
func (p *PostgresStore) ExistsQ4(ctx context.Context, conceptID, companyID string, fiscalYear int) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s
		WHERE concept_id = $1 AND company_id = $2 AND fiscal_year = $3 AND quarter = $4)`,
		tableQuarterlyFacts)

	var exists bool
	err := p.pool.QueryRow(ctx, query, conceptID, companyID, fiscalYear, models.QuarterLast).Scan(&exists)
	if err != nil {
		return false, apperrors.StorageError(apperrors.CodeQueryFailed, "q4 exists", err)
	}
	return exists, nil
}

// Insert stores a new fact, assigning an ID when absent
func (p *PostgresStore) Insert(ctx context.Context, fact *models.Fact) error {
	if err := fact.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeMissingField, "fact", fact.ConceptID, err)
	}

	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		factTable(fact.Quarter), factColumns)

	_, err := p.pool.Exec(ctx, query, factArgs(fact)...)
	if err != nil {
		return apperrors.StorageError(apperrors.CodeInsertFailed, "fact insert", err).
			WithContext("concept_id", fact.ConceptID).
			WithContext("quarter", fact.Quarter)
	}
	return nil
}

// Replace overwrites the stored fact with the same ID
func (p *PostgresStore) Replace(ctx context.Context, fact *models.Fact) error {
	query := fmt.Sprintf(`UPDATE %s SET
		value = $2, is_calculated = $3, is_corrected = $4, start_date = $5,
		end_date = $6, form_type = $7, accession_number = $8, data_source = $9, note = $10
		WHERE id = $1`, factTable(fact.Quarter))

	tag, err := p.pool.Exec(ctx, query, fact.ID, fact.Value, fact.IsCalculated,
		fact.IsCorrected, nullTime(fact.Source.StartDate), nullTime(fact.Source.EndDate),
		nullString(fact.Source.FormType), nullString(fact.Source.AccessionNumber),
		nullString(fact.Source.DataSource), nullString(fact.Source.Note))
	if err != nil {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact replace", err).
			WithContext("fact_id", fact.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact replace", nil).
			WithContext("fact_id", fact.ID)
	}
	return nil
}

// UpdateValue sets a new value on a quarterly fact, optionally marking it
// corrected
func (p *PostgresStore) UpdateValue(ctx context.Context, factID string, value decimal.Decimal, setCorrected bool) error {
	query := fmt.Sprintf(`UPDATE %s SET value = $2, is_corrected = (is_corrected OR $3)
		WHERE id = $1`, tableQuarterlyFacts)

	tag, err := p.pool.Exec(ctx, query, factID, value, setCorrected)
	if err != nil {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact update", err).
			WithContext("fact_id", factID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact update", nil).
			WithContext("fact_id", factID)
	}
	return nil
}

// DeleteQ4 removes calculated fourth-quarter facts
func (p *PostgresStore) DeleteQ4(ctx context.Context, companyID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s
		WHERE quarter = $1 AND is_calculated AND ($2 = '' OR company_id = $2)`,
		tableQuarterlyFacts)

	tag, err := p.pool.Exec(ctx, query, models.QuarterLast, companyID)
	if err != nil {
		return 0, apperrors.StorageError(apperrors.CodeQueryFailed, "q4 delete", err)
	}
	return tag.RowsAffected(), nil
}

// ListFiscalYears returns the distinct fiscal years with annual facts
func (p *PostgresStore) ListFiscalYears(ctx context.Context, companyID string) ([]int, error) {
	return p.listYears(ctx, tableAnnualFacts, companyID)
}

// ListQuarterlyFiscalYears returns the distinct fiscal years with
// quarterly facts
func (p *PostgresStore) ListQuarterlyFiscalYears(ctx context.Context, companyID string) ([]int, error) {
	return p.listYears(ctx, tableQuarterlyFacts, companyID)
}

func (p *PostgresStore) listYears(ctx context.Context, table, companyID string) ([]int, error) {
	query := fmt.Sprintf(`SELECT DISTINCT fiscal_year FROM %s
		WHERE company_id = $1 ORDER BY fiscal_year`, table)

	rows, err := p.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "fiscal years", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "fiscal year scan", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// ListQuarter returns all facts for one quarter of one statement
func (p *PostgresStore) ListQuarter(ctx context.Context, companyID string, st models.StatementType, fiscalYear, quarter int) ([]*models.Fact, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE company_id = $1 AND statement_type = $2 AND fiscal_year = $3 AND quarter = $4`,
		factColumns, factTable(quarter))

	rows, err := p.pool.Query(ctx, query, companyID, string(st), fiscalYear, quarter)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "quarter list", err)
	}
	defer rows.Close()

	var matches []*models.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "fact scan", err)
		}
		matches = append(matches, f)
	}
	return matches, rows.Err()
}

// Companies returns the distinct company IDs across both fact tables
func (p *PostgresStore) Companies(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT company_id FROM %s
		UNION SELECT company_id FROM %s ORDER BY company_id`,
		tableQuarterlyFacts, tableAnnualFacts)

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

func factArgs(f *models.Fact) []interface{} {
	return []interface{}{
		f.ID, f.ConceptID, f.CompanyID, string(f.StatementType), f.FiscalYear, f.Quarter,
		f.Value, f.IsCalculated, f.IsCorrected, nullTime(f.Source.StartDate),
		nullTime(f.Source.EndDate), nullString(f.Source.FormType),
		nullString(f.Source.AccessionNumber), nullString(f.Source.DataSource),
		nullString(f.Source.Note), f.CreatedAt,
	}
}

func scanFact(rows pgx.Rows) (*models.Fact, error) {
	var f models.Fact
	var start, end *time.Time
	var form, accession, source, note *string
	if err := rows.Scan(&f.ID, &f.ConceptID, &f.CompanyID, &f.StatementType,
		&f.FiscalYear, &f.Quarter, &f.Value, &f.IsCalculated, &f.IsCorrected,
		&start, &end, &form, &accession, &source, &note, &f.CreatedAt); err != nil {
		return nil, err
	}
	if start != nil {
		f.Source.StartDate = *start
	}
	if end != nil {
		f.Source.EndDate = *end
	}
	if form != nil {
		f.Source.FormType = *form
	}
	if accession != nil {
		f.Source.AccessionNumber = *accession
	}
	if source != nil {
		f.Source.DataSource = *source
	}
	if note != nil {
		f.Source.Note = *note
	}
	return &f, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
