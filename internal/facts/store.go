// Package facts provides storage for reported and calculated financial
// values. A fact lives either in the quarterly space (quarters 1 through 4)
// or the annual space (quarter 0); the two spaces are keyed by different
// concept catalogs and never mix.
package facts

import (
	"context"

	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/models"
)

// Store reads and writes facts for both period spaces. Implementations
// must treat models.AnnualPeriod as a lookup into the annual space.
type Store interface {
	// GetQuarterlyValues returns the values reported for quarters 1-3 of
	// the fiscal year, keyed by quarter. Absent quarters are simply
	// missing from the map.
	GetQuarterlyValues(ctx context.Context, conceptID, companyID string, fiscalYear int) (map[int]decimal.Decimal, error)

	// GetAnnualValue returns the annual value for the concept and year,
	// or nil when no annual fact exists.
	GetAnnualValue(ctx context.Context, conceptID, companyID string, fiscalYear int) (*decimal.Decimal, error)

	// GetAnnualFact returns the full annual fact, or nil when absent.
	// Callers use it to carry period metadata onto calculated facts.
	GetAnnualFact(ctx context.Context, conceptID, companyID string, fiscalYear int) (*models.Fact, error)

	// GetFact returns the fact for the concept, year and quarter, or nil
	// when absent.
	GetFact(ctx context.Context, conceptID, companyID string, fiscalYear, quarter int) (*models.Fact, error)

	// ExistsQ4 reports whether a fourth-quarter fact already exists.
	ExistsQ4(ctx context.Context, conceptID, companyID string, fiscalYear int) (bool, error)

	// Insert stores a new fact, assigning an ID when absent.
	Insert(ctx context.Context, fact *models.Fact) error

	// Replace overwrites the stored fact with the same ID.
	Replace(ctx context.Context, fact *models.Fact) error

	// UpdateValue sets a new value on the fact, optionally marking it as
	// corrected.
	UpdateValue(ctx context.Context, factID string, value decimal.Decimal, setCorrected bool) error

	// DeleteQ4 removes calculated fourth-quarter facts. An empty
	// companyID deletes across all companies. Returns the number of
	// facts removed.
	DeleteQ4(ctx context.Context, companyID string) (int64, error)

	// ListFiscalYears returns the distinct fiscal years with annual
	// facts for the company, ascending.
	ListFiscalYears(ctx context.Context, companyID string) ([]int, error)

	// ListQuarterlyFiscalYears returns the distinct fiscal years with
	// quarterly facts for the company, ascending. A year can have
	// quarterly filings before the annual one arrives.
	ListQuarterlyFiscalYears(ctx context.Context, companyID string) ([]int, error)

	// ListQuarter returns all facts for one quarter of one statement,
	// used by the cumulative cash-flow correction.
	ListQuarter(ctx context.Context, companyID string, st models.StatementType, fiscalYear, quarter int) ([]*models.Fact, error)

	// Companies returns the distinct company IDs present in the store.
	Companies(ctx context.Context) ([]string, error)
}
