package facts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/models"
	apperrors "golang-imputation-service/pkg/errors"
)

// MemoryStore is an in-memory Store used by tests and small imports.
// Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.Fact
	facts []*models.Fact
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.Fact)}
}

// GetQuarterlyValues returns the values for quarters 1-3, keyed by quarter
func (m *MemoryStore) GetQuarterlyValues(ctx context.Context, conceptID, companyID string, fiscalYear int) (map[int]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make(map[int]decimal.Decimal)
	for _, f := range m.facts {
		if f.ConceptID == conceptID && f.CompanyID == companyID && f.FiscalYear == fiscalYear &&
			f.Quarter >= models.QuarterFirst && f.Quarter < models.QuarterLast {
			values[f.Quarter] = f.Value
		}
	}
	return values, nil
}

// GetAnnualValue returns the annual value, or nil when absent
func (m *MemoryStore) GetAnnualValue(ctx context.Context, conceptID, companyID string, fiscalYear int) (*decimal.Decimal, error) {
	fact, err := m.GetAnnualFact(ctx, conceptID, companyID, fiscalYear)
	if err != nil || fact == nil {
		return nil, err
	}
	v := fact.Value
	return &v, nil
}

// GetAnnualFact returns the full annual fact, or nil when absent
func (m *MemoryStore) GetAnnualFact(ctx context.Context, conceptID, companyID string, fiscalYear int) (*models.Fact, error) {
	return m.GetFact(ctx, conceptID, companyID, fiscalYear, models.AnnualPeriod)
}

// GetFact returns the fact for the given period, or nil when absent
func (m *MemoryStore) GetFact(ctx context.Context, conceptID, companyID string, fiscalYear, quarter int) (*models.Fact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.facts {
		if f.ConceptID == conceptID && f.CompanyID == companyID &&
			f.FiscalYear == fiscalYear && f.Quarter == quarter {
			clone := *f
			return &clone, nil
		}
	}
	return nil, nil
}

// ExistsQ4 reports whether a fourth-quarter fact already exists
func (m *MemoryStore) ExistsQ4(ctx context.Context, conceptID, companyID string, fiscalYear int) (bool, error) {
	fact, err := m.GetFact(ctx, conceptID, companyID, fiscalYear, models.QuarterLast)
	return fact != nil, err
}

// Insert stores a new fact, assigning an ID when absent
func (m *MemoryStore) Insert(ctx context.Context, fact *models.Fact) error {
	if err := fact.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeMissingField, "fact", fact.ConceptID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.byID[fact.ID]; exists {
		return apperrors.StorageError(apperrors.CodeInsertFailed, "fact insert", nil).
			WithContext("fact_id", fact.ID)
	}

	clone := *fact
	m.byID[clone.ID] = &clone
	m.facts = append(m.facts, &clone)
	return nil
}

// Replace overwrites the stored fact with the same ID
func (m *MemoryStore) Replace(ctx context.Context, fact *models.Fact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[fact.ID]
	if !ok {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact replace", nil).
			WithContext("fact_id", fact.ID)
	}
	*existing = *fact
	return nil
}

// UpdateValue sets a new value on the fact, optionally marking it corrected
func (m *MemoryStore) UpdateValue(ctx context.Context, factID string, value decimal.Decimal, setCorrected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fact, ok := m.byID[factID]
	if !ok {
		return apperrors.StorageError(apperrors.CodeUpdateFailed, "fact update", nil).
			WithContext("fact_id", factID)
	}
	fact.Value = value
	if setCorrected {
		fact.IsCorrected = true
	}
	return nil
}

// DeleteQ4 removes calculated fourth-quarter facts
func (m *MemoryStore) DeleteQ4(ctx context.Context, companyID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*models.Fact
	var removed int64
	for _, f := range m.facts {
		if f.Quarter == models.QuarterLast && f.IsCalculated &&
			(companyID == "" || f.CompanyID == companyID) {
			delete(m.byID, f.ID)
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.facts = kept
	return removed, nil
}

// ListFiscalYears returns the distinct fiscal years with annual facts
func (m *MemoryStore) ListFiscalYears(ctx context.Context, companyID string) ([]int, error) {
	return m.listYears(companyID, true), nil
}

// ListQuarterlyFiscalYears returns the distinct fiscal years with
// quarterly facts
func (m *MemoryStore) ListQuarterlyFiscalYears(ctx context.Context, companyID string) ([]int, error) {
	return m.listYears(companyID, false), nil
}

func (m *MemoryStore) listYears(companyID string, annual bool) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int]bool)
	for _, f := range m.facts {
		if f.CompanyID == companyID && (f.Quarter == models.AnnualPeriod) == annual {
			seen[f.FiscalYear] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ListQuarter returns all facts for one quarter of one statement
func (m *MemoryStore) ListQuarter(ctx context.Context, companyID string, st models.StatementType, fiscalYear, quarter int) ([]*models.Fact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*models.Fact
	for _, f := range m.facts {
		if f.CompanyID == companyID && f.StatementType == st &&
			f.FiscalYear == fiscalYear && f.Quarter == quarter {
			clone := *f
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

// Companies returns the distinct company IDs present in the store
func (m *MemoryStore) Companies(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, f := range m.facts {
		seen[f.CompanyID] = true
	}
	companies := make([]string, 0, len(seen))
	for id := range seen {
		companies = append(companies, id)
	}
	sort.Strings(companies)
	return companies, nil
}
