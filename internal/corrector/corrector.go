// Package corrector converts cumulative interim cash-flow values into
// discrete quarterly amounts. Cash-flow statements in interim filings
// report six-month figures at Q2 and nine-month figures at Q3; the
// corrector rewrites them as three-month amounts:
//
//	Q2 = Q2_reported - Q1_reported
//	Q3 = Q3_reported - Q2_reported
//
// Q3 must subtract the ORIGINAL reported Q2. Subtracting the just-written
// corrected Q2 would double-subtract Q1 and understate Q3, so original
// values are snapshotted before any write.
package corrector

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/models"
	"golang-imputation-service/pkg/logger"
)

// Summary reports what one correction run changed
type Summary struct {
	Q2Fixed int      `json:"q2Fixed"`
	Q3Fixed int      `json:"q3Fixed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Merge folds another summary into the receiver
func (s *Summary) Merge(other *Summary) {
	s.Q2Fixed += other.Q2Fixed
	s.Q3Fixed += other.Q3Fixed
	s.Skipped += other.Skipped
	s.Errors = append(s.Errors, other.Errors...)
}

// Corrector rewrites cumulative cash-flow quarters in place
type Corrector struct {
	store facts.Store
	log   logger.Logger
}

// NewCorrector creates a corrector over the given fact store
func NewCorrector(store facts.Store, log logger.Logger) *Corrector {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Corrector{store: store, log: log.WithComponent("corrector")}
}

// CorrectCompany corrects every cash-flow concept across the company's
// filed fiscal years. Facts already marked corrected are skipped, which
// makes reruns safe.
func (c *Corrector) CorrectCompany(ctx context.Context, companyID string) (*Summary, error) {
	summary := &Summary{}

	years, err := c.store.ListFiscalYears(ctx, companyID)
	if err != nil {
		return summary, err
	}

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := c.correctYear(ctx, companyID, year, summary); err != nil {
			return summary, err
		}
	}

	c.log.WithFields(logger.Fields{
		"company_id": companyID,
		"q2_fixed":   summary.Q2Fixed,
		"q3_fixed":   summary.Q3Fixed,
		"skipped":    summary.Skipped,
	}).Info("cash flow correction finished")
	return summary, nil
}

// CorrectAll corrects every company present in the fact store
func (c *Corrector) CorrectAll(ctx context.Context) (*Summary, error) {
	companies, err := c.store.Companies(ctx)
	if err != nil {
		return nil, err
	}

	total := &Summary{}
	for _, companyID := range companies {
		companySummary, err := c.CorrectCompany(ctx, companyID)
		total.Merge(companySummary)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Corrector) correctYear(ctx context.Context, companyID string, year int, summary *Summary) error {
	q1 := make(map[string]*models.Fact)
	q2 := make(map[string]*models.Fact)
	q3 := make(map[string]*models.Fact)

	for quarter, byConcept := range map[int]map[string]*models.Fact{1: q1, 2: q2, 3: q3} {
		listed, err := c.store.ListQuarter(ctx, companyID, models.StatementCashFlows, year, quarter)
		if err != nil {
			return err
		}
		for _, f := range listed {
			byConcept[f.ConceptID] = f
		}
	}

	// Snapshot original Q2 values before any write. A Q2 already marked
	// corrected has its original value reconstructed from Q1 so a
	// partially corrected year still fixes Q3 with the right operand.
	originalQ2 := make(map[string]decimal.Decimal)
	for conceptID, fact := range q2 {
		if !fact.IsCorrected {
			originalQ2[conceptID] = fact.Value
			continue
		}
		if q1Fact, ok := q1[conceptID]; ok {
			originalQ2[conceptID] = fact.Value.Add(q1Fact.Value)
		}
	}

	for conceptID, fact := range q2 {
		if fact.IsCorrected {
			summary.Skipped++
			continue
		}
		q1Fact, ok := q1[conceptID]
		if !ok {
			summary.Skipped++
			continue
		}
		corrected := fact.Value.Sub(q1Fact.Value)
		if err := c.store.UpdateValue(ctx, fact.ID, corrected, true); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("q2 concept %s FY%d: %v", conceptID, year, err))
			continue
		}
		summary.Q2Fixed++
	}

	for conceptID, fact := range q3 {
		if fact.IsCorrected {
			summary.Skipped++
			continue
		}
		orig, ok := originalQ2[conceptID]
		if !ok {
			summary.Skipped++
			continue
		}
		corrected := fact.Value.Sub(orig)
		if err := c.store.UpdateValue(ctx, fact.ID, corrected, true); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("q3 concept %s FY%d: %v", conceptID, year, err))
			continue
		}
		summary.Q3Fixed++
	}

	return nil
}
