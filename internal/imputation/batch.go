package imputation

import (
	"context"
	"fmt"

	"golang-imputation-service/internal/models"
	"golang-imputation-service/pkg/logger"
)

// Summary aggregates the outcomes of one batch run. Skipped counts
// already-existing Q4 facts; they are successes from the caller's point of
// view, kept separate so reruns are visibly cheap.
type Summary struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Add folds one unit result into the summary
func (s *Summary) Add(result *Result) {
	s.Processed++
	switch result.Outcome {
	case OutcomeComputed, OutcomeCopied:
		s.Succeeded++
	case OutcomeAlreadyExists:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
		if result.Err != nil {
			s.Errors = append(s.Errors,
				fmt.Sprintf("concept %s FY%d: %v", result.ConceptID, result.FiscalYear, result.Err))
		}
	}
}

// Merge folds another summary into the receiver
func (s *Summary) Merge(other *Summary) {
	s.Processed += other.Processed
	s.Succeeded += other.Succeeded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Errors = append(s.Errors, other.Errors...)
}

// RunCompany imputes Q4 for every non-abstract concept of every statement
// type across the company's filed fiscal years. Unit failures are recorded
// and the run continues; only storage-level iteration errors abort.
func (c *Calculator) RunCompany(ctx context.Context, companyID string) (*Summary, error) {
	summary := &Summary{}

	years, err := c.store.ListFiscalYears(ctx, companyID)
	if err != nil {
		return summary, err
	}
	if len(years) == 0 {
		c.log.WithField("company_id", companyID).Warn("no annual filings; nothing to impute")
		return summary, nil
	}

	statements := c.opts.Statements
	if len(statements) == 0 {
		statements = []models.StatementType{
			models.StatementIncome,
			models.StatementCashFlows,
			models.StatementBalanceSheet,
		}
	}

	for _, st := range statements {
		concepts, err := c.quarterly.ListNonAbstract(ctx, companyID, st)
		if err != nil {
			return summary, err
		}

		tracker := logger.NewProgressTracker(
			fmt.Sprintf("impute %s %s", companyID, st), int64(len(concepts))*int64(len(years)), c.log)

		for _, concept := range concepts {
			for _, year := range years {
				if err := ctx.Err(); err != nil {
					return summary, err
				}
				summary.Add(c.ImputeQ4(ctx, concept.ID, companyID, year))
				tracker.Increment()
			}
		}
		tracker.Complete()
	}

	c.log.WithFields(logger.Fields{
		"company_id": companyID,
		"processed":  summary.Processed,
		"succeeded":  summary.Succeeded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
	}).Info("company imputation finished")
	return summary, nil
}

// RunAll imputes Q4 for every company present in the quarterly catalog
func (c *Calculator) RunAll(ctx context.Context) (*Summary, error) {
	companies, err := c.quarterly.Companies(ctx)
	if err != nil {
		return nil, err
	}

	total := &Summary{}
	for _, companyID := range companies {
		companySummary, err := c.RunCompany(ctx, companyID)
		total.Merge(companySummary)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
