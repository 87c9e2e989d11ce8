// Package imputation derives fourth-quarter facts from annual filings.
// Companies report three quarterly filings and one annual filing per fiscal
// year; the fourth quarter is never filed on its own. For flow concepts
// Q4 = Annual - (Q1 + Q2 + Q3); for point-in-time concepts the annual
// balance is copied, because a balance at fiscal year end is the Q4
// balance.
package imputation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/catalog"
	"golang-imputation-service/internal/classifier"
	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/models"
	"golang-imputation-service/internal/resolver"
	apperrors "golang-imputation-service/pkg/errors"
	"golang-imputation-service/pkg/logger"
)

// Outcome is the terminal state of one imputation unit
type Outcome string

const (
	// OutcomeComputed means Q4 was calculated as Annual - (Q1+Q2+Q3)
	OutcomeComputed Outcome = "computed"

	// OutcomeCopied means the annual balance was copied for a
	// point-in-time concept
	OutcomeCopied Outcome = "copied"

	// OutcomeAlreadyExists means a Q4 fact was already present; the unit
	// is an idempotent no-op, not a failure
	OutcomeAlreadyExists Outcome = "already_exists"

	// OutcomeFailed means the unit could not produce a Q4 fact
	OutcomeFailed Outcome = "failed"
)

// Result reports what happened to one (concept, fiscalYear) unit
type Result struct {
	Outcome    Outcome
	ConceptID  string
	FiscalYear int
	Value      *decimal.Decimal
	Err        error
}

// Options tunes calculator behavior
type Options struct {
	// SubstituteZeroForMissing treats absent Q1-Q3 values as zero
	// instead of failing. The annual value is still required. Off by
	// default; enabling it can overstate Q4 when a quarter is genuinely
	// unfiled rather than zero.
	SubstituteZeroForMissing bool

	// Statements restricts batch runs to the given statement types.
	// Empty means all three.
	Statements []models.StatementType
}

// Calculator imputes fourth-quarter facts for one pair of catalogs
type Calculator struct {
	quarterly catalog.Catalog
	annual    catalog.Catalog
	store     facts.Store
	resolver  *resolver.Resolver
	opts      Options
	log       logger.Logger
}

// NewCalculator creates a calculator over the given catalogs and fact store
func NewCalculator(quarterly, annual catalog.Catalog, store facts.Store, opts Options, log logger.Logger) *Calculator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Calculator{
		quarterly: quarterly,
		annual:    annual,
		store:     store,
		resolver:  resolver.NewResolver(quarterly, annual, log),
		opts:      opts,
		log:       log.WithComponent("imputation"),
	}
}

// ImputeQ4 derives the fourth-quarter fact for one concept and fiscal year.
// All failures are confined to the returned Result so a batch can continue
// past them.
func (c *Calculator) ImputeQ4(ctx context.Context, conceptID, companyID string, fiscalYear int) *Result {
	result := &Result{ConceptID: conceptID, FiscalYear: fiscalYear}

	concept, err := c.quarterly.Get(ctx, conceptID)
	if err != nil {
		return c.fail(result, apperrors.WrapIfNeeded(err, apperrors.CategoryCatalog,
			apperrors.CodeQueryFailed, "concept lookup failed"))
	}
	if concept == nil {
		return c.fail(result, apperrors.ConceptNotFoundError(conceptID, "", companyID))
	}

	exists, err := c.store.ExistsQ4(ctx, concept.ID, companyID, fiscalYear)
	if err != nil {
		return c.fail(result, err)
	}
	if exists {
		result.Outcome = OutcomeAlreadyExists
		return result
	}

	annualConcept, err := c.resolver.ResolveAnnual(ctx, concept)
	if err != nil {
		return c.fail(result, err)
	}

	if classifier.IsPointInTime(concept) {
		return c.imputePointInTime(ctx, result, concept, annualConcept, companyID, fiscalYear)
	}
	return c.imputeFlow(ctx, result, concept, annualConcept, companyID, fiscalYear)
}

// imputePointInTime copies the annual balance as Q4
func (c *Calculator) imputePointInTime(ctx context.Context, result *Result, concept, annualConcept *models.Concept, companyID string, fiscalYear int) *Result {
	if annualConcept == nil {
		return c.fail(result, apperrors.CalculationError(apperrors.CodeMissingAnnualForSnapshot,
			fmt.Sprintf("no annual concept resolved for %s", concept.QualifiedName), nil))
	}

	annualFact, err := c.store.GetAnnualFact(ctx, annualConcept.ID, companyID, fiscalYear)
	if err != nil {
		return c.fail(result, err)
	}
	if annualFact == nil {
		return c.fail(result, apperrors.CalculationError(apperrors.CodeMissingAnnualForSnapshot,
			fmt.Sprintf("no annual value for %s in FY%d", concept.QualifiedName, fiscalYear), nil))
	}

	fact := c.buildQ4Fact(concept, companyID, fiscalYear, annualFact.Value, annualFact, models.NoteCopiedQ4)
	if err := c.store.Insert(ctx, fact); err != nil {
		return c.fail(result, err)
	}

	result.Outcome = OutcomeCopied
	result.Value = &annualFact.Value
	return result
}

// imputeFlow computes Q4 = Annual - (Q1 + Q2 + Q3)
func (c *Calculator) imputeFlow(ctx context.Context, result *Result, concept, annualConcept *models.Concept, companyID string, fiscalYear int) *Result {
	data := models.QuarterlyData{
		ConceptID:  concept.ID,
		CompanyID:  companyID,
		FiscalYear: fiscalYear,
	}

	quarters, err := c.store.GetQuarterlyValues(ctx, concept.ID, companyID, fiscalYear)
	if err != nil {
		return c.fail(result, err)
	}
	for quarter, value := range quarters {
		data.SetQuarter(quarter, value)
	}

	var annualFact *models.Fact
	if annualConcept != nil {
		annualFact, err = c.store.GetAnnualFact(ctx, annualConcept.ID, companyID, fiscalYear)
		if err != nil {
			return c.fail(result, err)
		}
		if annualFact != nil {
			data.Annual = &annualFact.Value
		}
	}

	var q4 decimal.Decimal
	if c.opts.SubstituteZeroForMissing {
		q4, err = data.CalculateQ4SubstitutingZero()
	} else {
		q4, err = data.CalculateQ4()
	}
	if err != nil {
		missing := data.MissingFields()
		if c.opts.SubstituteZeroForMissing {
			// Substituted quarters are not missing; only the annual
			// value can fail the calculation in this mode.
			missing = []string{"Annual"}
		}
		return c.fail(result, apperrors.CalculationError(apperrors.CodeMissingValues,
			fmt.Sprintf("%s FY%d missing %s", concept.QualifiedName, fiscalYear,
				strings.Join(missing, ", ")), nil))
	}

	fact := c.buildQ4Fact(concept, companyID, fiscalYear, q4, annualFact, models.NoteComputedQ4)
	if err := c.store.Insert(ctx, fact); err != nil {
		return c.fail(result, err)
	}

	result.Outcome = OutcomeComputed
	result.Value = &q4
	return result
}

// buildQ4Fact assembles the calculated fourth-quarter fact. Period
// metadata is copied from the annual fact when available so the derived
// fact carries plausible filing provenance.
func (c *Calculator) buildQ4Fact(concept *models.Concept, companyID string, fiscalYear int, value decimal.Decimal, annualFact *models.Fact, note string) *models.Fact {
	fact := &models.Fact{
		ConceptID:     concept.ID,
		CompanyID:     companyID,
		StatementType: concept.StatementType,
		FiscalYear:    fiscalYear,
		Quarter:       models.QuarterLast,
		Value:         value,
		IsCalculated:  true,
		Source: models.SourceMetadata{
			FormType:   "10-Q",
			DataSource: models.DataSourceCalculated,
			Note:       note,
		},
	}
	if annualFact != nil {
		fact.Source.StartDate = annualFact.Source.StartDate
		fact.Source.EndDate = annualFact.Source.EndDate
		fact.Source.AccessionNumber = annualFact.Source.AccessionNumber
	}
	return fact
}

func (c *Calculator) fail(result *Result, err error) *Result {
	result.Outcome = OutcomeFailed
	result.Err = err
	c.log.WithError(err).WithFields(logger.Fields{
		"concept_id":  result.ConceptID,
		"fiscal_year": result.FiscalYear,
	}).Debug("imputation unit failed")
	return result
}
