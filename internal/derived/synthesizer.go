// Package derived synthesizes secondary concepts defined as the difference
// of two resolved line items, for example Gross Profit = Total Revenues -
// Cost of Revenues. Many filers never tag gross profit directly; the
// synthesizer fills it in from what they did tag, across the quarterly and
// annual fact spaces.
package derived

import (
	"context"
	"fmt"

	"golang-imputation-service/internal/catalog"
	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/models"
	"golang-imputation-service/pkg/logger"
)

// Definition describes one derived concept as minuend - subtrahend,
// both named by standardized labels resolved through a Mapper.
type Definition struct {
	QualifiedName   string
	Label           string
	Path            string
	StatementType   models.StatementType
	MinuendLabel    string
	SubtrahendLabel string
}

// GrossProfit is the shipped derived-concept definition
func GrossProfit() Definition {
	return Definition{
		QualifiedName:   "us-gaap:GrossProfit",
		Label:           "Gross Profit",
		Path:            "003",
		StatementType:   models.StatementIncome,
		MinuendLabel:    "Total Revenues",
		SubtrahendLabel: "Cost of Revenues",
	}
}

// Summary reports what one synthesis run produced
type Summary struct {
	Created  int      `json:"created"`
	Replaced int      `json:"replaced"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Merge folds another summary into the receiver
func (s *Summary) Merge(other *Summary) {
	s.Created += other.Created
	s.Replaced += other.Replaced
	s.Skipped += other.Skipped
	s.Errors = append(s.Errors, other.Errors...)
}

// Synthesizer computes derived facts across both fact spaces
type Synthesizer struct {
	quarterly catalog.Catalog
	annual    catalog.Catalog
	store     facts.Store
	mapper    Mapper
	log       logger.Logger
}

// NewSynthesizer creates a synthesizer over the given catalogs, fact store
// and label mapper
func NewSynthesizer(quarterly, annual catalog.Catalog, store facts.Store, mapper Mapper, log logger.Logger) *Synthesizer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Synthesizer{
		quarterly: quarterly,
		annual:    annual,
		store:     store,
		mapper:    mapper,
		log:       log.WithComponent("derived"),
	}
}

// SynthesizeCompany computes the derived concept for every fiscal year of
// the company, in both the quarterly space (quarters 1-4) and the annual
// space. Existing derived values are skipped unless recalculate is set,
// in which case they are replaced in place.
func (s *Synthesizer) SynthesizeCompany(ctx context.Context, companyID string, def Definition, recalculate bool) (*Summary, error) {
	summary := &Summary{}

	quarterlyYears, err := s.store.ListQuarterlyFiscalYears(ctx, companyID)
	if err != nil {
		return summary, err
	}
	annualYears, err := s.store.ListFiscalYears(ctx, companyID)
	if err != nil {
		return summary, err
	}

	// Each space enumerates its own years: quarterly filings for a year
	// routinely exist before the annual one does.
	spaces := []struct {
		catalog  catalog.Catalog
		quarters []int
		years    []int
	}{
		{s.quarterly, []int{1, 2, 3, 4}, quarterlyYears},
		{s.annual, []int{models.AnnualPeriod}, annualYears},
	}

	for _, space := range spaces {
		if len(space.years) == 0 {
			continue
		}
		if err := s.synthesizeSpace(ctx, space.catalog, space.quarters, companyID, def, space.years, recalculate, summary); err != nil {
			return summary, err
		}
	}

	s.log.WithFields(logger.Fields{
		"company_id": companyID,
		"concept":    def.QualifiedName,
		"created":    summary.Created,
		"replaced":   summary.Replaced,
		"skipped":    summary.Skipped,
	}).Info("derived synthesis finished")
	return summary, nil
}

func (s *Synthesizer) synthesizeSpace(ctx context.Context, cat catalog.Catalog, quarters []int, companyID string, def Definition, years []int, recalculate bool, summary *Summary) error {
	minuend, err := s.resolveByLabel(ctx, cat, companyID, def.StatementType, def.MinuendLabel)
	if err != nil {
		return err
	}
	subtrahend, err := s.resolveByLabel(ctx, cat, companyID, def.StatementType, def.SubtrahendLabel)
	if err != nil {
		return err
	}
	if minuend == nil || subtrahend == nil {
		s.log.WithFields(logger.Fields{
			"company_id": companyID,
			"concept":    def.QualifiedName,
		}).Debug("input concepts unresolved; space skipped")
		return nil
	}

	derived, err := s.ensureConcept(ctx, cat, companyID, def)
	if err != nil {
		return err
	}

	note := fmt.Sprintf("%s derived as %s - %s", def.Label, def.MinuendLabel, def.SubtrahendLabel)

	for _, year := range years {
		for _, quarter := range quarters {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.synthesizePeriod(ctx, derived, minuend, subtrahend, companyID, year, quarter, note, recalculate, summary); err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("%s FY%d Q%d: %v", def.QualifiedName, year, quarter, err))
			}
		}
	}
	return nil
}

func (s *Synthesizer) synthesizePeriod(ctx context.Context, derived, minuend, subtrahend *models.Concept, companyID string, year, quarter int, note string, recalculate bool, summary *Summary) error {
	minuendFact, err := s.store.GetFact(ctx, minuend.ID, companyID, year, quarter)
	if err != nil {
		return err
	}
	subtrahendFact, err := s.store.GetFact(ctx, subtrahend.ID, companyID, year, quarter)
	if err != nil {
		return err
	}
	if minuendFact == nil || subtrahendFact == nil {
		summary.Skipped++
		return nil
	}

	value := minuendFact.Value.Sub(subtrahendFact.Value)

	existing, err := s.store.GetFact(ctx, derived.ID, companyID, year, quarter)
	if err != nil {
		return err
	}
	if existing != nil {
		if !recalculate {
			summary.Skipped++
			return nil
		}
		existing.Value = value
		if err := s.store.Replace(ctx, existing); err != nil {
			return err
		}
		summary.Replaced++
		return nil
	}

	fact := &models.Fact{
		ConceptID:     derived.ID,
		CompanyID:     companyID,
		StatementType: derived.StatementType,
		FiscalYear:    year,
		Quarter:       quarter,
		Value:         value,
		IsCalculated:  true,
		Source: models.SourceMetadata{
			DataSource: models.DataSourceCalculated,
			Note:       note,
		},
	}
	if err := s.store.Insert(ctx, fact); err != nil {
		return err
	}
	summary.Created++
	return nil
}

// resolveByLabel resolves a standardized label to a concept in the given
// catalog. Canonical names are tried in mapper order; dimensional and
// abstract concepts never carry the statement total, so they are excluded.
func (s *Synthesizer) resolveByLabel(ctx context.Context, cat catalog.Catalog, companyID string, st models.StatementType, standardLabel string) (*models.Concept, error) {
	names, err := s.mapper.CanonicalNames(ctx, standardLabel)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		found, err := cat.Find(ctx, catalog.Query{
			CompanyID:     companyID,
			StatementType: st,
			QualifiedName: name,
		})
		if err != nil {
			return nil, err
		}

		var matches []*models.Concept
		for _, c := range found {
			if !c.IsAbstract && !c.IsDimensional {
				matches = append(matches, c)
			}
		}
		if len(matches) == 1 {
			return matches[0], nil
		}
	}
	return nil, nil
}

// ensureConcept looks up the derived concept and lazily creates it on
// first use for the company
func (s *Synthesizer) ensureConcept(ctx context.Context, cat catalog.Catalog, companyID string, def Definition) (*models.Concept, error) {
	existing, err := cat.FindOne(ctx, catalog.Query{
		CompanyID:     companyID,
		StatementType: def.StatementType,
		QualifiedName: def.QualifiedName,
		Path:          def.Path,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	concept := &models.Concept{
		CompanyID:     companyID,
		StatementType: def.StatementType,
		QualifiedName: def.QualifiedName,
		Label:         def.Label,
		Path:          def.Path,
		IsCalculated:  true,
	}
	if err := cat.Create(ctx, concept); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"company_id": companyID,
		"concept":    def.QualifiedName,
	}).Debug("derived concept created")
	return concept, nil
}
