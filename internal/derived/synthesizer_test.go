package derived

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/catalog"
	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/models"
)

type fixture struct {
	quarterly   *catalog.MemoryCatalog
	annual      *catalog.MemoryCatalog
	store       *facts.MemoryStore
	synthesizer *Synthesizer
}

func newFixture() *fixture {
	f := &fixture{
		quarterly: catalog.NewMemoryCatalog(),
		annual:    catalog.NewMemoryCatalog(),
		store:     facts.NewMemoryStore(),
	}
	f.synthesizer = NewSynthesizer(f.quarterly, f.annual, f.store,
		NewMemoryMapper(DefaultMappings()), nil)
	return f
}

func (f *fixture) addConcept(t *testing.T, cat *catalog.MemoryCatalog, name, path string) *models.Concept {
	t.Helper()
	c := &models.Concept{
		CompanyID:     "cik1",
		StatementType: models.StatementIncome,
		QualifiedName: name,
		Label:         name,
		Path:          path,
	}
	if err := cat.Create(context.Background(), c); err != nil {
		t.Fatalf("Create(%s) error: %v", name, err)
	}
	return c
}

func (f *fixture) addFact(t *testing.T, conceptID string, year, quarter int, value string) {
	t.Helper()
	fact := &models.Fact{
		ConceptID:     conceptID,
		CompanyID:     "cik1",
		StatementType: models.StatementIncome,
		FiscalYear:    year,
		Quarter:       quarter,
		Value:         decimal.RequireFromString(value),
	}
	if err := f.store.Insert(context.Background(), fact); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestSynthesizeGrossProfit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	revenue := f.addConcept(t, f.quarterly, "us-gaap:Revenues", "004.001")
	cost := f.addConcept(t, f.quarterly, "us-gaap:CostOfRevenue", "004.002")
	annualRevenue := f.addConcept(t, f.annual, "us-gaap:Revenues", "004.001")
	annualCost := f.addConcept(t, f.annual, "us-gaap:CostOfRevenue", "004.002")

	f.addFact(t, revenue.ID, 2023, 1, "1000")
	f.addFact(t, cost.ID, 2023, 1, "400")
	f.addFact(t, revenue.ID, 2023, 2, "1100")
	f.addFact(t, cost.ID, 2023, 2, "450")
	f.addFact(t, annualRevenue.ID, 2023, models.AnnualPeriod, "4300")
	f.addFact(t, annualCost.ID, 2023, models.AnnualPeriod, "1700")

	summary, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false)
	if err != nil {
		t.Fatalf("SynthesizeCompany() error: %v", err)
	}

	// Q1, Q2 and annual have both inputs; Q3 and Q4 are skipped
	if summary.Created != 3 {
		t.Errorf("Created = %d, want 3", summary.Created)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}

	derived, err := f.quarterly.FindOne(ctx, catalog.Query{
		CompanyID:     "cik1",
		QualifiedName: "us-gaap:GrossProfit",
	})
	if err != nil || derived == nil {
		t.Fatalf("derived concept lookup = (%v, %v)", derived, err)
	}
	if derived.Path != "003" || !derived.IsCalculated {
		t.Errorf("derived concept = %+v, want path 003 and calculated flag", derived)
	}

	q1, err := f.store.GetFact(ctx, derived.ID, "cik1", 2023, 1)
	if err != nil || q1 == nil {
		t.Fatalf("GetFact(Q1) = (%v, %v)", q1, err)
	}
	if !q1.Value.Equal(decimal.RequireFromString("600")) {
		t.Errorf("Q1 gross profit = %s, want 600", q1.Value)
	}
	if !q1.IsCalculated {
		t.Error("derived fact not flagged as calculated")
	}

	annualConcept, err := f.annual.FindOne(ctx, catalog.Query{
		CompanyID:     "cik1",
		QualifiedName: "us-gaap:GrossProfit",
	})
	if err != nil || annualConcept == nil {
		t.Fatalf("annual derived concept lookup = (%v, %v)", annualConcept, err)
	}
	annualFact, _ := f.store.GetFact(ctx, annualConcept.ID, "cik1", 2023, models.AnnualPeriod)
	if annualFact == nil || !annualFact.Value.Equal(decimal.RequireFromString("2600")) {
		t.Errorf("annual gross profit = %v, want 2600", annualFact)
	}
}

func TestSynthesizeConceptCreatedOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	revenue := f.addConcept(t, f.quarterly, "us-gaap:Revenues", "004.001")
	cost := f.addConcept(t, f.quarterly, "us-gaap:CostOfRevenue", "004.002")
	f.addFact(t, revenue.ID, 2023, 1, "1000")
	f.addFact(t, cost.ID, 2023, 1, "400")

	if _, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if _, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	found, err := f.quarterly.Find(ctx, catalog.Query{
		CompanyID:     "cik1",
		QualifiedName: "us-gaap:GrossProfit",
	})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("derived concept created %d times, want once", len(found))
	}
}

func TestSynthesizeRecalculateReplaces(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	revenue := f.addConcept(t, f.quarterly, "us-gaap:Revenues", "004.001")
	cost := f.addConcept(t, f.quarterly, "us-gaap:CostOfRevenue", "004.002")
	f.addFact(t, revenue.ID, 2023, 1, "1000")
	f.addFact(t, cost.ID, 2023, 1, "400")

	if _, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false); err != nil {
		t.Fatalf("initial run error: %v", err)
	}

	// Cost restated upward; without recalculate the stale value stays
	derived, _ := f.quarterly.FindOne(ctx, catalog.Query{CompanyID: "cik1", QualifiedName: "us-gaap:GrossProfit"})
	costFact, _ := f.store.GetFact(ctx, cost.ID, "cik1", 2023, 1)
	if err := f.store.UpdateValue(ctx, costFact.ID, decimal.RequireFromString("500"), false); err != nil {
		t.Fatalf("UpdateValue error: %v", err)
	}

	noRecalc, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false)
	if err != nil {
		t.Fatalf("no-recalculate run error: %v", err)
	}
	if noRecalc.Replaced != 0 {
		t.Errorf("Replaced = %d without recalculate, want 0", noRecalc.Replaced)
	}
	stale, _ := f.store.GetFact(ctx, derived.ID, "cik1", 2023, 1)
	if !stale.Value.Equal(decimal.RequireFromString("600")) {
		t.Errorf("value changed without recalculate: %s", stale.Value)
	}

	recalc, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), true)
	if err != nil {
		t.Fatalf("recalculate run error: %v", err)
	}
	if recalc.Replaced == 0 {
		t.Error("recalculate run replaced nothing")
	}

	fresh, _ := f.store.GetFact(ctx, derived.ID, "cik1", 2023, 1)
	if !fresh.Value.Equal(decimal.RequireFromString("500")) {
		t.Errorf("recalculated gross profit = %s, want 500", fresh.Value)
	}

	// Replacement happened in place; exactly one derived fact exists
	if values, _ := f.store.GetQuarterlyValues(ctx, derived.ID, "cik1", 2023); len(values) != 1 {
		t.Errorf("derived facts per quarter = %d, want 1", len(values))
	}
}

func TestSynthesizeYearWithoutAnnualFiling(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// The annual filing for FY2024 has not arrived yet; the quarterly
	// inputs are enough for quarterly gross profit
	revenue := f.addConcept(t, f.quarterly, "us-gaap:Revenues", "004.001")
	cost := f.addConcept(t, f.quarterly, "us-gaap:CostOfRevenue", "004.002")
	f.addFact(t, revenue.ID, 2024, 1, "1000")
	f.addFact(t, cost.ID, 2024, 1, "400")
	f.addFact(t, revenue.ID, 2024, 2, "1100")
	f.addFact(t, cost.ID, 2024, 2, "450")

	summary, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false)
	if err != nil {
		t.Fatalf("SynthesizeCompany() error: %v", err)
	}
	if summary.Created != 2 {
		t.Errorf("Created = %d, want 2", summary.Created)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}

	derived, err := f.quarterly.FindOne(ctx, catalog.Query{
		CompanyID:     "cik1",
		QualifiedName: "us-gaap:GrossProfit",
	})
	if err != nil || derived == nil {
		t.Fatalf("derived concept lookup = (%v, %v)", derived, err)
	}
	q2, err := f.store.GetFact(ctx, derived.ID, "cik1", 2024, 2)
	if err != nil || q2 == nil {
		t.Fatalf("GetFact(Q2) = (%v, %v)", q2, err)
	}
	if !q2.Value.Equal(decimal.RequireFromString("650")) {
		t.Errorf("Q2 gross profit = %s, want 650", q2.Value)
	}
}

func TestSynthesizeFallbackCanonicalName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// The filer uses the second canonical tag for revenue and the
	// third for cost
	revenue := f.addConcept(t, f.quarterly, "us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", "004.001")
	cost := f.addConcept(t, f.quarterly, "us-gaap:CostOfGoodsSold", "004.002")
	f.addFact(t, revenue.ID, 2023, 1, "1000")
	f.addFact(t, cost.ID, 2023, 1, "400")

	summary, err := f.synthesizer.SynthesizeCompany(ctx, "cik1", GrossProfit(), false)
	if err != nil {
		t.Fatalf("SynthesizeCompany() error: %v", err)
	}
	if summary.Created != 1 {
		t.Errorf("Created = %d, want 1", summary.Created)
	}
}
