package corrector

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/models"
)

func addFact(t *testing.T, store *facts.MemoryStore, conceptID string, year, quarter int, value string) *models.Fact {
	t.Helper()
	fact := &models.Fact{
		ConceptID:     conceptID,
		CompanyID:     "cik1",
		StatementType: models.StatementCashFlows,
		FiscalYear:    year,
		Quarter:       quarter,
		Value:         decimal.RequireFromString(value),
	}
	if err := store.Insert(context.Background(), fact); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	return fact
}

func value(t *testing.T, store *facts.MemoryStore, conceptID string, year, quarter int) decimal.Decimal {
	t.Helper()
	fact, err := store.GetFact(context.Background(), conceptID, "cik1", year, quarter)
	if err != nil || fact == nil {
		t.Fatalf("GetFact(%s, Q%d) = (%v, %v)", conceptID, quarter, fact, err)
	}
	return fact.Value
}

func TestCorrectCompanyCumulativeToDiscrete(t *testing.T) {
	store := facts.NewMemoryStore()
	ctx := context.Background()

	// Cumulative filings: 100 at Q1, 250 at the half year, 390 at nine
	// months. Discrete quarters are 100, 150, 140.
	addFact(t, store, "c1", 2023, 1, "100")
	addFact(t, store, "c1", 2023, 2, "250")
	addFact(t, store, "c1", 2023, 3, "390")
	// An annual fact so the fiscal year is discoverable
	addFact(t, store, "a1", 2023, models.AnnualPeriod, "500")

	summary, err := NewCorrector(store, nil).CorrectCompany(ctx, "cik1")
	if err != nil {
		t.Fatalf("CorrectCompany() error: %v", err)
	}

	if summary.Q2Fixed != 1 || summary.Q3Fixed != 1 {
		t.Errorf("summary = %+v, want one Q2 and one Q3 fix", summary)
	}
	if got := value(t, store, "c1", 2023, 2); !got.Equal(decimal.RequireFromString("150")) {
		t.Errorf("Q2 = %s, want 150", got)
	}
	if got := value(t, store, "c1", 2023, 3); !got.Equal(decimal.RequireFromString("140")) {
		t.Errorf("Q3 = %s, want 140", got)
	}
	// Q1 is already discrete and untouched
	if got := value(t, store, "c1", 2023, 1); !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Q1 = %s, want 100", got)
	}
}

func TestCorrectCompanyRerunIsNoOp(t *testing.T) {
	store := facts.NewMemoryStore()
	ctx := context.Background()

	addFact(t, store, "c1", 2023, 1, "100")
	addFact(t, store, "c1", 2023, 2, "250")
	addFact(t, store, "c1", 2023, 3, "390")
	addFact(t, store, "a1", 2023, models.AnnualPeriod, "500")

	c := NewCorrector(store, nil)
	if _, err := c.CorrectCompany(ctx, "cik1"); err != nil {
		t.Fatalf("first run error: %v", err)
	}

	rerun, err := c.CorrectCompany(ctx, "cik1")
	if err != nil {
		t.Fatalf("rerun error: %v", err)
	}
	if rerun.Q2Fixed != 0 || rerun.Q3Fixed != 0 {
		t.Errorf("rerun fixed %d/%d facts, want none", rerun.Q2Fixed, rerun.Q3Fixed)
	}
	if rerun.Skipped != 2 {
		t.Errorf("rerun Skipped = %d, want 2", rerun.Skipped)
	}

	// Values unchanged after the rerun
	if got := value(t, store, "c1", 2023, 2); !got.Equal(decimal.RequireFromString("150")) {
		t.Errorf("Q2 after rerun = %s, want 150", got)
	}
	if got := value(t, store, "c1", 2023, 3); !got.Equal(decimal.RequireFromString("140")) {
		t.Errorf("Q3 after rerun = %s, want 140", got)
	}
}

func TestCorrectCompanyMissingPredecessorSkipped(t *testing.T) {
	store := facts.NewMemoryStore()
	ctx := context.Background()

	// No Q1 filed: Q2 cannot be corrected. Q3 still can, because the
	// original Q2 exists.
	addFact(t, store, "c1", 2023, 2, "250")
	addFact(t, store, "c1", 2023, 3, "390")
	// A concept with only Q3: no Q2 to subtract
	addFact(t, store, "c2", 2023, 3, "70")
	addFact(t, store, "a1", 2023, models.AnnualPeriod, "500")

	summary, err := NewCorrector(store, nil).CorrectCompany(ctx, "cik1")
	if err != nil {
		t.Fatalf("CorrectCompany() error: %v", err)
	}

	if summary.Q2Fixed != 0 {
		t.Errorf("Q2Fixed = %d, want 0 without a Q1", summary.Q2Fixed)
	}
	if summary.Q3Fixed != 1 {
		t.Errorf("Q3Fixed = %d, want 1", summary.Q3Fixed)
	}
	if summary.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Skipped)
	}
	if got := value(t, store, "c1", 2023, 3); !got.Equal(decimal.RequireFromString("140")) {
		t.Errorf("Q3 = %s, want 140", got)
	}
	if got := value(t, store, "c2", 2023, 3); !got.Equal(decimal.RequireFromString("70")) {
		t.Errorf("untouched Q3 = %s, want 70", got)
	}
}

func TestCorrectCompanyPartiallyCorrectedYear(t *testing.T) {
	store := facts.NewMemoryStore()
	ctx := context.Background()

	// An earlier run fixed Q2 (250 cumulative became 150 discrete) but
	// stopped before Q3. Q3 must still subtract the ORIGINAL 250,
	// reconstructed as corrected Q2 plus Q1.
	addFact(t, store, "c1", 2023, 1, "100")
	q2 := addFact(t, store, "c1", 2023, 2, "250")
	if err := store.UpdateValue(ctx, q2.ID, decimal.RequireFromString("150"), true); err != nil {
		t.Fatalf("UpdateValue error: %v", err)
	}
	addFact(t, store, "c1", 2023, 3, "390")
	addFact(t, store, "a1", 2023, models.AnnualPeriod, "500")

	summary, err := NewCorrector(store, nil).CorrectCompany(ctx, "cik1")
	if err != nil {
		t.Fatalf("CorrectCompany() error: %v", err)
	}

	if summary.Q2Fixed != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want corrected Q2 skipped", summary)
	}
	if summary.Q3Fixed != 1 {
		t.Errorf("Q3Fixed = %d, want 1", summary.Q3Fixed)
	}
	if got := value(t, store, "c1", 2023, 2); !got.Equal(decimal.RequireFromString("150")) {
		t.Errorf("Q2 = %s, want untouched 150", got)
	}
	if got := value(t, store, "c1", 2023, 3); !got.Equal(decimal.RequireFromString("140")) {
		t.Errorf("Q3 = %s, want 140 from the original Q2", got)
	}
}

func TestCorrectCompanyOnlyCashFlows(t *testing.T) {
	store := facts.NewMemoryStore()
	ctx := context.Background()

	income := &models.Fact{
		ConceptID:     "inc1",
		CompanyID:     "cik1",
		StatementType: models.StatementIncome,
		FiscalYear:    2023,
		Quarter:       2,
		Value:         decimal.RequireFromString("250"),
	}
	if err := store.Insert(ctx, income); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	addFact(t, store, "a1", 2023, models.AnnualPeriod, "500")

	summary, err := NewCorrector(store, nil).CorrectCompany(ctx, "cik1")
	if err != nil {
		t.Fatalf("CorrectCompany() error: %v", err)
	}
	if summary.Q2Fixed != 0 {
		t.Errorf("income statement fact was corrected: %+v", summary)
	}

	stored, _ := store.GetFact(ctx, "inc1", "cik1", 2023, 2)
	if !stored.Value.Equal(decimal.RequireFromString("250")) {
		t.Errorf("income Q2 = %s, want untouched 250", stored.Value)
	}
}
