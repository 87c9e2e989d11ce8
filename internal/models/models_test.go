package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestParseStatementType(t *testing.T) {
	tests := []struct {
		input   string
		want    StatementType
		wantErr bool
	}{
		{"income_statement", StatementIncome, false},
		{"cash_flows", StatementCashFlows, false},
		{"balance_sheet", StatementBalanceSheet, false},
		{"INCOME_STATEMENT", StatementIncome, false},
		{"equity", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatementType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatementType(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatementType(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatementType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConceptPathHelpers(t *testing.T) {
	c := &Concept{Path: "004.002.001"}

	if got := c.RootSegment(); got != "004" {
		t.Errorf("RootSegment() = %q, want %q", got, "004")
	}
	if got := c.PathPrefix(2); got != "004.002" {
		t.Errorf("PathPrefix(2) = %q, want %q", got, "004.002")
	}

	short := &Concept{Path: "004"}
	if got := short.PathPrefix(2); got != "004" {
		t.Errorf("PathPrefix(2) on short path = %q, want %q", got, "004")
	}

	empty := &Concept{}
	if got := empty.PathSegments(); got != nil {
		t.Errorf("PathSegments() on empty path = %v, want nil", got)
	}
}

func TestQuarterlyDataCalculateQ4(t *testing.T) {
	data := QuarterlyData{
		Q1:     DecimalPtr(d("100")),
		Q2:     DecimalPtr(d("150")),
		Q3:     DecimalPtr(d("140")),
		Annual: DecimalPtr(d("500")),
	}

	q4, err := data.CalculateQ4()
	if err != nil {
		t.Fatalf("CalculateQ4() error: %v", err)
	}
	if !q4.Equal(d("110")) {
		t.Errorf("CalculateQ4() = %s, want 110", q4)
	}
}

func TestQuarterlyDataCalculateQ4NegativeResult(t *testing.T) {
	// A legitimate outcome: a weak Q4 after strong interim quarters
	data := QuarterlyData{
		Q1:     DecimalPtr(d("300")),
		Q2:     DecimalPtr(d("300")),
		Q3:     DecimalPtr(d("300")),
		Annual: DecimalPtr(d("850")),
	}

	q4, err := data.CalculateQ4()
	if err != nil {
		t.Fatalf("CalculateQ4() error: %v", err)
	}
	if !q4.Equal(d("-50")) {
		t.Errorf("CalculateQ4() = %s, want -50", q4)
	}
}

func TestQuarterlyDataMissingFields(t *testing.T) {
	tests := []struct {
		name string
		data QuarterlyData
		want []string
	}{
		{
			name: "all missing",
			data: QuarterlyData{},
			want: []string{"Q1", "Q2", "Q3", "Annual"},
		},
		{
			name: "q2 missing",
			data: QuarterlyData{
				Q1:     DecimalPtr(d("1")),
				Q3:     DecimalPtr(d("3")),
				Annual: DecimalPtr(d("10")),
			},
			want: []string{"Q2"},
		},
		{
			name: "complete",
			data: QuarterlyData{
				Q1:     DecimalPtr(d("1")),
				Q2:     DecimalPtr(d("2")),
				Q3:     DecimalPtr(d("3")),
				Annual: DecimalPtr(d("10")),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.data.MissingFields()
			if len(got) != len(tt.want) {
				t.Fatalf("MissingFields() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MissingFields()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}

			_, err := tt.data.CalculateQ4()
			if (err != nil) != (len(tt.want) > 0) {
				t.Errorf("CalculateQ4() error = %v, missing = %v", err, tt.want)
			}
		})
	}
}

func TestCalculateQ4SubstitutingZero(t *testing.T) {
	data := QuarterlyData{
		Q1:     DecimalPtr(d("100")),
		Q3:     DecimalPtr(d("140")),
		Annual: DecimalPtr(d("500")),
	}

	q4, err := data.CalculateQ4SubstitutingZero()
	if err != nil {
		t.Fatalf("CalculateQ4SubstitutingZero() error: %v", err)
	}
	if !q4.Equal(d("260")) {
		t.Errorf("CalculateQ4SubstitutingZero() = %s, want 260", q4)
	}

	// The annual value is never substitutable
	noAnnual := QuarterlyData{Q1: DecimalPtr(d("1"))}
	if _, err := noAnnual.CalculateQ4SubstitutingZero(); err == nil {
		t.Error("CalculateQ4SubstitutingZero() without annual expected error")
	}
}

func TestSetQuarter(t *testing.T) {
	var data QuarterlyData
	data.SetQuarter(1, d("10"))
	data.SetQuarter(2, d("20"))
	data.SetQuarter(3, d("30"))
	data.SetQuarter(4, d("40")) // ignored
	data.SetQuarter(0, d("99")) // ignored

	if !data.HasCompleteQuarters() {
		t.Fatal("HasCompleteQuarters() = false after setting Q1-Q3")
	}
	if data.Annual != nil {
		t.Error("SetQuarter must never touch the annual value")
	}
	if !data.Q2.Equal(d("20")) {
		t.Errorf("Q2 = %s, want 20", data.Q2)
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"1234.56", "1234.56", false},
		{"$1,234.56", "1234.56", false},
		{"-42", "-42", false},
		{" 100 ", "100", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimalFromString(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalFromString(%q) error: %v", tt.input, err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareWithTolerance(t *testing.T) {
	if !CompareWithTolerance(d("100.00"), d("100.009"), d("0.01")) {
		t.Error("values within one cent should compare equal")
	}
	if CompareWithTolerance(d("100.00"), d("100.02"), d("0.01")) {
		t.Error("values two cents apart should not compare equal")
	}
}

func TestFactJSONValueAsString(t *testing.T) {
	fact := Fact{
		ID:            "f1",
		ConceptID:     "c1",
		CompanyID:     "0000320193",
		StatementType: StatementIncome,
		FiscalYear:    2023,
		Quarter:       4,
		Value:         d("117154000000.25"),
		IsCalculated:  true,
		Source:        SourceMetadata{Note: NoteComputedQ4},
	}

	encoded, err := json.Marshal(&fact)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(encoded), `"value":"117154000000.25"`) {
		t.Errorf("value not encoded as string: %s", encoded)
	}

	var decoded Fact
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !decoded.Value.Equal(fact.Value) {
		t.Errorf("value did not round-trip: %s != %s", decoded.Value, fact.Value)
	}
	if decoded.Source.Note != NoteComputedQ4 {
		t.Errorf("provenance note did not round-trip: %q", decoded.Source.Note)
	}
}

func TestFactValidate(t *testing.T) {
	valid := Fact{
		ConceptID:     "c1",
		CompanyID:     "cik",
		StatementType: StatementCashFlows,
		FiscalYear:    2023,
		Quarter:       2,
		Value:         d("5"),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid fact: %v", err)
	}

	annual := valid
	annual.Quarter = AnnualPeriod
	if err := annual.Validate(); err != nil {
		t.Errorf("Validate() on annual fact: %v", err)
	}
	if !annual.IsAnnual() {
		t.Error("IsAnnual() = false for quarter 0")
	}

	bad := valid
	bad.Quarter = 5
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted quarter 5")
	}
}
