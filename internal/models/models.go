package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatementType represents the financial statement a concept belongs to
type StatementType string

const (
	// StatementIncome represents the income statement
	StatementIncome StatementType = "income_statement"
	// StatementCashFlows represents the statement of cash flows
	StatementCashFlows StatementType = "cash_flows"
	// StatementBalanceSheet represents the balance sheet
	StatementBalanceSheet StatementType = "balance_sheet"
)

// String returns the string representation of StatementType
func (s StatementType) String() string {
	return string(s)
}

// IsValid checks if the statement type is one of the known statements
func (s StatementType) IsValid() bool {
	switch s {
	case StatementIncome, StatementCashFlows, StatementBalanceSheet:
		return true
	default:
		return false
	}
}

// ParseStatementType parses and validates a statement type from string
func ParseStatementType(s string) (StatementType, error) {
	st := StatementType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid statement type '%s': must be one of income_statement, cash_flows, balance_sheet", s)
	}
	return st, nil
}

// Quarter constants. AnnualPeriod marks a fact that belongs to the annual
// fact space rather than any discrete quarter.
const (
	AnnualPeriod = 0
	QuarterFirst = 1
	QuarterLast  = 4
)

// Concept represents a line-item definition within one company's statement.
// Quarterly-filed and annual-filed concepts live in independent catalogs;
// the same qualified name may appear in both with different paths or labels.
type Concept struct {
	ID              string        `json:"id"`
	CompanyID       string        `json:"companyId"`
	StatementType   StatementType `json:"statementType"`
	QualifiedName   string        `json:"qualifiedName"`
	Label           string        `json:"label"`
	Path            string        `json:"path"`
	IsAbstract      bool          `json:"isAbstract"`
	IsDimensional   bool          `json:"isDimensional"`
	DimensionMember string        `json:"dimensionMember,omitempty"`
	ParentID        string        `json:"parentId,omitempty"`
	IsCalculated    bool          `json:"isCalculated"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Validate performs basic validation on the Concept
func (c *Concept) Validate() error {
	if strings.TrimSpace(c.CompanyID) == "" {
		return fmt.Errorf("concept company ID cannot be empty")
	}
	if strings.TrimSpace(c.QualifiedName) == "" {
		return fmt.Errorf("concept qualified name cannot be empty")
	}
	if !c.StatementType.IsValid() {
		return fmt.Errorf("invalid statement type: %s", c.StatementType)
	}
	if c.IsDimensional && strings.TrimSpace(c.DimensionMember) == "" {
		return fmt.Errorf("dimensional concept %s must carry a dimension member", c.QualifiedName)
	}
	return nil
}

// String returns a string representation of the Concept
func (c *Concept) String() string {
	return fmt.Sprintf("Concept{Name: %s, Path: %s, Statement: %s, Member: %s}",
		c.QualifiedName, c.Path, c.StatementType, c.DimensionMember)
}

// PathSegments returns the dot-separated path split into ordered segments
func (c *Concept) PathSegments() []string {
	if c.Path == "" {
		return nil
	}
	return strings.Split(c.Path, ".")
}

// PathPrefix returns the first n path segments rejoined, or the full path
// when it has fewer segments
func (c *Concept) PathPrefix(n int) string {
	segments := c.PathSegments()
	if len(segments) <= n {
		return c.Path
	}
	return strings.Join(segments[:n], ".")
}

// RootSegment returns the first path segment, the position of the concept's
// topmost ancestor in the statement hierarchy
func (c *Concept) RootSegment() string {
	segments := c.PathSegments()
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// SourceMetadata carries filing-derived period descriptors. The algorithms
// treat it as opaque; it exists so calculated facts can be persisted with
// plausible provenance copied from the source filing.
type SourceMetadata struct {
	StartDate       time.Time `json:"startDate,omitempty"`
	EndDate         time.Time `json:"endDate,omitempty"`
	FormType        string    `json:"formType,omitempty"`
	AccessionNumber string    `json:"accessionNumber,omitempty"`
	DataSource      string    `json:"dataSource,omitempty"`
	Note            string    `json:"note,omitempty"`
}

// Provenance notes persisted with calculated Q4 facts. Operators rely on
// the distinction between a computed and a copied value.
const (
	NoteComputedQ4 = "Q4 computed as Annual - (Q1+Q2+Q3)"
	NoteCopiedQ4   = "Q4 copied from annual value (point-in-time concept)"

	DataSourceCalculated = "calculated"
)

// Fact represents one observed or derived numeric value for a concept.
// Quarter is 1-4 for quarterly facts and AnnualPeriod (0) for annual facts.
type Fact struct {
	ID            string          `json:"id"`
	ConceptID     string          `json:"conceptId"`
	CompanyID     string          `json:"companyId"`
	StatementType StatementType   `json:"statementType"`
	FiscalYear    int             `json:"fiscalYear"`
	Quarter       int             `json:"quarter"`
	Value         decimal.Decimal `json:"value"`
	IsCalculated  bool            `json:"isCalculated"`
	IsCorrected   bool            `json:"isCorrected"`
	Source        SourceMetadata  `json:"source"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IsAnnual returns true when the fact lives in the annual fact space
func (f *Fact) IsAnnual() bool {
	return f.Quarter == AnnualPeriod
}

// Validate performs basic validation on the Fact
func (f *Fact) Validate() error {
	if strings.TrimSpace(f.ConceptID) == "" {
		return fmt.Errorf("fact concept ID cannot be empty")
	}
	if strings.TrimSpace(f.CompanyID) == "" {
		return fmt.Errorf("fact company ID cannot be empty")
	}
	if !f.StatementType.IsValid() {
		return fmt.Errorf("invalid statement type: %s", f.StatementType)
	}
	if f.FiscalYear < 1900 || f.FiscalYear > 2200 {
		return fmt.Errorf("implausible fiscal year: %d", f.FiscalYear)
	}
	if f.Quarter < AnnualPeriod || f.Quarter > QuarterLast {
		return fmt.Errorf("invalid quarter %d: must be 0 (annual) or 1-4", f.Quarter)
	}
	return nil
}

// String returns a string representation of the Fact
func (f *Fact) String() string {
	period := "Annual"
	if !f.IsAnnual() {
		period = fmt.Sprintf("Q%d", f.Quarter)
	}
	return fmt.Sprintf("Fact{Concept: %s, FY%d %s, Value: %s, Calculated: %t}",
		f.ConceptID, f.FiscalYear, period, f.Value.String(), f.IsCalculated)
}

// MarshalJSON implements custom JSON marshaling for Fact
func (f *Fact) MarshalJSON() ([]byte, error) {
	type Alias Fact
	return json.Marshal(&struct {
		Value string `json:"value"`
		*Alias
	}{
		Value: f.Value.String(),
		Alias: (*Alias)(f),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Fact
func (f *Fact) UnmarshalJSON(data []byte) error {
	type Alias Fact
	aux := &struct {
		Value string `json:"value"`
		*Alias
	}{
		Alias: (*Alias)(f),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	f.Value, err = decimal.NewFromString(aux.Value)
	if err != nil {
		return fmt.Errorf("invalid value format: %w", err)
	}

	return nil
}

// QuarterlyData gathers the values required to impute Q4 for one concept
// and fiscal year. Nil pointers mean the value is absent from the store;
// absence is meaningful and must never be conflated with zero.
type QuarterlyData struct {
	ConceptID  string
	CompanyID  string
	FiscalYear int
	Q1         *decimal.Decimal
	Q2         *decimal.Decimal
	Q3         *decimal.Decimal
	Annual     *decimal.Decimal
}

// HasCompleteQuarters checks if Q1, Q2 and Q3 values are all present
func (q *QuarterlyData) HasCompleteQuarters() bool {
	return q.Q1 != nil && q.Q2 != nil && q.Q3 != nil
}

// HasAnnual checks if the annual value is present
func (q *QuarterlyData) HasAnnual() bool {
	return q.Annual != nil
}

// CanCalculateQ4 checks if all four inputs are present
func (q *QuarterlyData) CanCalculateQ4() bool {
	return q.HasCompleteQuarters() && q.HasAnnual()
}

// MissingFields lists which of Q1, Q2, Q3, Annual are absent, in that order
func (q *QuarterlyData) MissingFields() []string {
	var missing []string
	if q.Q1 == nil {
		missing = append(missing, "Q1")
	}
	if q.Q2 == nil {
		missing = append(missing, "Q2")
	}
	if q.Q3 == nil {
		missing = append(missing, "Q3")
	}
	if q.Annual == nil {
		missing = append(missing, "Annual")
	}
	return missing
}

// SetQuarter assigns a quarterly value by quarter number; quarters outside
// 1-3 are ignored because only the first three feed the imputation
func (q *QuarterlyData) SetQuarter(quarter int, value decimal.Decimal) {
	switch quarter {
	case 1:
		q.Q1 = &value
	case 2:
		q.Q2 = &value
	case 3:
		q.Q3 = &value
	}
}

// CalculateQ4 computes Annual - (Q1 + Q2 + Q3). The subtraction is exact
// decimal arithmetic; no rounding is applied.
func (q *QuarterlyData) CalculateQ4() (decimal.Decimal, error) {
	if !q.CanCalculateQ4() {
		return decimal.Zero, fmt.Errorf("cannot calculate Q4: missing %s", strings.Join(q.MissingFields(), ", "))
	}
	return q.Annual.Sub(q.Q1.Add(*q.Q2).Add(*q.Q3)), nil
}

// CalculateQ4SubstitutingZero computes Q4 treating absent quarters as zero.
// The annual value is still required. This replicates a historical behavior
// and is only reachable behind an explicit opt-in; the strict CalculateQ4
// is the default policy.
func (q *QuarterlyData) CalculateQ4SubstitutingZero() (decimal.Decimal, error) {
	if !q.HasAnnual() {
		return decimal.Zero, fmt.Errorf("cannot calculate Q4: missing Annual")
	}
	sum := decimal.Zero
	for _, v := range []*decimal.Decimal{q.Q1, q.Q2, q.Q3} {
		if v != nil {
			sum = sum.Add(*v)
		}
	}
	return q.Annual.Sub(sum), nil
}

// Utility functions shared by the stores and fixtures

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("value string cannot be empty")
	}

	// Remove currency symbols and thousand separators seen in exports
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// DecimalPtr returns a pointer to a copy of d
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// CompareWithTolerance compares two decimal amounts within a tolerance.
// Verification tooling uses a one-cent tolerance; the imputation itself
// performs exact subtraction and never calls this.
func CompareWithTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
