// Package reporter renders batch run summaries for terminal display or
// programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable output for terminal display
//   - JSON: structured data for pipelines
//
// Skipped units are reported separately from failures: a skip means the
// work was already done (an existing Q4 fact, an already-corrected value)
// and a rerun is expected to produce many of them.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang-imputation-service/internal/corrector"
	"golang-imputation-service/internal/derived"
	"golang-imputation-service/internal/imputation"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// Reporter renders summaries in one configured format
type Reporter struct {
	format OutputFormat
}

// NewReporter creates a reporter for the given format
func NewReporter(format OutputFormat) (*Reporter, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Reporter{format: format}, nil
}

type jsonEnvelope struct {
	Operation   string      `json:"operation"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Summary     interface{} `json:"summary"`
}

// ReportImputation renders an imputation run summary
func (r *Reporter) ReportImputation(summary *imputation.Summary, writer io.Writer) error {
	if r.format == FormatJSON {
		return writeJSON("impute", summary, writer)
	}

	fmt.Fprintf(writer, "Q4 IMPUTATION SUMMARY\n")
	fmt.Fprintf(writer, "Processed: %d\n", summary.Processed)
	fmt.Fprintf(writer, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(writer, "Skipped (already present): %d\n", summary.Skipped)
	fmt.Fprintf(writer, "Failed:    %d\n", summary.Failed)
	printErrors(summary.Errors, writer)
	return nil
}

// ReportCorrection renders a cash-flow correction run summary
func (r *Reporter) ReportCorrection(summary *corrector.Summary, writer io.Writer) error {
	if r.format == FormatJSON {
		return writeJSON("correct", summary, writer)
	}

	fmt.Fprintf(writer, "CASH FLOW CORRECTION SUMMARY\n")
	fmt.Fprintf(writer, "Q2 corrected: %d\n", summary.Q2Fixed)
	fmt.Fprintf(writer, "Q3 corrected: %d\n", summary.Q3Fixed)
	fmt.Fprintf(writer, "Skipped (already corrected or missing predecessor): %d\n", summary.Skipped)
	printErrors(summary.Errors, writer)
	return nil
}

// ReportSynthesis renders a derived-concept synthesis run summary
func (r *Reporter) ReportSynthesis(summary *derived.Summary, writer io.Writer) error {
	if r.format == FormatJSON {
		return writeJSON("derive", summary, writer)
	}

	fmt.Fprintf(writer, "DERIVED CONCEPT SUMMARY\n")
	fmt.Fprintf(writer, "Created:  %d\n", summary.Created)
	fmt.Fprintf(writer, "Replaced: %d\n", summary.Replaced)
	fmt.Fprintf(writer, "Skipped (inputs absent or value present): %d\n", summary.Skipped)
	printErrors(summary.Errors, writer)
	return nil
}

// ReportReset renders the result of a bulk Q4 delete
func (r *Reporter) ReportReset(deleted int64, writer io.Writer) error {
	if r.format == FormatJSON {
		return writeJSON("reset", map[string]int64{"deleted": deleted}, writer)
	}

	fmt.Fprintf(writer, "Q4 RESET\n")
	fmt.Fprintf(writer, "Deleted calculated Q4 facts: %d\n", deleted)
	return nil
}

func writeJSON(operation string, summary interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonEnvelope{
		Operation:   operation,
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
	})
}

func printErrors(errors []string, writer io.Writer) {
	if len(errors) == 0 {
		return
	}
	fmt.Fprintf(writer, "\nERRORS (%d):\n", len(errors))
	for _, msg := range errors {
		fmt.Fprintf(writer, "  - %s\n", msg)
	}
}
