package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryCatalog       ErrorCategory = "catalog"
	CategoryStorage       ErrorCategory = "storage"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryCalculation   ErrorCategory = "calculation"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Catalog errors
	CodeConceptNotFound ErrorCode = "concept_not_found"
	CodeAmbiguousMatch  ErrorCode = "ambiguous_match"
	CodeCompanyNotFound ErrorCode = "company_not_found"

	// Storage errors
	CodeQueryFailed     ErrorCode = "query_failed"
	CodeInsertFailed    ErrorCode = "insert_failed"
	CodeUpdateFailed    ErrorCode = "update_failed"
	CodeConnectionError ErrorCode = "connection_error"
	CodeMigrationError  ErrorCode = "migration_error"

	// Validation errors
	CodeInvalidValue     ErrorCode = "invalid_value"
	CodeInvalidStatement ErrorCode = "invalid_statement"
	CodeInvalidQuarter   ErrorCode = "invalid_quarter"
	CodeMissingField     ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Calculation errors
	CodeMissingValues            ErrorCode = "missing_values"
	CodeMissingAnnualForSnapshot ErrorCode = "missing_annual_for_snapshot"
	CodeProcessingError          ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ImputerError is the base error type for all application errors
type ImputerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ImputerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ImputerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ImputerError) GetExitCode() int {
	switch e.Category {
	case CategoryCatalog:
		return 2
	case CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryCalculation, CategoryInternal:
		return 5
	case CategoryStorage:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ImputerError) WithContext(key string, value interface{}) *ImputerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ImputerError) WithSuggestion(suggestion string) *ImputerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ImputerError
func New(category ErrorCategory, code ErrorCode, message string) *ImputerError {
	return &ImputerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ImputerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ImputerError {
	if err == nil {
		return nil
	}

	return &ImputerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// ConceptNotFoundError reports a concept absent from a catalog
func ConceptNotFoundError(qualifiedName, path, companyID string) *ImputerError {
	return New(CategoryCatalog, CodeConceptNotFound,
		fmt.Sprintf("concept %s (path %s) not found for company %s", qualifiedName, path, companyID)).
		WithSuggestion("verify the concept exists in the quarterly catalog for this company").
		WithContext("qualified_name", qualifiedName).
		WithContext("path", path).
		WithContext("company_id", companyID)
}

// StorageError creates a storage-related error
func StorageError(code ErrorCode, operation string, err error) *ImputerError {
	var message string
	var suggestion string

	switch code {
	case CodeQueryFailed:
		message = fmt.Sprintf("query failed during %s", operation)
		suggestion = "check database connectivity and schema"
	case CodeInsertFailed:
		message = fmt.Sprintf("insert failed during %s", operation)
		suggestion = "check for constraint violations and retry"
	case CodeUpdateFailed:
		message = fmt.Sprintf("update failed during %s", operation)
		suggestion = "verify the target row still exists"
	case CodeConnectionError:
		message = fmt.Sprintf("connection failed during %s", operation)
		suggestion = "check DATABASE_URL and database availability"
	case CodeMigrationError:
		message = fmt.Sprintf("migration failed during %s", operation)
		suggestion = "inspect the goose migration output"
	default:
		message = fmt.Sprintf("storage error during %s", operation)
		suggestion = "check the database and try again"
	}

	var result *ImputerError
	if err != nil {
		result = Wrap(err, CategoryStorage, code, message)
	} else {
		result = New(CategoryStorage, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ImputerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidValue:
		message = fmt.Sprintf("invalid value in field '%s': %v", field, value)
		suggestion = "ensure values are valid decimal numbers"
	case CodeInvalidStatement:
		message = fmt.Sprintf("invalid statement type in field '%s': %v", field, value)
		suggestion = "use income_statement, cash_flows or balance_sheet"
	case CodeInvalidQuarter:
		message = fmt.Sprintf("invalid quarter in field '%s': %v", field, value)
		suggestion = "quarters are 1-4; annual facts carry no quarter"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ImputerError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ImputerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting via flag, config file or IMPUTER_* environment variable"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ImputerError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// CalculationError creates a calculation-related error
func CalculationError(code ErrorCode, operation string, err error) *ImputerError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingValues:
		message = fmt.Sprintf("missing input values during %s", operation)
		suggestion = "the period cannot be calculated until the missing filings are ingested"
	case CodeMissingAnnualForSnapshot:
		message = fmt.Sprintf("point-in-time concept has no annual value during %s", operation)
		suggestion = "ingest the annual filing before imputing this concept"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "review the data for this concept and fiscal year"
	default:
		message = fmt.Sprintf("calculation error during %s", operation)
		suggestion = "review the inputs and configuration"
	}

	var result *ImputerError
	if err != nil {
		result = Wrap(err, CategoryCalculation, code, message)
	} else {
		result = New(CategoryCalculation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ImputerError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *ImputerError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*ImputerError       `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ImputerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// Utility functions

// IsImputerError checks if an error is an ImputerError
func IsImputerError(err error) bool {
	_, ok := err.(*ImputerError)
	return ok
}

// AsImputerError extracts an ImputerError from an error chain
func AsImputerError(err error) (*ImputerError, bool) {
	var imputerErr *ImputerError
	if errors.As(err, &imputerErr) {
		return imputerErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an ImputerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ImputerError {
	if err == nil {
		return nil
	}

	if imputerErr, ok := AsImputerError(err); ok {
		return imputerErr
	}

	return Wrap(err, category, code, message)
}
