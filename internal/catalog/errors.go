package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeValidation indicates invalid input (empty name, bad price, out of range ID)
	ErrTypeValidation ErrorType = iota
	// ErrTypeNotFound indicates the category or product does not exist
	ErrTypeNotFound
	// ErrTypeConflict indicates a duplicate name or ID
	ErrTypeConflict
	// ErrTypeInUse indicates a category that products still reference
	ErrTypeInUse
	// ErrTypeWorkbook indicates the workbook could not be read or written
	ErrTypeWorkbook
	// ErrTypeParse indicates workbook content that could not be interpreted
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeConflict:
		return "Conflict"
	case ErrTypeInUse:
		return "In Use"
	case ErrTypeWorkbook:
		return "Workbook Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// CatalogError is returned by every Store operation that fails.
type CatalogError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Field   string    // Offending field, if any
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *CatalogError {
	return &CatalogError{Type: ErrTypeValidation, Field: field, Message: message}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *CatalogError {
	return &CatalogError{Type: ErrTypeNotFound, Message: message}
}

// NewConflictError creates a duplicate name or ID error
func NewConflictError(field, message string) *CatalogError {
	return &CatalogError{Type: ErrTypeConflict, Field: field, Message: message}
}

// NewInUseError creates an error for a category still referenced by products
func NewInUseError(message string) *CatalogError {
	return &CatalogError{Type: ErrTypeInUse, Message: message}
}

// NewWorkbookError creates a workbook I/O error
func NewWorkbookError(message string, err error) *CatalogError {
	return &CatalogError{Type: ErrTypeWorkbook, Message: message, Err: err}
}

// NewParseError creates a workbook content error
func NewParseError(message string, err error) *CatalogError {
	return &CatalogError{Type: ErrTypeParse, Message: message, Err: err}
}

func errorType(err error) (ErrorType, bool) {
	var catErr *CatalogError
	if errors.As(err, &catErr) {
		return catErr.Type, true
	}
	return 0, false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeValidation
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeNotFound
}

// IsConflictError checks if an error is a duplicate error
func IsConflictError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeConflict
}

// IsInUseError checks if an error is an in-use error
func IsInUseError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInUse
}

// IsWorkbookError checks if an error is a workbook I/O error
func IsWorkbookError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeWorkbook
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch catErr.Type {
	case ErrTypeValidation:
		return "Check the value of " + orDefault(catErr.Field, "the input") + " and try again."

	case ErrTypeNotFound:
		return strings.Join([]string{
			"The record does not exist in the workbook.",
			"Troubleshooting:",
			"  • List records with: labelgen product list / labelgen category list",
			"  • Names are matched exactly after trimming spaces",
			"  • Reload if the workbook was edited elsewhere",
		}, "\n")

	case ErrTypeConflict:
		return strings.Join([]string{
			"Another record already uses this " + orDefault(catErr.Field, "value") + ".",
			"Troubleshooting:",
			"  • Category names and IDs must be unique",
			"  • A product name may appear once per category",
			"  • Product IDs must be unique within a category",
		}, "\n")

	case ErrTypeInUse:
		return strings.Join([]string{
			"The category still has products.",
			"Troubleshooting:",
			"  • Move or delete its products first",
			"  • Renaming keeps every product attached",
		}, "\n")

	case ErrTypeWorkbook:
		return strings.Join([]string{
			"The workbook could not be read or written.",
			"Troubleshooting:",
			"  • Close the file if it is open in a spreadsheet application",
			"  • Check write permission on the data directory",
			"  • Restore from a backup (labelgen workbook backup creates one)",
		}, "\n")

	case ErrTypeParse:
		return strings.Join([]string{
			"The workbook content is not in the expected layout.",
			"Expected sheets:",
			"  • product: PRODUCT, PRICE, TYPE, PRODUCT_ID",
			"  • type: TYPE, TYPE_ID",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		return err.Error()
	}

	switch catErr.Type {
	case ErrTypeWorkbook:
		return "Workbook unavailable - is it open elsewhere?"
	case ErrTypeParse:
		return "Workbook layout not recognized"
	default:
		return catErr.Message
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
