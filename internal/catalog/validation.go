package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/muurk/labelgen/internal/barcode"
)

const (
	// MaxNameLength bounds product and category names.
	MaxNameLength = 100

	// longNameWarning is where names start to wrap on a standard label cell.
	longNameWarning = 20
)

// ValidateCategoryName checks a category name after trimming.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewValidationError("name", fmt.Sprintf("category name too long (max %d chars)", MaxNameLength))
	}
	return nil
}

// ValidateCategoryID checks that a category ID fits the label code.
func ValidateCategoryID(id int) error {
	if id < 0 || id > barcode.MaxCategoryID {
		return NewValidationError("category_id", fmt.Sprintf("category ID must be 0-%d, got %d", barcode.MaxCategoryID, id))
	}
	return nil
}

// ValidateProductName checks a product name after trimming.
func ValidateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewValidationError("name", fmt.Sprintf("product name too long (max %d chars)", MaxNameLength))
	}
	return nil
}

// ValidateProductID checks an explicit product ID. Zero is reserved for
// "assign the next free ID".
func ValidateProductID(id int) error {
	if id < 1 || id > barcode.MaxProductID {
		return NewValidationError("id", fmt.Sprintf("product ID must be 1-%d, got %d", barcode.MaxProductID, id))
	}
	return nil
}

// ValidatePrice checks that a price parses.
func ValidatePrice(price string) error {
	_, err := ParsePrice(price)
	return err
}

// ValidateQuantity checks a label count for one product.
func ValidateQuantity(qty int) error {
	if qty < 1 || qty > 999 {
		return NewValidationError("quantity", fmt.Sprintf("quantity must be 1-999, got %d", qty))
	}
	return nil
}

// ValidateProduct validates a complete product. ID 0 is accepted and means
// the store assigns one.
// Returns a slice of validation errors (empty if valid).
func ValidateProduct(p Product) []error {
	var errs []error

	if err := ValidateProductName(p.Name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePrice(p.Price); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateCategoryID(p.CategoryID); err != nil {
		errs = append(errs, err)
	}
	if p.ID != 0 {
		if err := ValidateProductID(p.ID); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, CheckLabelFit(p)...)
	return errs
}

// CheckLabelFit returns warnings for values that are valid but print badly.
func CheckLabelFit(p Product) []error {
	var warnings []error

	if n := utf8.RuneCountInString(strings.TrimSpace(p.Name)); n > longNameWarning {
		warnings = append(warnings, NewValidationError("name",
			fmt.Sprintf("warning: name has %d characters and may wrap on the label", n)))
	}
	if v, err := ParsePrice(p.Price); err == nil && v == 0 {
		warnings = append(warnings, NewValidationError("price", "warning: price is 0"))
	}
	return warnings
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}

// IsWarning checks if a validation error is a warning (non-fatal).
// Warnings have messages starting with "warning:".
func IsWarning(err error) bool {
	if catErr, ok := err.(*CatalogError); ok {
		return strings.HasPrefix(catErr.Message, "warning:")
	}
	return strings.Contains(err.Error(), "warning:")
}

// SeparateWarningsAndErrors separates validation errors into warnings and errors.
func SeparateWarningsAndErrors(errors []error) (warnings []error, criticalErrors []error) {
	for _, err := range errors {
		if IsWarning(err) {
			warnings = append(warnings, err)
		} else {
			criticalErrors = append(criticalErrors, err)
		}
	}
	return warnings, criticalErrors
}
