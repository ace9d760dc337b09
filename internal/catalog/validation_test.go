package catalog

import (
	"strings"
	"testing"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name         string
		product      Product
		wantErrors   int
		wantWarnings int
	}{
		{"valid", Product{Name: "곰돌이", Price: "1000", CategoryID: 3}, 0, 0},
		{"valid with explicit ID", Product{Name: "곰돌이", Price: "1000", CategoryID: 3, ID: 12}, 0, 0},
		{"empty name", Product{Name: "", Price: "1000", CategoryID: 3}, 1, 0},
		{"bad price and category", Product{Name: "곰돌이", Price: "x", CategoryID: -1}, 2, 0},
		{"product ID out of range", Product{Name: "곰돌이", Price: "1", CategoryID: 1, ID: 1000000}, 1, 0},
		{"long name warns", Product{Name: strings.Repeat("가", 25), Price: "1000", CategoryID: 1}, 0, 1},
		{"zero price warns", Product{Name: "샘플", Price: "0", CategoryID: 1}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, errs := SeparateWarningsAndErrors(ValidateProduct(tt.product))
			if len(errs) != tt.wantErrors {
				t.Errorf("ValidateProduct() errors = %v, want %d", errs, tt.wantErrors)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("ValidateProduct() warnings = %v, want %d", warnings, tt.wantWarnings)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	if err := ValidateCategoryName("  "); err == nil {
		t.Error("ValidateCategoryName() should reject blank names")
	}
	if err := ValidateCategoryName(strings.Repeat("a", MaxNameLength+1)); err == nil {
		t.Error("ValidateCategoryName() should reject long names")
	}
	if err := ValidateCategoryID(1000); err == nil {
		t.Error("ValidateCategoryID(1000) should fail")
	}
	if err := ValidateCategoryID(0); err != nil {
		t.Errorf("ValidateCategoryID(0) error = %v", err)
	}
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int{1, 78, 999} {
		if err := ValidateQuantity(q); err != nil {
			t.Errorf("ValidateQuantity(%d) error = %v", q, err)
		}
	}
	for _, q := range []int{0, -1, 1000} {
		if err := ValidateQuantity(q); err == nil {
			t.Errorf("ValidateQuantity(%d) should fail", q)
		}
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "No validation errors" {
		t.Errorf("FormatValidationErrors(nil) = %q", got)
	}

	errs := ValidateProduct(Product{Name: "", Price: "x", CategoryID: 1})
	got := FormatValidationErrors(errs)
	if !strings.Contains(got, "2 error(s)") || !strings.Contains(got, "  1. ") {
		t.Errorf("FormatValidationErrors() = %q", got)
	}
}
