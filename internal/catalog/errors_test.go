package catalog

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		et   ErrorType
		want string
	}{
		{ErrTypeValidation, "Validation Error"},
		{ErrTypeNotFound, "Not Found"},
		{ErrTypeConflict, "Conflict"},
		{ErrTypeInUse, "In Use"},
		{ErrTypeWorkbook, "Workbook Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		if got := tt.et.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.et, got, tt.want)
		}
	}
}

func TestCatalogErrorWrapping(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewWorkbookError("failed to replace workbook", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "caused by: permission denied") {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := fmt.Errorf("save: %w", err)
	if !IsWorkbookError(wrapped) {
		t.Error("IsWorkbookError should see through fmt.Errorf wrapping")
	}
	if IsNotFoundError(wrapped) || IsNotFoundError(cause) {
		t.Error("IsNotFoundError should be false for other errors")
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation names field", NewValidationError("price", "bad"), "Check the value of price"},
		{"conflict", NewConflictError("name", "dup"), "must be unique"},
		{"in use", NewInUseError("busy"), "Move or delete its products"},
		{"workbook", NewWorkbookError("x", nil), "spreadsheet application"},
		{"parse", NewParseError("x", nil), "TYPE_ID"},
		{"plain error", errors.New("boom"), "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetTroubleshootingHint(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("GetTroubleshootingHint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	if got := GetShortErrorMessage(NewNotFoundError("product 3/1 not found")); got != "product 3/1 not found" {
		t.Errorf("GetShortErrorMessage() = %q", got)
	}
	if got := GetShortErrorMessage(NewWorkbookError("x", nil)); !strings.Contains(got, "open elsewhere") {
		t.Errorf("GetShortErrorMessage() = %q", got)
	}
	if got := GetShortErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetShortErrorMessage() = %q", got)
	}
}
