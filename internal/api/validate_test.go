package api

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestValidateLabelRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      LabelRequest
		wantErr  bool
		wantText string
	}{
		{
			name: "valid",
			req:  LabelRequest{Items: []LabelItem{{Category: "키링", ID: 1, Quantity: 10}}},
		},
		{
			name: "default quantity",
			req:  LabelRequest{Items: []LabelItem{{Category: "3", ID: 999999}}},
		},
		{
			name:     "no items",
			req:      LabelRequest{},
			wantErr:  true,
			wantText: "items is required",
		},
		{
			name:     "quantity too large",
			req:      LabelRequest{Items: []LabelItem{{Category: "a", ID: 1, Quantity: 1000}}},
			wantErr:  true,
			wantText: "items[0].quantity must be at most 999",
		},
		{
			name:     "missing category",
			req:      LabelRequest{Items: []LabelItem{{ID: 1}}},
			wantErr:  true,
			wantText: "items[0].category is required",
		},
		{
			name:     "product id zero",
			req:      LabelRequest{Items: []LabelItem{{Category: "a", ID: 0}}},
			wantErr:  true,
			wantText: "items[0].id must be at least 1",
		},
		{
			name: "output name",
			req:  LabelRequest{Items: []LabelItem{{Category: "a", ID: 1}}, OutputName: "batch 3.docx", Template: "small.docx"},
		},
		{
			name:     "output name with parent directory",
			req:      LabelRequest{Items: []LabelItem{{Category: "a", ID: 1}}, OutputName: "../../escaped"},
			wantErr:  true,
			wantText: "output_name must be a plain file name",
		},
		{
			name:     "output name with backslash",
			req:      LabelRequest{Items: []LabelItem{{Category: "a", ID: 1}}, OutputName: `sub\escaped`},
			wantErr:  true,
			wantText: "output_name must be a plain file name",
		},
		{
			name:     "absolute template",
			req:      LabelRequest{Items: []LabelItem{{Category: "a", ID: 1}}, Template: "/etc/template.docx"},
			wantErr:  true,
			wantText: "template must be a plain file name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Validate() error = %q, want containing %q", err, tt.wantText)
			}
		})
	}
}

func TestValidateCategoryRequests(t *testing.T) {
	if err := Validate(CreateCategoryRequest{Name: "스티커", ID: intPtr(12)}); err != nil {
		t.Errorf("valid create rejected: %v", err)
	}
	if err := Validate(CreateCategoryRequest{Name: "x", ID: intPtr(1000)}); err == nil {
		t.Error("category ID 1000 should be rejected")
	}
	if err := Validate(CreateCategoryRequest{}); err == nil {
		t.Error("empty name should be rejected")
	}
	empty := ""
	if err := Validate(UpdateCategoryRequest{Name: &empty}); err == nil {
		t.Error("empty rename should be rejected")
	}
}

func TestValidateProductRequests(t *testing.T) {
	if err := Validate(CreateProductRequest{Name: "곰돌이", Price: "12,000", Category: "3"}); err != nil {
		t.Errorf("valid product rejected: %v", err)
	}
	err := Validate(CreateProductRequest{Name: "x", Category: "3", ID: -1})
	if err == nil {
		t.Fatal("missing price and negative ID should be rejected")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Errorf("want 2 field errors, got %v", err)
	}
	if err := Validate(UpdateProductRequest{ID: intPtr(0)}); err == nil {
		t.Error("update to ID 0 should be rejected")
	}
}

func TestJobStatusFinished(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobQueued: false, JobRunning: false, JobDone: true, JobFailed: true,
	} {
		if got := status.Finished(); got != want {
			t.Errorf("%s.Finished() = %v, want %v", status, got, want)
		}
	}
}
