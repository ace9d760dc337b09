package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/ui"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	base := t.TempDir()

	reg := config.NewRegistry()
	reg.Workspace.BaseDir = base
	reg.Workspace.Template = "small.docx"

	spec := labels.DefaultBlankSpec()
	spec.Rows, spec.Cols = 2, 2
	var buf bytes.Buffer
	if err := labels.WriteBlankTemplate(&buf, spec); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(base, "templates"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "templates", "small.docx"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := New(reg, Overrides{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNewCreatesWorkbook(t *testing.T) {
	a := newTestApp(t)

	want := filepath.Join(a.Workspace.DataDir(), "items.xlsx")
	if a.Store.Path() != want {
		t.Errorf("workbook path = %s, want %s", a.Store.Path(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("workbook should be created: %v", err)
	}
	if len(a.Store.Categories()) != len(catalog.DefaultCategories) {
		t.Errorf("expected default categories, got %d", len(a.Store.Categories()))
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    Selection
		wantErr bool
	}{
		{"키링:3", Selection{Category: "키링", ProductID: 3}, false},
		{"2:15:40", Selection{Category: "2", ProductID: 15, Quantity: 40}, false},
		{" a:b:1:2 ", Selection{Category: "a:b", ProductID: 1, Quantity: 2}, false},
		{"nocolon", Selection{}, true},
		{"cat:x", Selection{}, true},
		{"cat:1:many", Selection{}, true},
		{":1", Selection{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSelection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !catalog.IsValidationError(err) {
					t.Errorf("error should be a validation error, got %T", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSelection(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestRequestsAndGenerate(t *testing.T) {
	a := newTestApp(t)
	a.Config.Labels.DefaultQuantity = 3

	cat, err := a.Store.CategoryByID(3)
	if err != nil {
		t.Fatal(err)
	}
	p, err := a.Store.AddProduct(catalog.Product{Name: "곰돌이", Price: "12000", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("AddProduct() error = %v", err)
	}

	reqs, err := a.Requests([]Selection{
		{Category: cat.Name, ProductID: p.ID},
		{Category: "3", ProductID: p.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Requests() error = %v", err)
	}
	if reqs[0].Quantity != 3 || reqs[1].Quantity != 2 {
		t.Errorf("quantities = %d, %d; want 3, 2", reqs[0].Quantity, reqs[1].Quantity)
	}

	if _, err := a.Requests([]Selection{{Category: "nope", ProductID: 1}}); !catalog.IsNotFoundError(err) {
		t.Errorf("unknown category error = %v, want not found", err)
	}

	gen, err := a.Generator("", func(o *labels.Options) { o.Merge = true })
	if err != nil {
		t.Fatalf("Generator() error = %v", err)
	}
	if gen.Template().Capacity != 4 {
		t.Errorf("template capacity = %d, want 4", gen.Template().Capacity)
	}
	result, err := gen.Generate(context.Background(), reqs, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Files) != 1 || filepath.Dir(result.Files[0]) != a.Workspace.OutputDir() {
		t.Errorf("Files = %v, want one file in %s", result.Files, a.Workspace.OutputDir())
	}
	if result.Labels != 5 || result.Pages != 2 {
		t.Errorf("result = %d labels on %d pages, want 5 on 2", result.Labels, result.Pages)
	}
}

func TestAllRequests(t *testing.T) {
	a := newTestApp(t)
	for _, name := range []string{"a", "b"} {
		if _, err := a.Store.AddProduct(catalog.Product{Name: name, Price: "1", CategoryID: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.Store.AddProduct(catalog.Product{Name: "c", Price: "1", CategoryID: 2}); err != nil {
		t.Fatal(err)
	}

	all, err := a.AllRequests("", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("AllRequests() = %d, %v; want 3", len(all), err)
	}
	if all[0].Quantity != 1 {
		t.Errorf("default quantity = %d, want 1", all[0].Quantity)
	}

	one, err := a.AllRequests("1", 5)
	if err != nil || len(one) != 2 {
		t.Fatalf("AllRequests(\"1\") = %d, %v; want 2", len(one), err)
	}
	if one[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", one[0].Quantity)
	}
}

func TestLogDir(t *testing.T) {
	reg := config.NewRegistry()
	if got := LogDir(reg, "/srv/ws"); got != filepath.Join("/srv/ws", "logs") {
		t.Errorf("LogDir() = %s", got)
	}
	reg.Preferences.LogToFile = false
	if got := LogDir(reg, "/srv/ws"); got != "" {
		t.Errorf("LogDir() with file logging off = %q, want empty", got)
	}
}

func TestStepReporter(t *testing.T) {
	type update struct {
		Step    int
		Status  ui.StepStatus
		Message string
	}
	var got []update
	report := StepReporter(func(step int, status ui.StepStatus, msg string) {
		got = append(got, update{step, status, msg})
	})

	report(labels.Event{Stage: labels.StageCodes, Message: "codes"})
	report(labels.Event{Stage: labels.StageBarcodes, Message: "1/2"})
	report(labels.Event{Stage: labels.StageBarcodes, Message: "2/2"})
	report(labels.Event{Stage: labels.StageWrite, Message: "saved"})
	report(labels.Event{Stage: labels.StageDone, Message: "done"})

	want := []update{
		{1, ui.StepRunning, "codes"},
		{1, ui.StepComplete, "codes"},
		{2, ui.StepRunning, "1/2"},
		{2, ui.StepRunning, "2/2"},
		{2, ui.StepComplete, "2/2"},
		{4, ui.StepRunning, "saved"},
		{4, ui.StepComplete, "saved"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}

	if StepFor(labels.StageDone) != 0 || StepFor(labels.StageLayout) != 3 {
		t.Error("StepFor() mapping changed")
	}
	if len(GenerationSteps) != 4 {
		t.Errorf("len(GenerationSteps) = %d, want 4", len(GenerationSteps))
	}
}
