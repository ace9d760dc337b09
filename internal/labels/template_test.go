package labels

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func blankTemplateBytes(t *testing.T, spec BlankSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteBlankTemplate(&buf, spec); err != nil {
		t.Fatalf("WriteBlankTemplate() error = %v", err)
	}
	return buf.Bytes()
}

func parseTestTemplate(t *testing.T, spec BlankSpec) *Template {
	t.Helper()
	data := blankTemplateBytes(t, spec)
	tpl, err := ParseTemplate(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	return tpl
}

// docxWithDocument builds a minimal package around a custom document part.
func docxWithDocument(t *testing.T, document string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		contentTypesPart: blankContentTypes,
		packageRelsPart:  blankPackageRels,
		defaultDocPart:   document,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBlankTemplateRoundTrip(t *testing.T) {
	tpl := parseTestTemplate(t, DefaultBlankSpec())

	if tpl.Rows != 13 || tpl.Cols != 6 {
		t.Errorf("grid = %d×%d, want 13×6", tpl.Rows, tpl.Cols)
	}
	if tpl.Capacity != 78 {
		t.Errorf("Capacity = %d, want 78", tpl.Capacity)
	}
	if tpl.CellWidthMM != 33 {
		t.Errorf("CellWidthMM = %v, want 33", tpl.CellWidthMM)
	}
	if tpl.CellHeightMM != 21.2 {
		t.Errorf("CellHeightMM = %v, want 21.2", tpl.CellHeightMM)
	}
	if tpl.docPart != "word/document.xml" {
		t.Errorf("docPart = %q", tpl.docPart)
	}
}

func TestLoadTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates", "sheet.docx")
	spec := DefaultBlankSpec()
	spec.Rows, spec.Cols = 4, 3

	if err := CreateBlankTemplate(path, spec, false); err != nil {
		t.Fatalf("CreateBlankTemplate() error = %v", err)
	}
	if err := CreateBlankTemplate(path, spec, false); err == nil {
		t.Error("CreateBlankTemplate() should refuse to overwrite without force")
	}
	if err := CreateBlankTemplate(path, spec, true); err != nil {
		t.Errorf("CreateBlankTemplate(force) error = %v", err)
	}

	tpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if tpl.Path != path {
		t.Errorf("Path = %q, want %q", tpl.Path, path)
	}
	if tpl.Capacity != 12 {
		t.Errorf("Capacity = %d, want 12", tpl.Capacity)
	}
	if !strings.Contains(tpl.Summary(), "4×3 grid, 12 labels per page") {
		t.Errorf("Summary() = %q", tpl.Summary())
	}
	if !strings.Contains(tpl.FormatDetailed(), "=== Label Template ===") {
		t.Error("FormatDetailed() missing section header")
	}
}

func TestParseTemplateMergedCells(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>heading</w:t></w:r></w:p>` +
		`<w:tbl><w:tblGrid><w:gridCol w:w="1440"/><w:gridCol w:w="1440"/></w:tblGrid>` +
		`<w:tr><w:tc><w:tcPr><w:gridSpan w:val="2"/></w:tcPr><w:p/></w:tc></w:tr>` +
		`<w:tr><w:trPr><w:trHeight w:val="720"/></w:trPr><w:tc><w:p/></w:tc><w:tc><w:p/></w:tc></w:tr>` +
		`</w:tbl><w:sectPr/></w:body></w:document>`

	data := docxWithDocument(t, document)
	tpl, err := ParseTemplate(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}

	if tpl.Rows != 2 || tpl.Cols != 2 {
		t.Errorf("grid = %d×%d, want 2×2", tpl.Rows, tpl.Cols)
	}
	if tpl.Capacity != 3 {
		t.Errorf("Capacity = %d, want 3 (one merged cell)", tpl.Capacity)
	}
	if tpl.CellWidthMM != 25.4 {
		t.Errorf("CellWidthMM = %v, want 25.4", tpl.CellWidthMM)
	}
	// First row has no height, so the mean of the others is used.
	if tpl.CellHeightMM != 12.7 {
		t.Errorf("CellHeightMM = %v, want 12.7", tpl.CellHeightMM)
	}
	if !strings.Contains(tpl.cells[0].props, "gridSpan") {
		t.Errorf("cell properties not captured: %q", tpl.cells[0].props)
	}
	if !strings.Contains(tpl.FormatDetailed(), "merged") {
		t.Error("FormatDetailed() should mention merged cells")
	}
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantErr  string
	}{
		{
			name:     "no table",
			document: `<w:document xmlns:w="x"><w:body><w:p/></w:body></w:document>`,
			wantErr:  "no table",
		},
		{
			name:     "empty table",
			document: `<w:document xmlns:w="x"><w:body><w:tbl><w:tblPr/></w:tbl></w:body></w:document>`,
			wantErr:  "no rows",
		},
		{
			name:     "no body",
			document: `<w:document xmlns:w="x"></w:document>`,
			wantErr:  "no body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := docxWithDocument(t, tt.document)
			_, err := ParseTemplate(bytes.NewReader(data), int64(len(data)))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseTemplate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseTemplateNotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTemplate(path); err == nil {
		t.Error("LoadTemplate() expected error for non-zip file")
	}
}

func TestBlankSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BlankSpec)
		wantErr bool
	}{
		{"default", func(*BlankSpec) {}, false},
		{"zero rows", func(s *BlankSpec) { s.Rows = 0 }, true},
		{"too wide", func(s *BlankSpec) { s.Cols = 7 }, true},
		{"too tall", func(s *BlankSpec) { s.Rows = 15 }, true},
		{"negative size", func(s *BlankSpec) { s.CellWidthMM = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultBlankSpec()
			tt.mutate(&spec)
			if err := spec.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
