package labels

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlankSpec describes a plain label sheet: an evenly spaced grid centred
// on the page.
type BlankSpec struct {
	Rows         int
	Cols         int
	CellWidthMM  float64
	CellHeightMM float64
	PageWidthMM  float64
	PageHeightMM float64
}

// DefaultBlankSpec is an A4 sheet of 13 × 6 labels.
func DefaultBlankSpec() BlankSpec {
	return BlankSpec{
		Rows:         13,
		Cols:         6,
		CellWidthMM:  33,
		CellHeightMM: 21.2,
		PageWidthMM:  210,
		PageHeightMM: 297,
	}
}

// Validate checks that the grid is non-empty and fits on the page.
func (s BlankSpec) Validate() error {
	switch {
	case s.Rows < 1 || s.Cols < 1:
		return fmt.Errorf("grid must have at least one row and column, got %d×%d", s.Rows, s.Cols)
	case s.Rows > 100 || s.Cols > 20:
		return fmt.Errorf("grid %d×%d is too large (max 100×20)", s.Rows, s.Cols)
	case s.CellWidthMM <= 0 || s.CellHeightMM <= 0:
		return fmt.Errorf("label size must be positive, got %g×%g mm", s.CellWidthMM, s.CellHeightMM)
	case float64(s.Cols)*s.CellWidthMM > s.PageWidthMM:
		return fmt.Errorf("%d columns of %g mm do not fit a %g mm page", s.Cols, s.CellWidthMM, s.PageWidthMM)
	case float64(s.Rows)*s.CellHeightMM > s.PageHeightMM:
		return fmt.Errorf("%d rows of %g mm do not fit a %g mm page", s.Rows, s.CellHeightMM, s.PageHeightMM)
	}
	return nil
}

// WriteBlankTemplate writes a minimal .docx whose only content is the
// label table described by spec.
func WriteBlankTemplate(w io.Writer, spec BlankSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	parts := []struct{ name, body string }{
		{contentTypesPart, blankContentTypes},
		{packageRelsPart, blankPackageRels},
		{defaultDocPart, blankDocument(spec)},
		{relsPartFor(defaultDocPart), emptyRelationship},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// CreateBlankTemplate writes a blank template to path. Existing files are
// only replaced when force is set.
func CreateBlankTemplate(path string, spec BlankSpec, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	if err := WriteBlankTemplate(f, spec); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

const blankContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Default Extension="png" ContentType="image/png"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const blankPackageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="` + relsNamespace + `">` +
	`<Relationship Id="rId1" Type="` + officeDocRelType + `" Target="word/document.xml"/>` +
	`</Relationships>`

func blankDocument(spec BlankSpec) string {
	cellW := mmToTwips(spec.CellWidthMM)
	cellH := mmToTwips(spec.CellHeightMM)
	marginX := max(0, mmToTwips((spec.PageWidthMM-float64(spec.Cols)*spec.CellWidthMM)/2))
	marginY := max(0, mmToTwips((spec.PageHeightMM-float64(spec.Rows)*spec.CellHeightMM)/2))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="` + nsR + `">`)
	b.WriteString("<w:body><w:tbl>")

	fmt.Fprintf(&b, `<w:tblPr><w:tblW w:w="%d" w:type="dxa"/><w:jc w:val="center"/><w:tblLayout w:type="fixed"/>`, cellW*spec.Cols)
	b.WriteString(`<w:tblCellMar><w:left w:w="0" w:type="dxa"/><w:right w:w="0" w:type="dxa"/></w:tblCellMar>`)
	b.WriteString(`<w:tblLook w:val="0000"/></w:tblPr>`)

	b.WriteString("<w:tblGrid>")
	for c := 0; c < spec.Cols; c++ {
		fmt.Fprintf(&b, `<w:gridCol w:w="%d"/>`, cellW)
	}
	b.WriteString("</w:tblGrid>")

	for r := 0; r < spec.Rows; r++ {
		fmt.Fprintf(&b, `<w:tr><w:trPr><w:cantSplit/><w:trHeight w:val="%d" w:hRule="exact"/></w:trPr>`, cellH)
		for c := 0; c < spec.Cols; c++ {
			fmt.Fprintf(&b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:vAlign w:val="center"/></w:tcPr><w:p/></w:tc>`, cellW)
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")

	// Word requires a paragraph between a table and the section properties;
	// keep it tiny so it never spills onto a new page.
	b.WriteString(`<w:p><w:pPr><w:spacing w:before="0" w:after="0" w:line="14" w:lineRule="exact"/><w:rPr><w:sz w:val="2"/></w:rPr></w:pPr></w:p>`)

	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`, mmToTwips(spec.PageWidthMM), mmToTwips(spec.PageHeightMM))
	fmt.Fprintf(&b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="0" w:footer="0" w:gutter="0"/>`,
		marginY, marginX, marginY, marginX)
	b.WriteString("</w:sectPr></w:body></w:document>")

	return b.String()
}
