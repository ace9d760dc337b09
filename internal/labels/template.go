package labels

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	twipsPerInch = 1440.0
	mmPerInch    = 25.4
	emuPerMM     = 36000.0
	emuPerInch   = 914400.0
)

// Template is a parsed label template: a .docx whose first body table
// defines the label grid. Every cell of that table is one label slot.
type Template struct {
	Path     string
	Rows     int
	Cols     int
	Capacity int

	// Cell dimensions in millimetres, 0 when the template does not say.
	CellWidthMM  float64
	CellHeightMM float64

	pkg     *docxPackage
	docPart string
	doc     []byte
	table   span
	cells   []templateCell
}

type templateCell struct {
	span
	props string // the cell's <w:tcPr> element, kept verbatim
}

// LoadTemplate reads and parses a template file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	tpl, err := ParseTemplate(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tpl.Path = path
	return tpl, nil
}

// ParseTemplate parses a template from an in-memory .docx.
func ParseTemplate(r io.ReaderAt, size int64) (*Template, error) {
	pkg, err := readPackage(r, size)
	if err != nil {
		return nil, err
	}

	docPart, err := pkg.mainDocumentPart()
	if err != nil {
		return nil, err
	}
	doc, _ := pkg.get(docPart)

	body, ok, err := firstElement(doc, 0, len(doc), "w:body")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("document has no body")
	}

	table, ok, err := firstChild(doc, body, "w:tbl")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("template has no table")
	}

	tpl := &Template{
		pkg:     pkg,
		docPart: docPart,
		doc:     doc,
		table:   table,
	}
	if err := tpl.parseGrid(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (t *Template) parseGrid() error {
	rows, err := children(t.doc, t.table, "w:tr")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("template table has no rows")
	}

	maxCols := 0
	var heights []int
	for _, row := range rows {
		cells, err := children(t.doc, row, "w:tc")
		if err != nil {
			return err
		}
		if len(cells) > maxCols {
			maxCols = len(cells)
		}
		for _, c := range cells {
			tc := templateCell{span: c}
			if props, ok, err := firstChild(t.doc, c, "w:tcPr"); err != nil {
				return err
			} else if ok {
				tc.props = string(t.doc[props.start:props.end])
			}
			t.cells = append(t.cells, tc)
		}
		heights = append(heights, rowHeight(t.doc, row))
	}

	if len(t.cells) == 0 {
		return fmt.Errorf("template table has no cells")
	}

	t.Rows = len(rows)
	t.Capacity = len(t.cells)

	widths := gridWidths(t.doc, t.table)
	t.Cols = len(widths)
	if t.Cols == 0 {
		t.Cols = maxCols
	}
	t.CellWidthMM = twipsToMM(average(widths))

	// The first row's height is what Word shows as the label height; fall
	// back to the mean when it is not fixed.
	if heights[0] > 0 {
		t.CellHeightMM = twipsToMM(float64(heights[0]))
	} else {
		t.CellHeightMM = twipsToMM(average(heights))
	}
	return nil
}

func gridWidths(doc []byte, table span) []int {
	grid, ok, err := firstChild(doc, table, "w:tblGrid")
	if err != nil || !ok {
		return nil
	}
	cols, err := children(doc, grid, "w:gridCol")
	if err != nil {
		return nil
	}
	widths := make([]int, 0, len(cols))
	for _, c := range cols {
		w, _ := c.attrInt("w:w")
		widths = append(widths, w)
	}
	return widths
}

func rowHeight(doc []byte, row span) int {
	props, ok, err := firstChild(doc, row, "w:trPr")
	if err != nil || !ok {
		return 0
	}
	h, ok, err := firstChild(doc, props, "w:trHeight")
	if err != nil || !ok {
		return 0
	}
	v, _ := h.attrInt("w:val")
	return v
}

// average ignores zero entries; it returns 0 if there are none.
func average(values []int) float64 {
	sum, n := 0, 0
	for _, v := range values {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func twipsToMM(twips float64) float64 {
	return math.Round(twips/twipsPerInch*mmPerInch*100) / 100
}

func mmToTwips(mm float64) int {
	return int(math.Round(mm / mmPerInch * twipsPerInch))
}

// Summary returns a one-line description of the template grid.
func (t *Template) Summary() string {
	name := t.Path
	if name == "" {
		name = "(in-memory template)"
	}
	return fmt.Sprintf("%s: %d×%d grid, %d labels per page", name, t.Rows, t.Cols, t.Capacity)
}

// FormatDetailed returns the template details in the sectioned layout used
// by the CLI.
func (t *Template) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Label Template ===\n")
	if t.Path != "" {
		b.WriteString(fmt.Sprintf("File:       %s\n", t.Path))
	}
	b.WriteString(fmt.Sprintf("Grid:       %d rows × %d columns\n", t.Rows, t.Cols))
	b.WriteString(fmt.Sprintf("Capacity:   %d labels per page\n", t.Capacity))
	if t.CellWidthMM > 0 || t.CellHeightMM > 0 {
		b.WriteString(fmt.Sprintf("Label size: %.2f × %.2f mm\n", t.CellWidthMM, t.CellHeightMM))
	} else {
		b.WriteString("Label size: (not specified by template)\n")
	}
	if t.Capacity != t.Rows*t.Cols {
		b.WriteString("Note:       table has merged or irregular cells\n")
	}

	return b.String()
}
