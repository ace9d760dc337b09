package labels

import (
	"bytes"
	"fmt"
	"strings"
)

// documentBuilder fills copies of a template's table and assembles them
// into one output package.
type documentBuilder struct {
	tpl    *Template
	pkg    *docxPackage
	style  cellStyle
	images map[string][]byte // code -> PNG

	relIDs  map[string]string // code -> relationship ID in pkg
	nextID  int               // next wp:docPr id
	tables  []string
	missing map[string]bool
}

func newDocumentBuilder(tpl *Template, style cellStyle, images map[string][]byte) *documentBuilder {
	return &documentBuilder{
		tpl:     tpl,
		pkg:     tpl.pkg.clone(),
		style:   style.fitImage(tpl.CellWidthMM),
		images:  images,
		relIDs:  make(map[string]string),
		nextID:  1000,
		missing: make(map[string]bool),
	}
}

// addPage renders one filled table. Items beyond the template capacity are
// an error; Paginate never produces them.
func (b *documentBuilder) addPage(page Page) error {
	if len(page.Items) > b.tpl.Capacity {
		return fmt.Errorf("page %d has %d labels, template holds %d", page.Index, len(page.Items), b.tpl.Capacity)
	}

	doc := b.tpl.doc
	var out strings.Builder
	prev := b.tpl.table.start

	for i, cell := range b.tpl.cells {
		out.Write(doc[prev:cell.start])

		content := ""
		if i < len(page.Items) {
			c, err := b.cellContent(page.Items[i])
			if err != nil {
				return err
			}
			content = c
		}
		out.WriteString(cellXML(cell, doc, content))
		prev = cell.end
	}
	out.Write(doc[prev:b.tpl.table.end])

	b.tables = append(b.tables, out.String())
	return nil
}

func (b *documentBuilder) cellContent(item Item) (string, error) {
	relID, ok := b.relIDs[item.Code]
	if !ok {
		data, have := b.images[item.Code]
		if !have {
			b.missing[item.Code] = true
			return b.style.fallbackParagraph(item), nil
		}
		id, err := b.pkg.addImage(b.tpl.docPart, imageFileName(item.Code), data)
		if err != nil {
			return "", err
		}
		b.relIDs[item.Code] = id
		relID = id
	}

	b.nextID++
	return b.style.imageParagraph(relID, b.nextID, item.Code) + b.style.textParagraph(item), nil
}

// imageFileName maps a code to a media file name.
func imageFileName(code string) string {
	var sb strings.Builder
	sb.WriteString("barcode_")
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	sb.WriteString(".png")
	return sb.String()
}

// build replaces the template table with every rendered table, separated
// by page breaks, and returns the finished .docx bytes.
func (b *documentBuilder) build() ([]byte, error) {
	if len(b.tables) == 0 {
		return nil, fmt.Errorf("no pages to write")
	}

	doc := b.tpl.doc
	var out bytes.Buffer
	out.Grow(len(doc) + len(b.tables)*(b.tpl.table.end-b.tpl.table.start))
	out.Write(doc[:b.tpl.table.start])
	for i, t := range b.tables {
		if i > 0 {
			out.WriteString(pageBreakParagraph)
		}
		out.WriteString(t)
	}
	out.Write(doc[b.tpl.table.end:])

	b.pkg.set(b.tpl.docPart, out.Bytes())
	return b.pkg.bytes()
}

// missingCodes lists codes that were printed as text because no image was
// available.
func (b *documentBuilder) missingCodes() []string {
	codes := make([]string, 0, len(b.missing))
	for c := range b.missing {
		codes = append(codes, c)
	}
	return codes
}
