package labels

import (
	"testing"
)

func TestFindElementsNested(t *testing.T) {
	doc := []byte(`<w:body><w:tbl><w:tr><w:tc><w:tbl><w:tr><w:tc/></w:tr></w:tbl></w:tc></w:tr><w:tr w:rsid="2"/></w:tbl><w:p/></w:body>`)

	tbl, ok, err := firstElement(doc, 0, len(doc), "w:tbl")
	if err != nil || !ok {
		t.Fatalf("firstElement() = %v, %v", ok, err)
	}
	if got := string(doc[tbl.start : tbl.start+7]); got != "<w:tbl>" {
		t.Errorf("table starts with %q", got)
	}
	if got := string(doc[tbl.end-8 : tbl.end]); got != "</w:tbl>" {
		t.Errorf("table ends with %q", got)
	}

	rows, err := children(doc, tbl, "w:tr")
	if err != nil {
		t.Fatalf("children() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("children(w:tr) = %d rows, want 2 (nested table rows must not count)", len(rows))
	}
	if rows[0].selfClosing() {
		t.Error("first row should not be self-closing")
	}
	if !rows[1].selfClosing() {
		t.Error("second row should be self-closing")
	}
	if v, ok := rows[1].attr("w:rsid"); !ok || v != "2" {
		t.Errorf("attr(w:rsid) = %q, %v", v, ok)
	}

	cells, err := children(doc, rows[0], "w:tc")
	if err != nil {
		t.Fatalf("children(w:tc) error = %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1", len(cells))
	}
	inner := string(doc[cells[0].innerStart:cells[0].innerEnd])
	if inner != `<w:tbl><w:tr><w:tc/></w:tr></w:tbl>` {
		t.Errorf("cell inner = %q", inner)
	}
}

func TestFindElementsUnclosed(t *testing.T) {
	doc := []byte(`<w:body><w:tbl><w:tr>`)
	if _, err := findElements(doc, 0, len(doc), "w:tbl", anyDepth); err == nil {
		t.Error("expected error for unclosed element")
	}
}

func TestAttrInt(t *testing.T) {
	doc := []byte(`<w:tblGrid><w:gridCol w:w="1871"/><w:gridCol w:w="abc"/></w:tblGrid>`)
	grid, _, _ := firstElement(doc, 0, len(doc), "w:tblGrid")
	cols, err := children(doc, grid, "w:gridCol")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := cols[0].attrInt("w:w"); !ok || v != 1871 {
		t.Errorf("attrInt = %d, %v; want 1871, true", v, ok)
	}
	if _, ok := cols[1].attrInt("w:w"); ok {
		t.Error("non-numeric attribute should not parse")
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText(`A&B <"x">`); got != "A&amp;B &lt;&#34;x&#34;&gt;" {
		t.Errorf("escapeText() = %q", got)
	}
}
