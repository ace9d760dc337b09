package labels

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/labelgen/internal/barcode"
)

// stubRenderer returns fixed bytes for every code not listed in fail.
type stubRenderer struct {
	fail map[string]bool
}

func (s stubRenderer) RenderAll(ctx context.Context, codes []string, onDone func(done, total int)) (*barcode.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := &barcode.Batch{Images: map[string][]byte{}, Failed: map[string]error{}}
	for i, c := range codes {
		if s.fail[c] {
			b.Failed[c] = errors.New("render failed")
		} else {
			b.Images[c] = []byte("\x89PNG" + c)
		}
		if onDone != nil {
			onDone(i+1, len(codes))
		}
	}
	return b, nil
}

// readDocx returns every part of a generated file.
func readDocx(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()

	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		parts[f.Name] = string(data)
	}
	return parts
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("document is not well-formed: %v", err)
		}
	}
}

func smallGenerator(t *testing.T, r ImageRenderer, mutate func(*Options)) *Generator {
	t.Helper()
	spec := DefaultBlankSpec()
	spec.Rows, spec.Cols = 2, 3
	tpl := parseTestTemplate(t, spec)

	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "out")
	if mutate != nil {
		mutate(&opts)
	}
	return NewGenerator(tpl, r, opts)
}

func TestGeneratePerPage(t *testing.T) {
	gen := smallGenerator(t, stubRenderer{}, nil)

	reqs := []Request{
		{Product: testProduct(3, 1, "곰돌이", "12000"), Quantity: 8},
		{Product: testProduct(4, 2, "진주 & 별", "1500"), Quantity: 2},
	}

	var events []Event
	result, err := gen.Generate(context.Background(), reqs, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Pages != 3 || result.Labels != 10 {
		t.Errorf("result = %d pages, %d labels; want 3, 10", result.Pages, result.Labels)
	}
	wantFiles := []string{"곰돌이_label.docx", "곰돌이_label_2.docx", "진주  별_label.docx"}
	if len(result.Files) != len(wantFiles) {
		t.Fatalf("got files %v", result.Files)
	}
	for i, f := range result.Files {
		if filepath.Base(f) != wantFiles[i] {
			t.Errorf("file %d = %s, want %s", i, filepath.Base(f), wantFiles[i])
		}
	}

	first := readDocx(t, result.Files[0])
	doc := first["word/document.xml"]
	assertWellFormed(t, doc)
	if n := strings.Count(doc, "<w:drawing>"); n != 6 {
		t.Errorf("first page has %d drawings, want 6", n)
	}
	if _, ok := first["word/media/barcode_PPON-3000001.png"]; !ok {
		t.Error("barcode image missing from media")
	}
	if !strings.Contains(first["word/_rels/document.xml.rels"], "media/barcode_PPON-3000001.png") {
		t.Error("image relationship not registered")
	}
	if !strings.Contains(first["[Content_Types].xml"], `Extension="png"`) {
		t.Error("png content type missing")
	}
	if !strings.Contains(doc, "12,000₩") {
		t.Error("price text missing")
	}

	second := readDocx(t, result.Files[1])["word/document.xml"]
	if n := strings.Count(second, "<w:drawing>"); n != 2 {
		t.Errorf("second page has %d drawings, want 2", n)
	}
	if n := strings.Count(second, "<w:p/>"); n < 4 {
		t.Errorf("second page should keep 4 empty cells, found %d empty paragraphs", n)
	}

	third := readDocx(t, result.Files[2])["word/document.xml"]
	assertWellFormed(t, third)
	if !strings.Contains(third, "진주 &amp; 별") {
		t.Error("product name should be escaped")
	}

	last := events[len(events)-1]
	if last.Stage != StageDone || last.Percent != 100 {
		t.Errorf("last event = %+v, want done at 100%%", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("progress went backwards: %v -> %v", events[i-1].Percent, events[i].Percent)
		}
	}
}

func TestGenerateMerged(t *testing.T) {
	gen := smallGenerator(t, stubRenderer{}, func(o *Options) {
		o.Merge = true
		o.OutputName = "all"
	})

	reqs := []Request{
		{Product: testProduct(1, 1, "A", "100"), Quantity: 7},
		{Product: testProduct(1, 2, "B", "200"), Quantity: 1},
	}
	result, err := gen.Generate(context.Background(), reqs, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.Files) != 1 || filepath.Base(result.Files[0]) != "all.docx" {
		t.Fatalf("Files = %v, want [all.docx]", result.Files)
	}

	parts := readDocx(t, result.Files[0])
	doc := parts["word/document.xml"]
	assertWellFormed(t, doc)

	if n := strings.Count(doc, `<w:br w:type="page"/>`); n != 2 {
		t.Errorf("found %d page breaks, want 2", n)
	}
	if n := strings.Count(doc, "<w:tbl>"); n != 3 {
		t.Errorf("found %d tables, want 3", n)
	}
	if n := strings.Count(parts["word/_rels/document.xml.rels"], imageRelType); n != 2 {
		t.Errorf("found %d image relationships, want 2 (one per code)", n)
	}
	if !strings.Contains(doc, "<w:sectPr>") {
		t.Error("section properties should be preserved after the last table")
	}
}

func TestGenerateMissingImageFallsBackToText(t *testing.T) {
	gen := smallGenerator(t, stubRenderer{fail: map[string]bool{"PPON-2000005": true}}, nil)

	reqs := []Request{{Product: testProduct(2, 5, "C", "300"), Quantity: 1}}
	result, err := gen.Generate(context.Background(), reqs, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(result.MissingImages) != 1 || result.MissingImages[0] != "PPON-2000005" {
		t.Errorf("MissingImages = %v", result.MissingImages)
	}
	if !strings.Contains(result.Message(), "printed as text") {
		t.Errorf("Message() = %q", result.Message())
	}

	doc := readDocx(t, result.Files[0])["word/document.xml"]
	if strings.Contains(doc, "<w:drawing>") {
		t.Error("no drawing expected when the image is missing")
	}
	if !strings.Contains(doc, "PPON-2000005") || !strings.Contains(doc, "<w:br/>") {
		t.Error("fallback should print the code on a second line")
	}
}

func TestGenerateFillPage(t *testing.T) {
	gen := smallGenerator(t, stubRenderer{}, func(o *Options) { o.FillPage = true })

	pages, err := gen.Plan([]Request{{Product: testProduct(1, 1, "A", "1"), Quantity: 1}})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(pages) != 1 || len(pages[0].Items) != 6 {
		t.Errorf("fill-page plan = %d pages, first has %d items; want 1 page of 6", len(pages), len(pages[0].Items))
	}
}

func TestGenerateErrors(t *testing.T) {
	gen := smallGenerator(t, stubRenderer{}, nil)

	if _, err := gen.Generate(context.Background(), nil, nil); err == nil {
		t.Error("Generate() with no requests should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Generate(ctx, []Request{{Product: testProduct(1, 1, "A", "1"), Quantity: 1}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestGenerateRejectsOutputPaths(t *testing.T) {
	for _, name := range []string{"../escaped", "sub/escaped", `sub\escaped`, "..", "/tmp/escaped.docx"} {
		t.Run(name, func(t *testing.T) {
			gen := smallGenerator(t, stubRenderer{}, func(o *Options) {
				o.Merge = true
				o.OutputName = name
			})
			if _, err := gen.Generate(context.Background(), []Request{{Product: testProduct(1, 1, "A", "1"), Quantity: 1}}, nil); err == nil {
				t.Errorf("Generate() with output name %q should fail", name)
			}
			if _, err := os.Stat(filepath.Join(filepath.Dir(gen.opts.OutputDir), "escaped.docx")); err == nil {
				t.Error("a document was written outside the output directory")
			}
		})
	}
}

func TestGenerateWithRealRenderer(t *testing.T) {
	r, err := barcode.NewRenderer(barcode.DefaultOptions())
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	gen := smallGenerator(t, r, nil)

	result, err := gen.Generate(context.Background(), []Request{{Product: testProduct(0, 42, "폰스트랩", "5000"), Quantity: 3}}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	img := readDocx(t, result.Files[0])["word/media/barcode_PPON-0000042.png"]
	if !bytes.HasPrefix([]byte(img), []byte("\x89PNG")) {
		t.Error("embedded image is not a PNG")
	}
}

func TestFitImage(t *testing.T) {
	s := DefaultOptions().style()
	fitted := s.fitImage(20)
	if fitted.ImageCX != int64(18*emuPerMM) {
		t.Errorf("ImageCX = %d, want %d", fitted.ImageCX, int64(18*emuPerMM))
	}
	if fitted.ImageCY >= s.ImageCY {
		t.Error("height should shrink with width")
	}
	if same := s.fitImage(100); same != s {
		t.Error("image that fits should be unchanged")
	}
}
