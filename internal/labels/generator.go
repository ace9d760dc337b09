package labels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/barcode"
	"github.com/muurk/labelgen/internal/logging"
)

// ImageRenderer produces barcode PNGs for a set of codes.
type ImageRenderer interface {
	RenderAll(ctx context.Context, codes []string, onDone func(done, total int)) (*barcode.Batch, error)
}

// Options controls output placement and label typography.
type Options struct {
	Merge      bool   // write every page into one document
	OutputDir  string // created if missing
	OutputName string // merged file name; generated from the time when empty
	FillPage   bool   // ignore request quantities and fill one page per product

	FontName       string
	FontSizePt     float64
	ImageWidthIn   float64
	ImageHeightIn  float64
	CurrencySuffix string
}

// DefaultOptions returns the stock label settings.
func DefaultOptions() Options {
	return Options{
		OutputDir:      "output",
		FontName:       "맑은 고딕",
		FontSizePt:     6,
		ImageWidthIn:   1.2,
		ImageHeightIn:  0.6,
		CurrencySuffix: "₩",
	}
}

func (o Options) style() cellStyle {
	return cellStyle{
		FontName:       o.FontName,
		FontSizePt:     o.FontSizePt,
		CurrencySuffix: o.CurrencySuffix,
		ImageCX:        int64(o.ImageWidthIn * emuPerInch),
		ImageCY:        int64(o.ImageHeightIn * emuPerInch),
	}
}

// Stage identifies a step of a generation run.
type Stage int

const (
	StageCodes Stage = iota
	StageBarcodes
	StageLayout
	StageWrite
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCodes:
		return "codes"
	case StageBarcodes:
		return "barcodes"
	case StageLayout:
		return "layout"
	case StageWrite:
		return "write"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event reports progress. Percent runs from 0 to 100 across the whole run.
type Event struct {
	Stage   Stage
	Step    int
	Total   int
	Message string
	Percent float64
}

// ProgressFunc receives events synchronously from Generate.
type ProgressFunc func(Event)

// Result describes a finished run.
type Result struct {
	Files         []string
	Pages         int
	Labels        int
	MissingImages []string
	Duration      time.Duration
}

// Message is the one-line completion notice shown to the user.
func (r *Result) Message() string {
	msg := fmt.Sprintf("Created %d file(s) with %d label(s) on %d page(s)", len(r.Files), r.Labels, r.Pages)
	if len(r.MissingImages) > 0 {
		msg += fmt.Sprintf("; %d code(s) printed as text", len(r.MissingImages))
	}
	return msg
}

// Generator turns label requests into .docx files.
type Generator struct {
	tpl      *Template
	renderer ImageRenderer
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

// NewGenerator creates a generator for one template.
func NewGenerator(tpl *Template, renderer ImageRenderer, opts Options) *Generator {
	return &Generator{
		tpl:      tpl,
		renderer: renderer,
		opts:     opts,
		log:      logging.Named("labels"),
		now:      time.Now,
	}
}

// Template returns the template the generator fills.
func (g *Generator) Template() *Template {
	return g.tpl
}

// Options returns the generator options.
func (g *Generator) Options() Options {
	return g.opts
}

func (g *Generator) adjust(reqs []Request) []Request {
	if !g.opts.FillPage {
		return reqs
	}
	out := make([]Request, len(reqs))
	for i, r := range reqs {
		r.Quantity = min(g.tpl.Capacity, 999)
		out[i] = r
	}
	return out
}

// Plan expands and paginates requests without rendering anything.
func (g *Generator) Plan(reqs []Request) ([]Page, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no products selected")
	}
	items, err := Expand(g.adjust(reqs))
	if err != nil {
		return nil, err
	}
	return Paginate(items, g.tpl.Capacity)
}

// checkOutputName rejects merged file names that would leave OutputDir.
func checkOutputName(name string) error {
	if name == "" {
		return nil
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\:`) || filepath.Base(name) != name {
		return fmt.Errorf("output name %q must be a plain file name", name)
	}
	return nil
}

// Generate renders barcodes, lays out pages and writes the output files.
// progress may be nil.
func (g *Generator) Generate(ctx context.Context, reqs []Request, progress ProgressFunc) (*Result, error) {
	started := g.now()
	emit := func(e Event) {
		if progress != nil {
			progress(e)
		}
	}

	if err := checkOutputName(g.opts.OutputName); err != nil {
		return nil, err
	}

	emit(Event{Stage: StageCodes, Message: "Building barcode numbers", Percent: 5})
	pages, err := g.Plan(reqs)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	codes := Codes(items)
	emit(Event{Stage: StageCodes, Step: len(codes), Total: len(codes),
		Message: fmt.Sprintf("%d label(s), %d distinct code(s)", len(items), len(codes)), Percent: 10})

	batch, err := g.renderer.RenderAll(ctx, codes, func(done, total int) {
		emit(Event{
			Stage:   StageBarcodes,
			Step:    done,
			Total:   total,
			Message: fmt.Sprintf("Rendered barcode %d/%d", done, total),
			Percent: 10 + 50*float64(done)/float64(total),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("render barcodes: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	emit(Event{Stage: StageLayout, Step: len(pages), Total: len(pages),
		Message: fmt.Sprintf("Laying out %d page(s)", len(pages)), Percent: 65})

	if err := os.MkdirAll(g.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{Pages: len(pages), Labels: len(items)}
	missing := make(map[string]bool)
	style := g.opts.style()

	type output struct {
		name  string
		pages []Page
	}
	var outputs []output
	if g.opts.Merge {
		name := g.opts.OutputName
		if name == "" {
			name = fmt.Sprintf("labels_%s.docx", started.Format("20060102_150405"))
		} else if !strings.EqualFold(filepath.Ext(name), ".docx") {
			name += ".docx"
		}
		outputs = append(outputs, output{name: name, pages: pages})
	} else {
		for i, name := range PageFileNames(pages) {
			outputs = append(outputs, output{name: name, pages: pages[i : i+1]})
		}
	}

	for i, out := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b := newDocumentBuilder(g.tpl, style, batch.Images)
		for _, p := range out.pages {
			if err := b.addPage(p); err != nil {
				return nil, err
			}
		}
		data, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", out.name, err)
		}

		path := filepath.Join(g.opts.OutputDir, out.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.name, err)
		}
		result.Files = append(result.Files, path)
		for _, c := range b.missingCodes() {
			missing[c] = true
		}

		g.log.Debug("Wrote label document",
			zap.String("file", path),
			zap.Int("pages", len(out.pages)),
			zap.Int("bytes", len(data)))

		emit(Event{
			Stage:   StageWrite,
			Step:    i + 1,
			Total:   len(outputs),
			Message: fmt.Sprintf("Saved %s", out.name),
			Percent: 65 + 30*float64(i+1)/float64(len(outputs)),
		})
	}

	for c := range missing {
		result.MissingImages = append(result.MissingImages, c)
	}
	sort.Strings(result.MissingImages)
	result.Duration = g.now().Sub(started)

	g.log.Info("Label generation complete",
		zap.Int("files", len(result.Files)),
		zap.Int("pages", result.Pages),
		zap.Int("labels", result.Labels),
		zap.Duration("duration", result.Duration))

	emit(Event{Stage: StageDone, Step: 1, Total: 1, Message: result.Message(), Percent: 100})
	return result, nil
}
