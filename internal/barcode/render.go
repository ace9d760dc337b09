package barcode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"runtime"
	"sync"

	bb "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/muurk/labelgen/internal/logging"
)

// Options controls the raster produced for one symbol. Lengths are in
// millimetres and converted to pixels at DPI.
type Options struct {
	DPI            int
	ModuleWidthMM  float64
	ModuleHeightMM float64
	QuietZoneMM    float64
	FontSizePt     float64
	TextDistanceMM float64
	ShowText       bool
}

// DefaultOptions returns the stock print settings.
func DefaultOptions() Options {
	return Options{
		DPI:            300,
		ModuleWidthMM:  0.2,
		ModuleHeightMM: 15,
		QuietZoneMM:    6.5,
		FontSizePt:     10,
		TextDistanceMM: 5,
		ShowText:       true,
	}
}

// Validate checks every option against its accepted range.
func (o Options) Validate() []error {
	var errs []error
	if o.DPI < 100 || o.DPI > 600 {
		errs = append(errs, fmt.Errorf("dpi must be 100-600, got %d", o.DPI))
	}
	if o.ModuleWidthMM < 0.05 || o.ModuleWidthMM > 1 {
		errs = append(errs, fmt.Errorf("module width must be 0.05-1 mm, got %g", o.ModuleWidthMM))
	}
	if o.ModuleHeightMM < 1 || o.ModuleHeightMM > 50 {
		errs = append(errs, fmt.Errorf("module height must be 1-50 mm, got %g", o.ModuleHeightMM))
	}
	if o.QuietZoneMM < 0 || o.QuietZoneMM > 20 {
		errs = append(errs, fmt.Errorf("quiet zone must be 0-20 mm, got %g", o.QuietZoneMM))
	}
	if o.FontSizePt < 0 || o.FontSizePt > 32 {
		errs = append(errs, fmt.Errorf("font size must be 0-32 pt, got %g", o.FontSizePt))
	}
	if o.TextDistanceMM < 0 || o.TextDistanceMM > 20 {
		errs = append(errs, fmt.Errorf("text distance must be 0-20 mm, got %g", o.TextDistanceMM))
	}
	return errs
}

func (o Options) px(mm float64) int {
	return int(math.Round(mm / 25.4 * float64(o.DPI)))
}

var (
	fontOnce sync.Once
	fontData *opentype.Font
	fontErr  error
)

func textFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontData, fontErr
}

// Renderer draws Code128 symbols and caches the encoded PNG per code.
// It is safe for concurrent use.
type Renderer struct {
	opts  Options
	log   *zap.Logger
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewRenderer validates opts and returns a renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid barcode options: %w", errs[0])
	}
	return &Renderer{
		opts:  opts,
		log:   logging.Named("barcode"),
		cache: make(map[string][]byte),
	}, nil
}

// Options returns the renderer's settings.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render returns the PNG encoding of code. Identical codes are rendered once.
func (r *Renderer) Render(code string) ([]byte, error) {
	content := Sanitize(code)
	if content == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCode, code)
	}

	r.mu.RLock()
	cached, ok := r.cache[content]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.group.Do(content, func() (interface{}, error) {
		img, err := r.draw(content)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		data := buf.Bytes()

		r.mu.Lock()
		r.cache[content] = data
		r.mu.Unlock()

		r.log.Debug("Barcode rendered",
			zap.String("code", content),
			zap.Int("bytes", len(data)),
		)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// RenderImage draws code without encoding or caching.
func (r *Renderer) RenderImage(code string) (image.Image, error) {
	content := Sanitize(code)
	if content == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCode, code)
	}
	return r.draw(content)
}

// CacheSize returns the number of cached symbols.
func (r *Renderer) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// ClearCache drops every cached symbol.
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string][]byte)
}

// Batch is the outcome of RenderAll. A code is in exactly one of the maps.
type Batch struct {
	Images map[string][]byte
	Failed map[string]error
}

// RenderAll renders every distinct code concurrently. Per-code failures are
// collected in Batch.Failed so callers can fall back to text; only context
// cancellation aborts the batch.
func (r *Renderer) RenderAll(ctx context.Context, codes []string, onDone func(done, total int)) (*Batch, error) {
	unique := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}

	batch := &Batch{
		Images: make(map[string][]byte, len(unique)),
		Failed: make(map[string]error),
	}
	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, code := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.Render(code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failed[code] = err
				r.log.Warn("Barcode render failed", zap.String("code", code), zap.Error(err))
			} else {
				batch.Images[code] = data
			}
			done++
			if onDone != nil {
				onDone(done, len(unique))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *Renderer) draw(content string) (image.Image, error) {
	var sym bb.Barcode
	sym, err := code128.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("code128 encode %q: %w", content, err)
	}

	o := r.opts
	modules := sym.Bounds().Dx()
	moduleW := max(1, o.px(o.ModuleWidthMM))
	quiet := o.px(o.QuietZoneMM)
	barH := max(1, o.px(o.ModuleHeightMM))
	margin := o.px(1)

	width := 2*quiet + modules*moduleW
	height := margin + barH + margin

	var face font.Face
	baseline := 0
	if o.ShowText && o.FontSizePt > 0 {
		f, err := textFont()
		if err != nil {
			return nil, fmt.Errorf("load text font: %w", err)
		}
		face, err = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    o.FontSizePt,
			DPI:     float64(o.DPI),
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("create font face: %w", err)
		}
		defer face.Close()

		m := face.Metrics()
		baseline = margin + barH + max(o.px(o.TextDistanceMM), m.Ascent.Ceil()+1)
		height = baseline + m.Descent.Ceil() + margin
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for i := 0; i < modules; i++ {
		if cr, _, _, _ := sym.At(i, 0).RGBA(); cr >= 0x8000 {
			continue
		}
		x := quiet + i*moduleW
		draw.Draw(img, image.Rect(x, margin, x+moduleW, margin+barH), image.Black, image.Point{}, draw.Src)
	}

	if face != nil {
		d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
		textW := d.MeasureString(content).Ceil()
		d.Dot = fixed.P((width-textW)/2, baseline)
		d.DrawString(content)
	}

	return img, nil
}
