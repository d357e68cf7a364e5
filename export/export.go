// Package export captures a rendered frame and saves it as PNG, JPEG or a
// single-page PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/sync/errgroup"

	"github.com/arran4/codeshot"
)

// FilePrefix starts every exported file name.
const FilePrefix = "codeshot"

var ErrExportInFlight = errors.New("an export is already in progress")

// State is the export pipeline state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateEncoding
	StatePackaging
	StateSaved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StatePackaging:
		return "packaging"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Progress is delivered to observers on every transition.
type Progress struct {
	State   State
	Percent int
}

// Request describes one export.
type Request struct {
	Buffer   string
	Config   codeshot.Config
	Findings []codeshot.Finding
	Format   codeshot.Format
	// Dir is the destination directory; empty means the working directory.
	Dir string
}

// Result describes a saved file.
type Result struct {
	Path   string
	Format codeshot.Format
	Bytes  int
	// Width and Height are the captured raster size in pixels.
	Width, Height int
}

// Exporter runs at most one export at a time.
type Exporter struct {
	fontCfg codeshot.FontConfig
	logger  *slog.Logger
	now     func() time.Time
	hl      codeshot.Highlighter

	fontsMu sync.Mutex
	fonts   *codeshot.Fonts

	inFlight atomic.Bool

	mu        sync.Mutex
	progress  Progress
	observers []func(Progress)
}

type Option func(*Exporter)

func WithFonts(cfg codeshot.FontConfig) Option {
	return func(e *Exporter) { e.fontCfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithClock replaces time.Now for file names.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(opts ...Option) *Exporter {
	e := &Exporter{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn for progress updates.
func (e *Exporter) Subscribe(fn func(Progress)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Progress returns the latest progress.
func (e *Exporter) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool { return e.inFlight.Load() }

func (e *Exporter) set(s State, pct int) {
	e.mu.Lock()
	e.progress = Progress{State: s, Percent: pct}
	obs := append([]func(Progress){}, e.observers...)
	e.mu.Unlock()
	for _, fn := range obs {
		fn(Progress{State: s, Percent: pct})
	}
}

// WaitForFonts loads the faces once and verifies they can draw.
func (e *Exporter) WaitForFonts(ctx context.Context) (codeshot.Fonts, error) {
	e.fontsMu.Lock()
	defer e.fontsMu.Unlock()
	if err := ctx.Err(); err != nil {
		return codeshot.Fonts{}, err
	}
	if e.fonts == nil {
		f, err := codeshot.LoadFonts(e.fontCfg)
		if err != nil {
			return codeshot.Fonts{}, fmt.Errorf("load fonts: %w", err)
		}
		e.fonts = &f
	}
	if err := e.fonts.Ready(); err != nil {
		return codeshot.Fonts{}, err
	}
	return *e.fonts, nil
}

// Export renders req and saves it. A second call while one is running
// returns ErrExportInFlight without side effects.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	res, err := e.ExportAll(ctx, req, req.Format)
	if err != nil {
		return Result{}, err
	}
	return res[0], nil
}

// ExportAll captures req once and saves it in every listed format.
func (e *Exporter) ExportAll(ctx context.Context, req Request, formats ...codeshot.Format) ([]Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrExportInFlight
	}
	defer e.inFlight.Store(false)

	if len(formats) == 0 || (len(formats) == 1 && formats[0] == "") {
		formats = []codeshot.Format{codeshot.FormatPNG}
	}
	results, err := e.run(ctx, req, formats)
	if err != nil {
		e.set(StateFailed, 0)
		e.logger.ErrorContext(ctx, "export failed", slog.Any("err", err))
		return nil, err
	}
	e.set(StateSaved, 100)
	return results, nil
}

func (e *Exporter) run(ctx context.Context, req Request, formats []codeshot.Format) ([]Result, error) {
	cfg := req.Config.Normalize()
	e.set(StateCapturing, 10)
	fonts, err := e.WaitForFonts(ctx)
	if err != nil {
		return nil, err
	}
	e.set(StateCapturing, 30)

	img, err := codeshot.Render(req.Buffer, cfg, req.Findings, codeshot.RenderOptions{
		Fonts:       fonts,
		Scale:       cfg.ExportScale,
		Highlighter: &e.hl,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.set(StateEncoding, 60)

	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	encoded := make([][]byte, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			data, err := encode(gctx, img, cfg, f)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			encoded[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if i := slices.Index(formats, codeshot.FormatPDF); i >= 0 {
		e.set(StatePackaging, 90)
		scale := float64(max(cfg.ExportScale, 1))
		doc, err := PDF(encoded[i], float64(b.Dx())/scale, float64(b.Dy())/scale)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", codeshot.FormatPDF, err)
		}
		for j, f := range formats {
			if f == codeshot.FormatPDF {
				encoded[j] = doc
			}
		}
	}

	// Nothing touches the destination until every format has encoded.
	stamp := e.now()
	results := make([]Result, 0, len(formats))
	for i, f := range formats {
		path := filepath.Join(dir, Filename(cfg.Language, f, stamp))
		if err := writeAtomic(path, encoded[i]); err != nil {
			for _, r := range results {
				_ = os.Remove(r.Path)
			}
			return nil, err
		}
		results = append(results, Result{Path: path, Format: f, Bytes: len(encoded[i]), Width: b.Dx(), Height: b.Dy()})
		e.logger.InfoContext(ctx, "exported",
			slog.String("path", path),
			slog.Int("bytes", len(encoded[i])),
		)
	}
	return results, nil
}

func encode(ctx context.Context, img *image.RGBA, cfg codeshot.Config, f codeshot.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch f {
	case codeshot.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case codeshot.FormatJPEG:
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: cfg.JPGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case codeshot.FormatPDF:
		// Packaged into a page once every format has encoded.
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: cfg.PDFQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
	return buf.Bytes(), nil
}

// PDF wraps a JPEG in a single w×h point page, landscape when w > h.
func PDF(jpg []byte, w, h float64) ([]byte, error) {
	orientation := "P"
	size := fpdf.SizeType{Wd: w, Ht: h}
	if w > h {
		orientation = "L"
		size = fpdf.SizeType{Wd: h, Ht: w}
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(FilePrefix, true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("frame", opts, bytes.NewReader(jpg))
	pdf.ImageOptions("frame", 0, 0, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// flatten composites img over white; JPEG has no alpha channel.
func flatten(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}

var unsafeName = regexp.MustCompile(`[^a-z0-9+#._-]+`)

// Filename returns "codeshot-<language>-<unix millis>.<ext>".
func Filename(language string, f codeshot.Format, at time.Time) string {
	lang := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(language)), "-"), "-.")
	if lang == "" {
		lang = "code"
	}
	return fmt.Sprintf("%s-%s-%d.%s", FilePrefix, lang, at.UnixMilli(), f.Ext())
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+FilePrefix+"-*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
