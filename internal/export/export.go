// Package export turns a rendered diagram into downloadable artifacts:
// the SVG markup itself, a white-backed PNG raster, or the raw source text.
package export

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrExport is returned when there is nothing exportable: no rendered
// markup, blank source, or a diagram whose bounding box is empty.
var ErrExport = errors.New("export: nothing to export")

const (
	// PNGScale is the raster oversampling factor for crisp output.
	PNGScale = 2.0
	// PNGBackground backs the transparent SVG with white.
	PNGBackground = "#ffffff"
)

// Rasterizer converts SVG markup into encoded PNG bytes. Implementations
// must wrap ErrExport when the drawing has a zero-area bounding box.
type Rasterizer interface {
	RasterizePNG(ctx context.Context, svg string, scale float64, background string) ([]byte, error)
}

// Encoder produces export payloads for one rendered diagram.
type Encoder struct {
	ras Rasterizer
}

func NewEncoder(ras Rasterizer) *Encoder {
	return &Encoder{ras: ras}
}

var xmlnsRe = regexp.MustCompile(`<svg\b[^>]*\bxmlns=`)

// SVGBytes serializes the rendered markup as a standalone SVG document,
// injecting the namespace declaration if the renderer omitted it.
func (e *Encoder) SVGBytes(svg string) ([]byte, error) {
	if strings.TrimSpace(svg) == "" {
		return nil, ErrExport
	}
	if !xmlnsRe.MatchString(svg) {
		svg = strings.Replace(svg, "<svg", `<svg xmlns="http://www.w3.org/2000/svg"`, 1)
	}
	return []byte(svg), nil
}

// PNGBytes rasterizes the rendered markup at PNGScale over a white backing.
func (e *Encoder) PNGBytes(ctx context.Context, svg string) ([]byte, error) {
	if strings.TrimSpace(svg) == "" {
		return nil, ErrExport
	}
	doc, err := e.SVGBytes(svg)
	if err != nil {
		return nil, err
	}
	png, err := e.ras.RasterizePNG(ctx, string(doc), PNGScale, PNGBackground)
	if err != nil {
		return nil, fmt.Errorf("rasterize png: %w", err)
	}
	return png, nil
}

// SourceBytes exports the diagram source as a text file payload.
func (e *Encoder) SourceBytes(source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrExport
	}
	if !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	return []byte(source), nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Filename builds a timestamped download name from the diagram title.
func Filename(title, ext string) string {
	base := unsafeFilenameRe.ReplaceAllString(strings.TrimSpace(title), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "diagram"
	}
	return fmt.Sprintf("%s-%s.%s", base, time.Now().Format("20060102-150405"), ext)
}
