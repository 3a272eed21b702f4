package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRasterizer struct {
	lastSVG        string
	lastScale      float64
	lastBackground string
	err            error
}

func (f *fakeRasterizer) RasterizePNG(_ context.Context, svg string, scale float64, background string) ([]byte, error) {
	f.lastSVG = svg
	f.lastScale = scale
	f.lastBackground = background
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func TestSVGBytesInjectsNamespace(t *testing.T) {
	e := NewEncoder(nil)

	out, err := e.SVGBytes(`<svg viewBox="0 0 10 10"><g/></svg>`)
	require.NoError(t, err)
	require.Contains(t, string(out), `xmlns="http://www.w3.org/2000/svg"`)

	withNS := `<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`
	out, err = e.SVGBytes(withNS)
	require.NoError(t, err)
	require.Equal(t, withNS, string(out))
	require.Equal(t, 1, strings.Count(string(out), "xmlns="))
}

func TestSVGBytesEmpty(t *testing.T) {
	e := NewEncoder(nil)
	_, err := e.SVGBytes("  \n ")
	require.ErrorIs(t, err, ErrExport)
}

func TestPNGBytes(t *testing.T) {
	ras := &fakeRasterizer{}
	e := NewEncoder(ras)

	png, err := e.PNGBytes(context.Background(), `<svg viewBox="0 0 10 10"/>`)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	require.Equal(t, PNGScale, ras.lastScale)
	require.Equal(t, PNGBackground, ras.lastBackground)
	require.Contains(t, ras.lastSVG, "xmlns=")
}

func TestPNGBytesEmptyDrawing(t *testing.T) {
	ras := &fakeRasterizer{err: fmt.Errorf("empty drawing: %w", ErrExport)}
	e := NewEncoder(ras)

	_, err := e.PNGBytes(context.Background(), `<svg/>`)
	require.ErrorIs(t, err, ErrExport)

	_, err = e.PNGBytes(context.Background(), "")
	require.ErrorIs(t, err, ErrExport)
}

func TestSourceBytes(t *testing.T) {
	e := NewEncoder(nil)

	out, err := e.SourceBytes("flowchart TD\n  A-->B")
	require.NoError(t, err)
	require.Equal(t, "flowchart TD\n  A-->B\n", string(out))

	_, err = e.SourceBytes("   ")
	require.ErrorIs(t, err, ErrExport)
}

func TestFilename(t *testing.T) {
	namePat := regexp.MustCompile(`^Checkout-Flow-\d{8}-\d{6}\.png$`)
	require.Regexp(t, namePat, Filename("Checkout Flow", "png"))

	require.Regexp(t, `^diagram-\d{8}-\d{6}\.svg$`, Filename("  ", "svg"))
	require.Regexp(t, `^a-b-\d{8}-\d{6}\.mmd$`, Filename("a/b!", "mmd"))
}
