package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/flowdraw-ai/flowdraw-backend/internal/headless"
)

// emptyBBoxMarker is thrown from the page script so the empty-drawing case
// can be told apart from genuine rasterizer failures.
const emptyBBoxMarker = "__empty_bbox__"

// ChromeRasterizer draws SVG markup onto a canvas inside headless Chrome
// and encodes the canvas as PNG.
type ChromeRasterizer struct {
	timeout time.Duration
}

func NewChromeRasterizer(timeout time.Duration) (*ChromeRasterizer, error) {
	if err := headless.CheckChrome(); err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRasterizer{timeout: timeout}, nil
}

func (r *ChromeRasterizer) RasterizePNG(ctx context.Context, svg string, scale float64, background string) ([]byte, error) {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancel := chromedp.NewExecAllocator(tctx, headless.ExecAllocatorOptions()...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	page := "<!doctype html><html><body>" + svg + "</body></html>"
	dataURL := headless.HTMLDataURL(page)

	expr := fmt.Sprintf(`(async () => {
  const svg = document.querySelector('svg');
  if (!svg) throw new Error(%q);
  const bbox = svg.getBBox();
  if (bbox.width === 0 || bbox.height === 0) throw new Error(%q);

  const pad = 10;
  const width = (bbox.width + pad * 2) * %f;
  const height = (bbox.height + pad * 2) * %f;
  svg.setAttribute('viewBox',
    (bbox.x - pad) + ' ' + (bbox.y - pad) + ' ' + (bbox.width + pad * 2) + ' ' + (bbox.height + pad * 2));

  const blob = new Blob([new XMLSerializer().serializeToString(svg)], {type: 'image/svg+xml'});
  const url = URL.createObjectURL(blob);
  const img = new Image();
  await new Promise((resolve, reject) => {
    img.onload = resolve;
    img.onerror = () => reject(new Error('svg image decode failed'));
    img.src = url;
  });

  const canvas = document.createElement('canvas');
  canvas.width = width;
  canvas.height = height;
  const cx = canvas.getContext('2d');
  cx.fillStyle = %q;
  cx.fillRect(0, 0, width, height);
  cx.drawImage(img, 0, 0, width, height);
  URL.revokeObjectURL(url);
  return canvas.toDataURL('image/png');
})()`, emptyBBoxMarker, emptyBBoxMarker, scale, scale, background)

	var dataPNG string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(expr, &dataPNG, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		if strings.Contains(err.Error(), emptyBBoxMarker) {
			return nil, fmt.Errorf("empty drawing: %w", ErrExport)
		}
		if tctx.Err() != nil {
			return nil, fmt.Errorf("rasterize timed out: %w", tctx.Err())
		}
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataPNG, prefix) {
		return nil, errors.New("rasterize: unexpected canvas encoding")
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataPNG, prefix))
	if err != nil {
		return nil, fmt.Errorf("decode canvas png: %w", err)
	}
	return png, nil
}
