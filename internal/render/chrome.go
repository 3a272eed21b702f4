package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/flowdraw-ai/flowdraw-backend/internal/headless"
)

// ChromeCompiler drives the diagram library inside headless Chrome. Each
// Render navigates a data-URL page with the library bundled in, applies cfg
// via the library's global initialize call, and evaluates one render. It is
// not safe for concurrent invocation; callers serialize through a Queue.
type ChromeCompiler struct {
	mermaidJS string
	timeout   time.Duration
}

func NewChromeCompiler(mermaidJSPath string, timeout time.Duration) (*ChromeCompiler, error) {
	if err := headless.CheckChrome(); err != nil {
		return nil, err
	}

	js, err := os.ReadFile(mermaidJSPath)
	if err != nil {
		return nil, fmt.Errorf("read mermaid bundle: %w", err)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ChromeCompiler{mermaidJS: string(js), timeout: timeout}, nil
}

func (c *ChromeCompiler) Render(ctx context.Context, id, source string, cfg Config) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	allocCtx, cancel := chromedp.NewExecAllocator(tctx, headless.ExecAllocatorOptions()...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	page := "<!doctype html><html><body><div id=\"container\"></div><script>" +
		c.mermaidJS +
		"</script></body></html>"
	dataURL := headless.HTMLDataURL(page)

	initJSON, err := mermaidInitJSON(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal render config: %w", err)
	}

	var svg string
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(renderExpression(initJSON, id, source), &svg, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		if tctx.Err() != nil {
			return "", fmt.Errorf("render timed out: %w", tctx.Err())
		}
		// an evaluate exception is the library rejecting the source
		return "", &SyntaxError{Message: err.Error()}
	}

	if strings.TrimSpace(svg) == "" {
		return "", &SyntaxError{Message: "compiler produced empty output"}
	}
	return svg, nil
}

// renderExpression builds the page script for one render. The alternate
// layout engine ships as a separate loader global; bundles that include it
// must register it before initialize or the elk renderer silently falls
// back to the default.
func renderExpression(initJSON, id, source string) string {
	return fmt.Sprintf(`(async () => {
  if (typeof mermaid.registerLayoutLoaders === 'function' && typeof elk !== 'undefined') {
    mermaid.registerLayoutLoaders(elk);
  }
  mermaid.initialize(%s);
  const { svg } = await mermaid.render(%s, %s);
  return svg;
})()`, initJSON, jsString(id), jsString(source))
}

// mermaidInitJSON builds the object handed to the library's global
// initialize call. startOnLoad is always off: renders are driven explicitly.
func mermaidInitJSON(cfg Config) (string, error) {
	init := map[string]any{
		"startOnLoad":   false,
		"theme":         string(cfg.Theme),
		"securityLevel": cfg.SecurityLevel,
		"logLevel":      cfg.LogLevel,
		"flowchart":     cfg.Flowchart,
	}
	if cfg.FontSize > 0 {
		init["fontSize"] = cfg.FontSize
	}
	if cfg.ELK != nil {
		init["elk"] = cfg.ELK
	}
	b, err := json.Marshal(init)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
