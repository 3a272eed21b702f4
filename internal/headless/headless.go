// Package headless holds the pieces shared by the Chrome-backed compiler
// and rasterizer: allocator flags for running inside a container and the
// data-URL encoding of the page handed to Navigate.
package headless

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chromedp/chromedp"
)

var ErrChromeMissing = errors.New("headless: chromium not installed")

// CheckChrome verifies a chromium binary is on PATH.
func CheckChrome() error {
	if _, err := exec.LookPath("chromium-browser"); err != nil {
		if _, fallbackErr := exec.LookPath("chromium"); fallbackErr != nil {
			return ErrChromeMissing
		}
	}
	return nil
}

// ExecAllocatorOptions returns the Chrome flags for headless mode in a
// container.
func ExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
}

// HTMLDataURL wraps an HTML page as a navigable data URL.
func HTMLDataURL(page string) string {
	return "data:text/html;charset=utf-8," + percentEncode(page)
}

// percentEncode encodes a string for use in a data URL. Unlike
// url.QueryEscape, this encodes spaces as %20, which data URLs require.
func percentEncode(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				result.WriteString(fmt.Sprintf("%%%02X", b))
			}
		}
	}
	return result.String()
}
