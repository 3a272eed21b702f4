package render

import (
	"regexp"
	"strings"
	"sync"
)

// Surface is the render container. Exactly one session owns and mutates a
// given surface; nothing else writes into it.
type Surface struct {
	mu      sync.Mutex
	content string
}

func NewSurface() *Surface {
	return &Surface{}
}

// Install replaces the surface content with svg, stamping intrinsic sizing
// so the diagram fills its container.
func (s *Surface) Install(svg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = sizeToContainer(svg)
}

func (s *Surface) SVG() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Surface) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content == ""
}

// Clear fully empties the surface. Used on failure so no partial or garbled
// compiler output lingers.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = ""
}

// ScrubIDPrefix removes elements whose id starts with prefix. The compiler
// injects error placeholders keyed by render id into its output; after a
// failed render these must not survive in the surrounding markup.
func (s *Surface) ScrubIDPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content == "" {
		return
	}
	pat := regexp.MustCompile(`<(\w+)[^>]*\bid="` + regexp.QuoteMeta(prefix) + `[^"]*"[^>]*>(?s:.*?)</\w+>`)
	s.content = pat.ReplaceAllString(s.content, "")
}

var svgOpenTagRe = regexp.MustCompile(`<svg\b[^>]*>`)

// sizeToContainer injects min-width/min-height styling on the root svg
// element so the rendered diagram stretches to its container.
func sizeToContainer(svg string) string {
	loc := svgOpenTagRe.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	open := svg[loc[0]:loc[1]]
	if strings.Contains(open, "min-width") {
		return svg
	}
	styled := strings.Replace(open, "<svg", `<svg style="min-width:100%;min-height:100%"`, 1)
	return svg[:loc[0]] + styled + svg[loc[1]:]
}
