package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the session's render lifecycle position.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRendering
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRendering:
		return "rendering"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// DefaultDebounce is the quiet period after a source edit before a render is
// scheduled. Layout/theme/direction switches skip it: they are discrete
// toolbar actions, not typing.
const DefaultDebounce = 600 * time.Millisecond

var errStale = errors.New("render: job superseded")

type SessionOptions struct {
	Queue    *Queue
	Compiler Compiler
	Attacher Attacher
	Debounce time.Duration
}

// Session owns one diagram view's render pipeline: current inputs, the
// debounce window, the serialized render jobs and the installed result.
//
// Every scheduled job captures a by-value snapshot of the inputs plus a
// monotonic token. A completion is applied only if its token is still the
// latest; anything older is discarded silently, so a slow early job can
// never overwrite a newer render.
type Session struct {
	queue    *Queue
	compiler Compiler
	attach   Attacher
	surface  *Surface
	delay    time.Duration

	mu        sync.Mutex
	source    string
	layout    Layout
	theme     Theme
	direction Direction

	state  State
	errMsg string

	token    uint64
	seq      uint64
	debounce *time.Timer
	pz       PanZoom

	wg sync.WaitGroup
}

func NewSession(opt SessionOptions) *Session {
	if opt.Queue == nil {
		opt.Queue = NewQueue()
	}
	if opt.Attacher == nil {
		opt.Attacher = AttachViewport
	}
	if opt.Debounce == 0 {
		opt.Debounce = DefaultDebounce
	}
	return &Session{
		queue:     opt.Queue,
		compiler:  opt.Compiler,
		attach:    opt.Attacher,
		surface:   NewSurface(),
		delay:     opt.Debounce,
		layout:    LayoutDagre,
		theme:     ThemeDefault,
		direction: DirTopToBottom,
	}
}

// Load seeds the session from a stored document without debouncing.
func (s *Session) Load(source string, layout Layout, theme Theme, direction Direction) {
	s.mu.Lock()
	s.layout = layout
	s.theme = theme
	s.direction = direction
	s.source = source
	if strings.TrimSpace(source) == "" {
		s.toIdleLocked()
		s.mu.Unlock()
		return
	}
	s.state = StatePending
	s.stopDebounceLocked()
	s.scheduleLocked()
	s.mu.Unlock()
}

// SetSource records an edit and schedules a render after the quiet period.
// Blank source drops the session back to Idle and clears the surface.
func (s *Session) SetSource(source string) {
	s.mu.Lock()
	s.source = source
	if strings.TrimSpace(source) == "" {
		s.toIdleLocked()
		s.mu.Unlock()
		return
	}
	s.state = StatePending
	s.resetDebounceLocked()
	s.mu.Unlock()
}

func (s *Session) SetLayout(l Layout) {
	s.setControl(func() { s.layout = l })
}

func (s *Session) SetTheme(t Theme) {
	s.setControl(func() { s.theme = t })
}

func (s *Session) SetDirection(d Direction) {
	s.setControl(func() { s.direction = d })
}

// setControl applies a toolbar change and re-renders immediately.
func (s *Session) setControl(apply func()) {
	s.mu.Lock()
	apply()
	if strings.TrimSpace(s.source) == "" {
		s.mu.Unlock()
		return
	}
	s.state = StatePending
	s.stopDebounceLocked()
	s.scheduleLocked()
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Session) SVG() string {
	return s.surface.SVG()
}

func (s *Session) Inputs() (string, Layout, Theme, Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, s.layout, s.theme, s.direction
}

// Zoom controls delegate to the pan-zoom handle and are no-ops when no
// handle exists (Idle/Pending/Failed).

func (s *Session) ZoomIn() {
	if pz := s.panzoom(); pz != nil {
		pz.ZoomIn()
	}
}

func (s *Session) ZoomOut() {
	if pz := s.panzoom(); pz != nil {
		pz.ZoomOut()
	}
}

func (s *Session) Fit() {
	if pz := s.panzoom(); pz != nil {
		pz.Fit()
		pz.Center()
	}
}

func (s *Session) Reset() {
	if pz := s.panzoom(); pz != nil {
		pz.ResetZoom()
		pz.Center()
		pz.Fit()
	}
}

func (s *Session) panzoom() PanZoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pz
}

// Close cancels any pending debounce and releases the pan-zoom handle.
func (s *Session) Close() {
	s.mu.Lock()
	s.token++
	s.stopDebounceLocked()
	pz := s.pz
	s.pz = nil
	s.mu.Unlock()
	if pz != nil {
		pz.Destroy()
	}
}

// Wait blocks until every scheduled job has settled. Test helper.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) toIdleLocked() {
	s.token++
	s.stopDebounceLocked()
	s.state = StateIdle
	s.errMsg = ""
	pz := s.pz
	s.pz = nil
	s.surface.Clear()
	if pz != nil {
		pz.Destroy()
	}
}

func (s *Session) stopDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Session) resetDebounceLocked() {
	s.stopDebounceLocked()
	s.debounce = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.state == StatePending && strings.TrimSpace(s.source) != "" {
			s.scheduleLocked()
		}
		s.mu.Unlock()
	})
}

type renderSnapshot struct {
	source    string
	layout    Layout
	theme     Theme
	direction Direction
	token     uint64
	renderID  string
}

func (s *Session) scheduleLocked() {
	s.token++
	s.seq++
	snap := renderSnapshot{
		source:    s.source,
		layout:    s.layout,
		theme:     s.theme,
		direction: s.direction,
		token:     s.token,
		// unique per (layout, theme, direction, key, timestamp) to defeat
		// the compiler's internal caching
		renderID: fmt.Sprintf("mermaid-%s-%s-%s-%d-%d",
			s.layout, s.theme, s.direction, s.seq, time.Now().UnixMilli()),
	}
	s.wg.Add(1)
	go s.run(snap)
}

func (s *Session) run(snap renderSnapshot) {
	defer s.wg.Done()

	svg, err := s.queue.Enqueue(context.Background(), func(ctx context.Context) (string, error) {
		s.mu.Lock()
		if snap.token != s.token {
			s.mu.Unlock()
			return "", errStale
		}
		s.state = StateRendering
		s.mu.Unlock()

		source := RewriteDirection(snap.source, snap.direction)
		return s.compiler.Render(ctx, snap.renderID, source, EditorConfig(snap.layout, snap.theme))
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.token != s.token || errors.Is(err, errStale) {
		return
	}

	if err != nil {
		s.errMsg = err.Error()
		s.state = StateFailed
		if s.pz != nil {
			s.pz.Destroy()
			s.pz = nil
		}
		s.surface.Clear()
		s.surface.ScrubIDPrefix("d" + snap.renderID)
		return
	}

	// tear down the previous handle before installing, or its listeners leak
	if s.pz != nil {
		s.pz.Destroy()
		s.pz = nil
	}

	if IsSequenceDiagram(snap.source) && !HasCustomActorColors(snap.source) {
		svg = ColorizeActors(svg, DefaultActorStyle())
	}

	s.surface.Install(svg)
	s.pz = s.attach(s.surface.SVG(), DefaultPanZoomOptions())
	s.state = StateRendered
	s.errMsg = ""
}
