package render

import "sync"

// PanZoomOptions mirror the pan-zoom collaborator's attach options.
type PanZoomOptions struct {
	ZoomEnabled          bool
	Fit                  bool
	Center               bool
	MinZoom              float64
	MaxZoom              float64
	ZoomScaleSensitivity float64
}

func DefaultPanZoomOptions() PanZoomOptions {
	return PanZoomOptions{
		ZoomEnabled:          true,
		Fit:                  true,
		Center:               true,
		MinZoom:              0.1,
		MaxZoom:              10,
		ZoomScaleSensitivity: 0.3,
	}
}

// PanZoom is a stateful handle attached to one rendered SVG. A handle is
// owned by exactly one session and must be destroyed before the session
// installs a replacement.
type PanZoom interface {
	ZoomIn()
	ZoomOut()
	ResetZoom()
	Center()
	Fit()
	Destroy()
	Zoom() float64
}

// Attacher creates a PanZoom for freshly installed SVG markup.
type Attacher func(svg string, opt PanZoomOptions) PanZoom

// viewport is the in-process pan-zoom implementation backing the preview
// surface: it tracks scale and pan offsets the way the browser-side widget
// would, clamped to the configured zoom bounds.
type viewport struct {
	mu        sync.Mutex
	opt       PanZoomOptions
	scale     float64
	panX      float64
	panY      float64
	destroyed bool
}

// AttachViewport is the default Attacher.
func AttachViewport(_ string, opt PanZoomOptions) PanZoom {
	return &viewport{opt: opt, scale: 1}
}

func (v *viewport) ZoomIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed || !v.opt.ZoomEnabled {
		return
	}
	v.scale = v.clamp(v.scale * (1 + v.opt.ZoomScaleSensitivity))
}

func (v *viewport) ZoomOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed || !v.opt.ZoomEnabled {
		return
	}
	v.scale = v.clamp(v.scale / (1 + v.opt.ZoomScaleSensitivity))
}

func (v *viewport) ResetZoom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.scale = 1
}

func (v *viewport) Center() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.panX, v.panY = 0, 0
}

func (v *viewport) Fit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.scale = 1
	v.panX, v.panY = 0, 0
}

func (v *viewport) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed = true
}

func (v *viewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scale
}

func (v *viewport) clamp(s float64) float64 {
	if s < v.opt.MinZoom {
		return v.opt.MinZoom
	}
	if s > v.opt.MaxZoom {
		return v.opt.MaxZoom
	}
	return s
}
