package render

import "context"

// Layout selects the compiler's layout engine.
type Layout string

const (
	LayoutDagre Layout = "dagre"
	LayoutELK   Layout = "elk"
)

func ParseLayout(s string) Layout {
	if Layout(s) == LayoutELK {
		return LayoutELK
	}
	return LayoutDagre
}

// Theme is one of the compiler's named visual themes.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeNeutral Theme = "neutral"
	ThemeDark    Theme = "dark"
	ThemeForest  Theme = "forest"
	ThemeBase    Theme = "base"
)

func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeNeutral, ThemeDark, ThemeForest, ThemeBase:
		return Theme(s)
	}
	return ThemeDefault
}

type FlowchartConfig struct {
	Curve           string `json:"curve"`
	HTMLLabels      bool   `json:"htmlLabels"`
	Padding         int    `json:"padding"`
	NodeSpacing     int    `json:"nodeSpacing"`
	RankSpacing     int    `json:"rankSpacing"`
	DiagramPadding  int    `json:"diagramPadding,omitempty"`
	UseMaxWidth     bool   `json:"useMaxWidth"`
	DefaultRenderer string `json:"defaultRenderer,omitempty"`
}

type ELKConfig struct {
	NodePlacementStrategy string `json:"nodePlacementStrategy"`
	MergeEdges            bool   `json:"mergeEdges"`
}

// Config is the compiler configuration for one render. The compiler's own
// configuration is process-global and must be re-applied before every render;
// Queue guarantees the configure-then-render pair runs exclusively.
type Config struct {
	Theme         Theme           `json:"theme"`
	FontSize      int             `json:"fontSize,omitempty"`
	SecurityLevel string          `json:"securityLevel"`
	LogLevel      string          `json:"logLevel"`
	Flowchart     FlowchartConfig `json:"flowchart"`
	ELK           *ELKConfig      `json:"elk,omitempty"`
}

// EditorConfig builds the full-fidelity preview configuration. The two
// layouts carry different spacing presets: ELK packs tighter because it
// places nodes adaptively, dagre gets wider gaps for its fixed ranks.
func EditorConfig(layout Layout, theme Theme) Config {
	cfg := Config{
		Theme:         theme,
		SecurityLevel: "loose",
		LogLevel:      "error",
	}

	if layout == LayoutELK {
		cfg.Flowchart = FlowchartConfig{
			Curve:           "linear",
			HTMLLabels:      true,
			Padding:         30,
			NodeSpacing:     60,
			RankSpacing:     80,
			DiagramPadding:  20,
			UseMaxWidth:     false,
			DefaultRenderer: "elk",
		}
		cfg.ELK = &ELKConfig{
			NodePlacementStrategy: "SIMPLE",
			MergeEdges:            true,
		}
		return cfg
	}

	cfg.Flowchart = FlowchartConfig{
		Curve:          "linear",
		HTMLLabels:     true,
		Padding:        40,
		NodeSpacing:    80,
		RankSpacing:    100,
		DiagramPadding: 30,
		UseMaxWidth:    false,
	}
	return cfg
}

// ThumbnailConfig builds the low-detail configuration for list previews:
// small font, tight spacing, and a curve style picked from the stored
// direction hint only.
func ThumbnailConfig(theme Theme, directionHint Direction) Config {
	curve := "basis"
	if directionHint == DirTopToBottom || directionHint == DirBottomToTop {
		curve = "linear"
	}

	return Config{
		Theme:         theme,
		FontSize:      10,
		SecurityLevel: "loose",
		LogLevel:      "error",
		Flowchart: FlowchartConfig{
			Curve:       curve,
			HTMLLabels:  true,
			Padding:     10,
			NodeSpacing: 30,
			RankSpacing: 30,
			UseMaxWidth: true,
		},
	}
}

// Compiler turns diagram source into SVG markup. id must be unique per
// invocation: the underlying library keys internal caches and injected error
// nodes by it, and a reused id can resurrect stale DOM.
type Compiler interface {
	Render(ctx context.Context, id, source string, cfg Config) (string, error)
}

// SyntaxError is a compiler rejection of the source text. It is recoverable:
// the session surfaces the message and the user keeps editing.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string {
	return "render: " + e.Message
}
