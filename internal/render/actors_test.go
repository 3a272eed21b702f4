package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSequenceDiagram(t *testing.T) {
	require.True(t, IsSequenceDiagram("sequenceDiagram\n  A->>B: hi"))
	require.True(t, IsSequenceDiagram("%%{init: {}}%%\n\nsequenceDiagram\n  A->>B: hi"))
	require.False(t, IsSequenceDiagram("flowchart TD\n  A-->B"))
	require.False(t, IsSequenceDiagram(""))
}

func TestHasCustomActorColors(t *testing.T) {
	require.True(t, HasCustomActorColors("%%{init: {'themeVariables': {'actorBkg': '#fff'}}}%%\nsequenceDiagram"))
	require.True(t, HasCustomActorColors("sequenceDiagram\n  box rgb(200,220,255) backend\n  participant A\n  end"))
	require.False(t, HasCustomActorColors("sequenceDiagram\n  A->>B: hi"))
	require.False(t, HasCustomActorColors("sequenceDiagram\n  A->>B: inbox stuff"))
}

const sequenceSVG = `<svg viewBox="0 0 600 400">` +
	`<rect x="10" y="5" width="130" height="65" fill="#ccc" stroke="#666"></rect>` +
	`<rect x="250" y="5" width="130" height="65" fill="#ccc" stroke="#666"></rect>` +
	`<rect x="10" y="330" width="130" height="65" fill="#ccc" stroke="#666"></rect>` +
	`<rect x="250" y="330" width="130" height="65" fill="#ccc" stroke="#666"></rect>` +
	`<rect x="60" y="120" width="20" height="80" fill="#ddd"></rect>` +
	`<rect x="100" y="200" width="180" height="40" class="note" fill="#fff5ad"></rect>` +
	`</svg>`

func TestColorizeActorsPalette(t *testing.T) {
	style := DefaultActorStyle()
	out := ColorizeActors(sequenceSVG, style)

	// two actors, left to right, cyclic palette
	require.Equal(t, 2, strings.Count(out, `fill="`+style.Fills[0]+`"`))
	require.Equal(t, 2, strings.Count(out, `fill="`+style.Fills[1]+`"`))
	require.Equal(t, 2, strings.Count(out, `stroke="`+style.Strokes[0]+`"`))

	// the activation bar keeps its fill
	require.Contains(t, out, `width="20" height="80" fill="#ddd"`)

	// notes get the note style
	require.Contains(t, out, `class="note" fill="`+style.NoteFill+`"`)
	require.Contains(t, out, style.NoteStroke)
}

func TestColorizeActorsTopBottomPairing(t *testing.T) {
	style := DefaultActorStyle()
	out := ColorizeActors(sequenceSVG, style)

	// the bottom mirror of each actor carries the same fill as its top box
	top := out[strings.Index(out, `y="5"`):]
	bottom := out[strings.Index(out, `y="330"`):]
	require.Contains(t, top, style.Fills[0])
	require.Contains(t, bottom, style.Fills[0])
}

func TestColorizeActorsPaletteWraps(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<svg>`)
	for i := 0; i < 8; i++ {
		b.WriteString(`<rect x="` + string(rune('0'+i)) + `0" y="5" width="100" height="65" fill="#ccc"></rect>`)
	}
	b.WriteString(`</svg>`)

	style := DefaultActorStyle()
	out := ColorizeActors(b.String(), style)
	// 8 actors over a 6 color palette: first two colors used twice
	require.Equal(t, 2, strings.Count(out, style.Fills[0]))
	require.Equal(t, 2, strings.Count(out, style.Fills[1]))
	require.Equal(t, 1, strings.Count(out, style.Fills[2]))
}

func TestColorizeActorsSkipsMidDiagramBoxes(t *testing.T) {
	svg := `<svg viewBox="0 0 600 400">` +
		`<rect x="10" y="5" width="130" height="65" fill="#ccc"></rect>` +
		`<rect x="250" y="5" width="130" height="65" fill="#ccc"></rect>` +
		`<rect x="100" y="150" width="130" height="65" fill="#eee"></rect>` +
		`<rect x="10" y="330" width="130" height="65" fill="#ccc"></rect>` +
		`<rect x="250" y="330" width="130" height="65" fill="#ccc"></rect>` +
		`</svg>`

	out := ColorizeActors(svg, DefaultActorStyle())

	// an actor-sized box between the two rows is not an actor
	require.Contains(t, out, `x="100" y="150" width="130" height="65" fill="#eee"`)
	require.Equal(t, 2, strings.Count(out, DefaultActorStyle().Fills[0]))
	require.Equal(t, 2, strings.Count(out, DefaultActorStyle().Fills[1]))
}

func TestColorizeActorsNoActorsNoOp(t *testing.T) {
	svg := `<svg><rect x="0" y="0" width="400" height="20" fill="#fff"></rect></svg>`
	require.Equal(t, svg, ColorizeActors(svg, DefaultActorStyle()))

	require.Equal(t, "<svg></svg>", ColorizeActors("<svg></svg>", DefaultActorStyle()))
}

func TestColorizeActorsSelfClosingRect(t *testing.T) {
	svg := `<svg><rect x="10" y="5" width="100" height="65"/></svg>`
	out := ColorizeActors(svg, DefaultActorStyle())
	require.Contains(t, out, `fill="`+DefaultActorStyle().Fills[0]+`"`)
	require.True(t, strings.HasSuffix(out, `/></svg>`))
}
