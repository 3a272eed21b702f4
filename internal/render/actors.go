package render

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ActorStyle is the palette applied to sequence diagram participant boxes.
// Fills and Strokes are consumed cyclically in left-to-right actor order.
type ActorStyle struct {
	Fills      []string
	Strokes    []string
	NoteFill   string
	NoteStroke string
}

func DefaultActorStyle() ActorStyle {
	return ActorStyle{
		Fills:      []string{"#e8f1fc", "#fde9ef", "#e8f8ee", "#fff3dd", "#f1e9fb", "#e4f6f8"},
		Strokes:    []string{"#3572b0", "#c2366b", "#2d8a4e", "#c07d1a", "#7a4bbf", "#1f8b96"},
		NoteFill:   "#fdf6d8",
		NoteStroke: "#b8a23a",
	}
}

// IsSequenceDiagram reports whether the first meaningful line of source
// declares a sequence diagram. Blank lines and %% directives are skipped.
func IsSequenceDiagram(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "%%") {
			continue
		}
		return strings.HasPrefix(t, "sequenceDiagram")
	}
	return false
}

// HasCustomActorColors reports whether the author already styled actors,
// either through a theme variable override or a box grouping block. The
// automatic palette must never fight author styling.
func HasCustomActorColors(source string) bool {
	if strings.Contains(source, "actorBkg") {
		return true
	}
	for _, line := range strings.Split(source, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "box ") {
			return true
		}
	}
	return false
}

var rectTagRe = regexp.MustCompile(`<rect\b[^>]*/?>`)

type rectBox struct {
	start, end int
	x, y, w, h float64
}

// Actor box geometry in the compiler's sequence output. Participant boxes
// land in a narrow height band; message and activation rects do not.
const (
	actorMinWidth  = 50
	actorMaxWidth  = 300
	actorMinHeight = 60
	actorMaxHeight = 70
)

// Participant boxes sit in the top row and its bottom mirror. An actor-sized
// rect floating mid-diagram (a wide loop frame, a background panel) is not
// an actor.
const actorBandTolerance = 10

// ColorizeActors recolors sequence participant boxes with a cyclic palette
// and gives note rects a distinct fill. The markup carries no stable class
// hooks for actors, so boxes are found geometrically: rects in the actor
// size band lying on the top row or its bottom mirror, colored by
// left-to-right position so the two rows match. If nothing matches, the
// markup is returned untouched.
func ColorizeActors(svg string, style ActorStyle) string {
	if len(style.Fills) == 0 {
		return svg
	}

	var rects []rectBox
	for _, loc := range rectTagRe.FindAllStringIndex(svg, -1) {
		tag := svg[loc[0]:loc[1]]
		rects = append(rects, rectBox{
			start: loc[0],
			end:   loc[1],
			x:     attrFloat(tag, "x"),
			y:     attrFloat(tag, "y"),
			w:     attrFloat(tag, "width"),
			h:     attrFloat(tag, "height"),
		})
	}

	var sized []rectBox
	for _, r := range rects {
		if r.w >= actorMinWidth && r.w <= actorMaxWidth &&
			r.h >= actorMinHeight && r.h <= actorMaxHeight {
			sized = append(sized, r)
		}
	}
	if len(sized) == 0 {
		return svg
	}

	minY, maxY := sized[0].y, sized[0].y
	for _, r := range sized[1:] {
		if r.y < minY {
			minY = r.y
		}
		if r.y > maxY {
			maxY = r.y
		}
	}
	var actors []rectBox
	for _, r := range sized {
		if r.y-minY <= actorBandTolerance || maxY-r.y <= actorBandTolerance {
			actors = append(actors, r)
		}
	}

	// rank distinct x positions so an actor's top and bottom boxes share a color
	xs := distinctSorted(actors)
	colorOf := func(x float64) int {
		for i, v := range xs {
			if x == v {
				return i
			}
		}
		return 0
	}

	type edit struct {
		start, end int
		tag        string
	}
	var edits []edit
	for _, r := range actors {
		i := colorOf(r.x)
		tag := svg[r.start:r.end]
		tag = setAttr(tag, "fill", style.Fills[i%len(style.Fills)])
		if len(style.Strokes) > 0 {
			tag = setAttr(tag, "stroke", style.Strokes[i%len(style.Strokes)])
		}
		edits = append(edits, edit{r.start, r.end, tag})
	}

	if style.NoteFill != "" {
		for _, r := range rects {
			tag := svg[r.start:r.end]
			if strings.Contains(tag, `class="note"`) {
				tag = setAttr(tag, "fill", style.NoteFill)
				tag = setAttr(tag, "stroke", style.NoteStroke)
				edits = append(edits, edit{r.start, r.end, tag})
			}
		}
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	prev := 0
	for _, e := range edits {
		if e.start < prev {
			continue
		}
		b.WriteString(svg[prev:e.start])
		b.WriteString(e.tag)
		prev = e.end
	}
	b.WriteString(svg[prev:])
	return b.String()
}

func distinctSorted(rects []rectBox) []float64 {
	seen := make(map[float64]struct{}, len(rects))
	var xs []float64
	for _, r := range rects {
		if _, ok := seen[r.x]; !ok {
			seen[r.x] = struct{}{}
			xs = append(xs, r.x)
		}
	}
	sort.Float64s(xs)
	return xs
}

// attribute names are matched after whitespace so "x" never matches "rx"
// and "width" never matches "stroke-width"

func attrFloat(tag, name string) float64 {
	re := regexp.MustCompile(`\s` + name + `="([-0-9.]+)"`)
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return -1
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return -1
	}
	return v
}

// setAttr replaces an existing attribute value or appends the attribute to
// the tag when absent.
func setAttr(tag, name, value string) string {
	re := regexp.MustCompile(`(\s)` + name + `="[^"]*"`)
	if re.MatchString(tag) {
		return re.ReplaceAllString(tag, `${1}`+name+`="`+value+`"`)
	}
	if strings.HasSuffix(tag, "/>") {
		return strings.TrimSuffix(tag, "/>") + name + `="` + value + `"/>`
	}
	return strings.TrimSuffix(tag, ">") + ` ` + name + `="` + value + `">`
}
