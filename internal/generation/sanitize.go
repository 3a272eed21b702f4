package generation

import (
	"errors"
	"strings"
)

// ErrBadFormat means the model response contained no recognizable diagram
// declaration after cleanup. Callers surface it as a retryable user error.
var ErrBadFormat = errors.New("generation: response is not diagram source")

// declaration keywords that can open a diagram, checked in order
var diagramTypes = []string{
	"flowchart",
	"sequenceDiagram",
	"classDiagram",
	"stateDiagram",
	"erDiagram",
	"gantt",
	"pie",
	"gitGraph",
	"graph",
}

// Sanitize cleans a model response into usable diagram source: markdown code
// fences are stripped, then everything before the first line that opens a
// known diagram type is discarded. Models like to preface output with prose
// even when told not to; the declaration sniff cuts that off.
func Sanitize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrBadFormat
	}

	text = stripFences(text)

	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if opensDiagram(strings.TrimSpace(line)) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrBadFormat
	}

	out := strings.TrimRight(strings.Join(lines[start:], "\n"), " \t\n")
	return out, nil
}

func stripFences(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func opensDiagram(line string) bool {
	if strings.HasPrefix(line, "%%{") {
		// an init directive may legitimately precede the declaration
		return true
	}
	for _, t := range diagramTypes {
		if line == t || strings.HasPrefix(line, t+" ") || strings.HasPrefix(line, t+"-") {
			return true
		}
	}
	return false
}
