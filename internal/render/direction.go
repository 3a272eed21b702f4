package render

import (
	"regexp"
	"strings"
)

// Direction is a flowchart layout direction in its canonical token form.
type Direction string

const (
	DirTopToBottom Direction = "TB"
	DirBottomToTop Direction = "BT"
	DirLeftToRight Direction = "LR"
	DirRightToLeft Direction = "RL"
)

// legacy two-letter synonyms accepted on read
var directionSynonyms = map[string]Direction{
	"TB": DirTopToBottom,
	"TD": DirTopToBottom,
	"BT": DirBottomToTop,
	"BR": DirBottomToTop,
	"LR": DirLeftToRight,
	"RL": DirRightToLeft,
}

// ParseDirection normalizes a direction token. Unknown tokens fall back to
// top-to-bottom, the safe default for loaded documents.
func ParseDirection(s string) Direction {
	if d, ok := directionSynonyms[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return d
	}
	return DirTopToBottom
}

func (d Direction) Valid() bool {
	switch d {
	case DirTopToBottom, DirBottomToTop, DirLeftToRight, DirRightToLeft:
		return true
	}
	return false
}

// flowDeclRe matches a flow-style declaration line with an optional direction
// token. Sequence/class/state/etc. declarations do not match, so those
// sources pass through RewriteDirection untouched.
var flowDeclRe = regexp.MustCompile(`^(\s*)(flowchart|graph)\b(?:[ \t]+(TB|TD|BT|LR|RL|BR)\b)?([ \t]*)(.*)$`)

// RewriteDirection rewrites or injects the direction token on the first
// flow-declaration line of source. Non-flow sources, malformed input and
// invalid directions return the input unchanged. The transform is pure and
// idempotent.
func RewriteDirection(source string, d Direction) string {
	if !d.Valid() || strings.TrimSpace(source) == "" {
		return source
	}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			// blank lines, comments and init directives precede the declaration
			continue
		}
		m := flowDeclRe.FindStringSubmatch(line)
		if m == nil {
			// first non-blank line is not a flow declaration
			return source
		}

		rest := m[5]
		if rest == "" {
			lines[i] = m[1] + m[2] + " " + string(d)
		} else {
			lines[i] = m[1] + m[2] + " " + string(d) + " " + rest
		}
		return strings.Join(lines, "\n")
	}
	return source
}
