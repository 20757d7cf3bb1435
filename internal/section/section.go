package section

import (
	"strings"

	"github.com/ksyq12/sitectl/internal/errors"
)

// Sentinel surrounds a section name on its marker lines.
const Sentinel = "########"

// DisablePrefix is inserted after the indentation of every interior line
// of a disabled section.
const DisablePrefix = "#**#"

// Marker returns the marker line content for a section name.
func Marker(name string) string {
	return Sentinel + strings.ToUpper(name) + Sentinel
}

// span locates a section inside a slice of lines.
// open and close are the indexes of the two marker lines.
type span struct {
	lines []string
	open  int
	close int
}

func (s span) interior() []string {
	return s.lines[s.open+1 : s.close]
}

// find returns the span of the named section. Exactly two marker lines
// must be present; anything else is reported as SectionNotFound.
func find(text, name string) (span, error) {
	lines := strings.Split(text, "\n")
	marker := Marker(name)

	idx := make([]int, 0, 2)
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			idx = append(idx, i)
		}
	}
	if len(idx) != 2 {
		return span{}, errors.SectionNotFound(name)
	}

	return span{lines: lines, open: idx[0], close: idx[1]}, nil
}

// replace returns the text with the interior of s swapped for interior.
func (s span) replace(interior []string) string {
	out := make([]string, 0, len(s.lines)-len(s.interior())+len(interior))
	out = append(out, s.lines[:s.open+1]...)
	out = append(out, interior...)
	out = append(out, s.lines[s.close:]...)
	return strings.Join(out, "\n")
}

func indent(line string) (string, string) {
	rest := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(rest)], rest
}

func isPrefixed(line string) bool {
	_, rest := indent(line)
	return strings.HasPrefix(rest, DisablePrefix)
}

func addPrefix(line string) string {
	ws, rest := indent(line)
	return ws + DisablePrefix + rest
}

func stripPrefix(line string) string {
	ws, rest := indent(line)
	return ws + strings.TrimPrefix(rest, DisablePrefix)
}

// disabled reports whether every interior line carries the prefix.
// An empty interior is never disabled.
func disabled(interior []string) bool {
	if len(interior) == 0 {
		return false
	}
	for _, line := range interior {
		if !isPrefixed(line) {
			return false
		}
	}
	return true
}

func mapLines(lines []string, fn func(string) string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fn(line)
	}
	return out
}

// Exists reports whether the text contains a well-formed section.
func Exists(text, name string) bool {
	_, err := find(text, name)
	return err == nil
}

// IsDisabled reports whether the named section is currently disabled.
func IsDisabled(text, name string) (bool, error) {
	s, err := find(text, name)
	if err != nil {
		return false, err
	}
	return disabled(s.interior()), nil
}

// Get returns the interior of the named section.
// The disable prefix is stripped when the section is disabled.
func Get(text, name string) (string, error) {
	s, err := find(text, name)
	if err != nil {
		return "", err
	}

	interior := s.interior()
	if disabled(interior) {
		interior = mapLines(interior, stripPrefix)
	}
	return strings.Join(interior, "\n"), nil
}

// Insert replaces the interior of the named section with content.
// Markers are kept, and content is prefixed when the section is disabled.
// Empty content in a disabled section leaves one prefixed blank line, so
// the section stays disabled.
func Insert(text, name, content string) (string, error) {
	s, err := find(text, name)
	if err != nil {
		return "", err
	}

	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
	}
	if disabled(s.interior()) {
		if len(lines) == 0 {
			lines = []string{""}
		}
		lines = mapLines(lines, addPrefix)
	}
	return s.replace(lines), nil
}

// Enable strips the disable prefix from every interior line.
// Enabling a section that is not disabled returns the text unchanged.
func Enable(text, name string) (string, error) {
	s, err := find(text, name)
	if err != nil {
		return "", err
	}
	if !disabled(s.interior()) {
		return text, nil
	}
	return s.replace(mapLines(s.interior(), stripPrefix)), nil
}

// Disable applies the disable prefix to every interior line, blank lines
// included. Disabling an already disabled section returns the text unchanged.
func Disable(text, name string) (string, error) {
	s, err := find(text, name)
	if err != nil {
		return "", err
	}
	if len(s.interior()) == 0 || disabled(s.interior()) {
		return text, nil
	}
	return s.replace(mapLines(s.interior(), addPrefix)), nil
}
