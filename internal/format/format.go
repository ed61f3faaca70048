// Package format renders the per-window label template. Tokens have the
// shape {f} or {f:n}: f selects a field (t=title, a/c=app id) and n is an
// optional width override. All lengths are measured in grapheme clusters.
package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

var tokenPattern = regexp.MustCompile(`\{[-\w]+(:-?[0-9]+)?\}`)

// Fields holds the substitutable values of one window.
type Fields struct {
	Title string
	AppID string
}

// Columns holds the registry-wide maxima unparameterized tokens pad to.
type Columns struct {
	Title int
	AppID int
}

// Formatter substitutes fields into a user-configured template.
type Formatter struct {
	template string
}

// New creates a formatter for the given template.
func New(template string) *Formatter {
	return &Formatter{template: template}
}

// Render substitutes every token in the template, escapes the emitted field
// content for markup and trims trailing whitespace from the result.
// Unrecognized field letters are consumed without output.
func (f *Formatter) Render(fields Fields, cols Columns) string {
	out := tokenPattern.ReplaceAllStringFunc(f.template, func(token string) string {
		width := 0
		if len(token) > 2 && token[2] == ':' {
			if n, err := strconv.Atoi(strings.TrimSuffix(token[3:], "}")); err == nil && n > 0 {
				width = n
			}
		}
		switch token[1] {
		case 't':
			return substitute(fields.Title, width, cols.Title)
		case 'a', 'c':
			return substitute(fields.AppID, width, cols.AppID)
		}
		return ""
	})
	return strings.TrimRight(out, " \t\n\r")
}

// substitute emits s at the effective width: the explicit width when given,
// else pad to the column maximum; overlong values are cut at a grapheme
// boundary so multi-byte glyphs are never split.
func substitute(s string, width, colMax int) string {
	n := uniseg.GraphemeClusterCount(s)
	if width == 0 {
		return html.EscapeString(s) + spaces(colMax-n)
	}
	if n > width {
		return html.EscapeString(truncate(s, width))
	}
	return html.EscapeString(s) + spaces(width-n)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

func truncate(s string, n int) string {
	var out strings.Builder
	rest := s
	state := -1
	var cluster string
	for rest != "" && n > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		out.WriteString(cluster)
		n--
	}
	return out.String()
}
