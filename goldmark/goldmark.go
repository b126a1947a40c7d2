// Package goldmark renders assistant markdown to ANSI-styled terminal
// output. Parsing is done by goldmark, styling by lipgloss and fenced code
// that names its language is highlighted with chroma.
package goldmark

import "github.com/fwojciec/parley"

const (
	defaultWidth = 80

	// DefaultCodeStyle is the chroma style used for fenced code.
	DefaultCodeStyle = "monokai"
)

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width; code is never
// reflowed.
func Render(source string, width int, theme parley.Theme) string {
	return New(theme).Render(source, width)
}
