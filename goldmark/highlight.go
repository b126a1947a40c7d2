package goldmark

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
)

// highlight colors code for the named language using the 16-color terminal
// formatter, so the terminal palette still applies. It reports false when
// the language is unknown or empty. The result has exactly as many lines as
// code.
func highlight(code, lang, style string) (string, bool) {
	if lang == "" {
		return "", false
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	if err := formatters.Get("terminal16").Format(&b, styles.Get(style), it); err != nil {
		return "", false
	}

	// The lexer appends a newline; fold anything after it back onto the
	// last real line so trailing resets are kept.
	lines := strings.Split(b.String(), "\n")
	want := strings.Count(code, "\n") + 1
	for len(lines) > want && ansi.Strip(lines[len(lines)-1]) == "" {
		last := lines[len(lines)-1]
		lines = lines[:len(lines)-1]
		lines[len(lines)-1] += last
	}
	return strings.Join(lines, "\n"), true
}
