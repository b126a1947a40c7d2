package exec

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes interpreter output safe to show inside the transcript. It
// strips ANSI escape sequences and control characters other than tab and
// newline, normalizes CRLF to LF and applies lone carriage returns the way
// a terminal would, so progress bars collapse to their final state.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	if !strings.ContainsRune(s, '\r') {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = overwrite(line)
	}
	return strings.Join(lines, "\n")
}

// overwrite replays a line containing carriage returns: each segment is
// written from column zero over what came before.
func overwrite(line string) string {
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
