package exec

import (
	"fmt"
	"strings"
)

// TruncateTail keeps at most the last maxLines lines and maxBytes bytes of
// s. When the byte limit cuts into a line, the partial line is dropped
// unless it is the only one left. Truncated output starts with a marker
// line.
func TruncateTail(s string, maxLines, maxBytes int) string {
	if s == "" {
		return ""
	}
	trailing := strings.HasSuffix(s, "\n")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	total := len(lines)

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	tail := strings.Join(lines, "\n")
	cut := false
	if maxBytes > 0 && len(tail) > maxBytes {
		tail = tail[len(tail)-maxBytes:]
		cut = true
		if i := strings.IndexByte(tail, '\n'); i >= 0 {
			tail = tail[i+1:]
			cut = false
		}
	}
	kept := strings.Count(tail, "\n") + 1
	if trailing {
		tail += "\n"
	}

	switch {
	case kept < total:
		return fmt.Sprintf("[... %d earlier lines omitted]\n%s", total-kept, tail)
	case cut:
		return "[... output truncated]\n" + tail
	default:
		return tail
	}
}
