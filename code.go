package parley

import (
	"regexp"
	"strings"
)

// codeFence matches the first fenced block. The language tag is only taken
// as a tag when a newline follows it, so "```print(1)```" keeps its body.
var codeFence = regexp.MustCompile("(?s)```(?:([\\w+#.-]*)[ \\t]*\\n)?(.*?)```")

// CodeBlock is a fenced code block found in response text.
type CodeBlock struct {
	Lang string // language tag on the opening fence, may be empty
	Code string // trimmed interior
}

// FindCodeBlock returns the first fenced code block in text.
func FindCodeBlock(text string) (CodeBlock, bool) {
	m := codeFence.FindStringSubmatch(text)
	if m == nil {
		return CodeBlock{}, false
	}
	return CodeBlock{Lang: m[1], Code: strings.TrimSpace(m[2])}, true
}

// ExtractCode returns the trimmed interior of the first fenced code block in
// text, or false when there is none.
func ExtractCode(text string) (string, bool) {
	b, ok := FindCodeBlock(text)
	if !ok {
		return "", false
	}
	return b.Code, true
}
