package parley

import "strings"

// Literal markers delimiting an inline reasoning segment in content deltas.
const (
	ReasoningOpen  = "<think>"
	ReasoningClose = "</think>"
)

// StreamParser separates visible output from inline reasoning segments in a
// sequence of content deltas. Markers may arrive in any chunk, so the parser
// remembers whether it is inside a reasoning segment between calls.
//
// Markers are matched as literal substrings and at most one transition is
// recognized per chunk: a chunk holding both markers only opens a segment.
// Segments do not nest.
//
// A StreamParser is scoped to a single response and is not safe for
// concurrent use.
type StreamParser struct {
	inReasoning bool
	reasoning   strings.Builder
	visible     strings.Builder
}

// Feed consumes one content delta. It returns the visible delta committed by
// this chunk and whether anything was committed.
func (p *StreamParser) Feed(chunk string) (string, bool) {
	var delta string
	switch {
	case !p.inReasoning && strings.Contains(chunk, ReasoningOpen):
		before, after, _ := strings.Cut(chunk, ReasoningOpen)
		delta = before
		p.reasoning.WriteString(ReasoningOpen)
		p.reasoning.WriteString(after)
		p.inReasoning = true
	case p.inReasoning && strings.Contains(chunk, ReasoningClose):
		before, after, _ := strings.Cut(chunk, ReasoningClose)
		p.reasoning.WriteString(before)
		p.reasoning.WriteString(ReasoningClose)
		delta = after
		p.inReasoning = false
	case p.inReasoning:
		p.reasoning.WriteString(chunk)
	default:
		delta = chunk
	}
	if delta == "" {
		return "", false
	}
	p.visible.WriteString(delta)
	return delta, true
}

// Visible returns all visible text committed so far.
func (p *StreamParser) Visible() string {
	return p.visible.String()
}

// Reasoning returns the discarded reasoning text, markers included.
func (p *StreamParser) Reasoning() string {
	return p.reasoning.String()
}

// InReasoning reports whether the parser is inside a reasoning segment.
func (p *StreamParser) InReasoning() bool {
	return p.inReasoning
}

// Reset discards all state so the parser can be reused for a new response.
func (p *StreamParser) Reset() {
	p.inReasoning = false
	p.reasoning.Reset()
	p.visible.Reset()
}
