package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders streamed assistant text with markdown formatting.
// Finalized paragraphs (separated by double newline) are rendered once and
// cached; only the trailing unfinalized text is re-rendered on each update.
type AssistantTextBlock struct {
	content  strings.Builder
	renderer *goldmark.Renderer

	// finalizedRaw is the stable prefix ending at the last double newline
	// outside a code fence. It's rendered once per width.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantTextBlock creates a new block for assistant text.
func NewAssistantTextBlock(r *goldmark.Renderer) *AssistantTextBlock {
	return &AssistantTextBlock{
		renderer:         r,
		finalizedByWidth: make(map[int]string),
	}
}

// Append adds text to the end of the block.
func (b *AssistantTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.promoteFinalized()
}

// Content returns the raw markdown accumulated so far.
func (b *AssistantTextBlock) Content() string {
	return b.content.String()
}

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	finalizedRendered := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close the fence for rendering only so partial replies display safely.
		trailing += "\n```"
	}
	if strings.TrimSpace(trailing) == "" {
		return finalizedRendered
	}
	trailingRendered := b.renderer.Render(trailing, width)
	if strings.TrimSpace(trailingRendered) == "" {
		return finalizedRendered
	}
	if finalizedRendered == "" {
		return trailingRendered
	}
	// Fragments are rendered independently; rejoin them with exactly one
	// paragraph break.
	return strings.TrimRight(finalizedRendered, "\n") + "\n\n" + strings.TrimLeft(trailingRendered, "\n")
}

// promoteFinalized moves the finalized boundary to the last "\n\n" that
// does not fall inside an open code fence.
func (b *AssistantTextBlock) promoteFinalized() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := b.renderer.Render(b.finalizedRaw, width)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantTextBlock) trailingRaw() string {
	raw := b.content.String()
	if b.finalizedRaw == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports whether s has an odd number of "```" markers.
// Triple backticks inside inline code spans are counted too.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
