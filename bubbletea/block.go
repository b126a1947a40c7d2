package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// blockSeparator returns the gap placed between two rendered blocks. A user
// turn opens a new exchange and gets an extra blank line.
func blockSeparator(prev, curr MessageBlock) string {
	if prev == nil {
		return ""
	}
	if _, ok := curr.(*UserMessageBlock); ok {
		return "\n\n"
	}
	return "\n"
}
