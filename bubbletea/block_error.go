package bubbletea

import tea "github.com/charmbracelet/bubbletea"

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders an assistant turn that carries a failure message.
type ErrorBlock struct {
	text   string
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(text string, styles Styles) *ErrorBlock {
	return &ErrorBlock{text: text, styles: styles}
}

// Text returns the error text.
func (b *ErrorBlock) Text() string { return b.text }

func (b *ErrorBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	return b.styles.Error.Width(width).Render(b.text)
}
