package bubbletea

// BlockSeparator exports blockSeparator for testing.
func BlockSeparator(prev, curr MessageBlock) string {
	return blockSeparator(prev, curr)
}

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// CanExecute exports canExecute for testing.
func CanExecute(m Model) bool {
	return m.canExecute()
}

// ExpireNotice returns the message that clears the current notice.
func ExpireNotice(m Model) any {
	return noticeExpiredMsg{seq: m.notice.seq}
}
