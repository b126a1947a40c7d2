// Package bubbletea provides a Bubble Tea TUI for a parley conversation.
package bubbletea

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
)

// Engine is the conversation the TUI presents. It is satisfied by
// *engine.Engine.
type Engine interface {
	Submit(prompt, model string) error
	Clear() error
	ExecuteLastResponseCode(ctx context.Context) error
	Turns() []parley.Turn
	Loading() bool
	Version() uint64
	Changed() <-chan struct{}
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// ChangedMsg signals that the engine's transcript or state changed.
type ChangedMsg struct{}

// TickMsg is the periodic refresh delivered while a reply is generated.
type TickMsg time.Time

// ModelsMsg carries the result of a model catalog refresh.
type ModelsMsg struct {
	Names []string
	Err   error
}

// ExecutedMsg carries the result of a manual code execution.
type ExecutedMsg struct {
	Err error
}

type noticeExpiredMsg struct {
	seq int
}

func listenForChange(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return ChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
