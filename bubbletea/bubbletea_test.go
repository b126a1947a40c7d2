package bubbletea_test

import (
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/engine"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/require"
)

var _ bt.Engine = (*engine.Engine)(nil)

// newEngine creates an engine that is closed when the test ends.
func newEngine(t *testing.T, p parley.Provider, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng := engine.New(p, opts...)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// replying returns a provider that answers every request with contents.
func replying(contents ...string) *mock.Provider {
	return &mock.Provider{
		StreamFn: func(_ context.Context, _ parley.Request) (parley.Stream, error) {
			return mock.ContentStream(contents...), nil
		},
	}
}

// blocking returns a provider whose stream yields nothing until release is
// closed or the request is cancelled.
func blocking(release <-chan struct{}) *mock.Provider {
	return &mock.Provider{
		StreamFn: func(ctx context.Context, _ parley.Request) (parley.Stream, error) {
			return &mock.Stream{
				NextFn: func() (parley.Chunk, error) {
					select {
					case <-release:
						return parley.Chunk{}, io.EOF
					case <-ctx.Done():
						return parley.Chunk{}, ctx.Err()
					}
				},
			}, nil
		},
	}
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, eng bt.Engine, opts ...bt.Option) bt.Model {
	t.Helper()
	return initModelWithSize(t, eng, 80, 24, opts...)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, eng bt.Engine, width, height int, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(eng, parley.DefaultTheme(), opts...)
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// submit types prompt, presses Enter, waits for the reply and delivers the
// change notification.
func submit(t *testing.T, m bt.Model, eng *engine.Engine, prompt string) bt.Model {
	t.Helper()
	m.Input.SetValue(prompt)
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	eng.Wait()
	return updateModel(t, m, bt.ChangedMsg{})
}
