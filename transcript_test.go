package parley_test

import (
	"sync"
	"testing"

	"github.com/fwojciec/parley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	t.Parallel()

	t.Run("rejects whitespace-only user text", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		for _, text := range []string{"", " ", "\n\t  "} {
			err := tr.AppendUser(text)
			require.ErrorIs(t, err, parley.ErrInvalidInput)
		}
		assert.Equal(t, 0, tr.Len())
		assert.Equal(t, uint64(0), tr.Version())
	})

	t.Run("appends user turn verbatim", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("  add a cube "))
		turns := tr.Turns()
		require.Len(t, turns, 1)
		assert.Equal(t, parley.RoleUser, turns[0].Role)
		assert.Equal(t, "  add a cube ", turns[0].Content)
		assert.False(t, turns[0].Timestamp.IsZero())
	})

	t.Run("placeholder is empty and open", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("hi"))
		idx := tr.AppendAssistantPlaceholder()
		assert.Equal(t, 1, idx)

		open, ok := tr.Open()
		require.True(t, ok)
		assert.Equal(t, parley.RoleAssistant, open.Role)
		assert.Empty(t, open.Content)
	})

	t.Run("update replaces open content", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		tr.AppendAssistantPlaceholder()
		tr.UpdateOpenAssistant("Hello ")
		tr.UpdateOpenAssistant("Hello world")
		last, ok := tr.Last()
		require.True(t, ok)
		assert.Equal(t, "Hello world", last.Content)
	})

	t.Run("update without open turn is a no-op", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("hi"))
		v := tr.Version()
		tr.UpdateOpenAssistant("ignored")
		assert.Equal(t, v, tr.Version())
		assert.Equal(t, "hi", tr.Turns()[0].Content)
	})

	t.Run("close freezes content", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		tr.AppendAssistantPlaceholder()
		tr.UpdateOpenAssistant("done")
		tr.CloseOpenAssistant()
		tr.UpdateOpenAssistant("late")

		_, open := tr.Open()
		assert.False(t, open)
		assert.Equal(t, "done", tr.Turns()[0].Content)
	})

	t.Run("fail overwrites content and marks error", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		tr.AppendAssistantPlaceholder()
		tr.UpdateOpenAssistant("partial")
		tr.FailOpenAssistant("Error: connection reset")

		turns := tr.Turns()
		require.Len(t, turns, 1)
		assert.Equal(t, "Error: connection reset", turns[0].Content)
		assert.True(t, turns[0].IsError)
		_, open := tr.Open()
		assert.False(t, open)
	})

	t.Run("assistant error is appended as a new turn", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		tr.AppendAssistantPlaceholder()
		tr.UpdateOpenAssistant("```print(1)```")
		tr.CloseOpenAssistant()
		tr.AppendAssistantError("Error executing code: boom")

		turns := tr.Turns()
		require.Len(t, turns, 2)
		assert.Equal(t, "```print(1)```", turns[0].Content)
		assert.False(t, turns[0].IsError)
		assert.Equal(t, parley.RoleAssistant, turns[1].Role)
		assert.True(t, turns[1].IsError)
	})

	t.Run("snapshot excludes open placeholder", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("one"))
		tr.AppendAssistantPlaceholder()
		tr.UpdateOpenAssistant("reply")
		tr.CloseOpenAssistant()
		require.NoError(t, tr.AppendUser("two"))
		tr.AppendAssistantPlaceholder()

		snap := tr.SnapshotForRequest()
		require.Len(t, snap, 3)
		assert.Equal(t, "one", snap[0].Content)
		assert.Equal(t, "reply", snap[1].Content)
		assert.Equal(t, "two", snap[2].Content)
		assert.Equal(t, 4, tr.Len())
	})

	t.Run("clear empties transcript", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("one"))
		tr.AppendAssistantPlaceholder()
		tr.Clear()

		assert.Empty(t, tr.Turns())
		_, open := tr.Open()
		assert.False(t, open)
		_, ok := tr.Last()
		assert.False(t, ok)
	})

	t.Run("turns returns a copy", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		require.NoError(t, tr.AppendUser("one"))
		turns := tr.Turns()
		turns[0].Content = "mutated"
		assert.Equal(t, "one", tr.Turns()[0].Content)
	})

	t.Run("version increases on every mutation", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		var last uint64
		steps := []func(){
			func() { _ = tr.AppendUser("x") },
			func() { tr.AppendAssistantPlaceholder() },
			func() { tr.UpdateOpenAssistant("y") },
			func() { tr.CloseOpenAssistant() },
			func() { tr.AppendAssistantError("z") },
			func() { tr.Clear() },
		}
		for _, step := range steps {
			step()
			v := tr.Version()
			assert.Greater(t, v, last)
			last = v
		}
	})

	t.Run("concurrent readers observe growing content", func(t *testing.T) {
		t.Parallel()
		tr := parley.NewTranscript()
		tr.AppendAssistantPlaceholder()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := ""
			for range 100 {
				acc += "x"
				tr.UpdateOpenAssistant(acc)
			}
			tr.CloseOpenAssistant()
		}()

		prev := 0
		for {
			turns := tr.Turns()
			n := len(turns[0].Content)
			assert.GreaterOrEqual(t, n, prev)
			prev = n
			if _, open := tr.Open(); !open {
				break
			}
		}
		wg.Wait()
		assert.Len(t, tr.Turns()[0].Content, 100)
	})
}
