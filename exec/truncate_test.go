package exec_test

import (
	"fmt"
	"strings"
	"testing"

	parleyexec "github.com/fwojciec/parley/exec"
	"github.com/stretchr/testify/assert"
)

func TestTruncateTail(t *testing.T) {
	t.Parallel()

	t.Run("short input unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello\nworld\n", parleyexec.TruncateTail("hello\nworld\n", 100, 1024))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", parleyexec.TruncateTail("", 10, 10))
	})

	t.Run("keeps last lines", func(t *testing.T) {
		t.Parallel()
		lines := make([]string, 100)
		for i := range lines {
			lines[i] = fmt.Sprintf("line %d", i)
		}
		got := parleyexec.TruncateTail(strings.Join(lines, "\n")+"\n", 10, 1<<20)

		assert.True(t, strings.HasPrefix(got, "[... 90 earlier lines omitted]\n"))
		assert.Contains(t, got, "line 90\n")
		assert.True(t, strings.HasSuffix(got, "line 99\n"))
		assert.NotContains(t, got, "line 89\n")
	})

	t.Run("byte limit drops partial first line", func(t *testing.T) {
		t.Parallel()
		input := strings.Repeat(strings.Repeat("x", 99)+"\n", 10)
		got := parleyexec.TruncateTail(input, 1000, 250)

		assert.True(t, strings.HasPrefix(got, "[... 8 earlier lines omitted]\n"))
		body := strings.TrimPrefix(got, "[... 8 earlier lines omitted]\n")
		assert.Equal(t, strings.Repeat(strings.Repeat("x", 99)+"\n", 2), body)
	})

	t.Run("single long line keeps its tail", func(t *testing.T) {
		t.Parallel()
		input := strings.Repeat("a", 50) + strings.Repeat("b", 50)
		got := parleyexec.TruncateTail(input, 10, 20)
		assert.Equal(t, "[... output truncated]\n"+strings.Repeat("b", 20), got)
	})

	t.Run("no trailing newline preserved", func(t *testing.T) {
		t.Parallel()
		got := parleyexec.TruncateTail("a\nb\nc", 2, 100)
		assert.Equal(t, "[... 1 earlier lines omitted]\nb\nc", got)
	})
}
