package mock

import (
	"io"
	"sync"

	"github.com/fwojciec/parley"
)

// Interface compliance check.
var _ parley.Stream = (*Stream)(nil)

// Stream is a test double for parley.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because callers commonly defer stream.Close().
type Stream struct {
	NextFn  func() (parley.Chunk, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (parley.Chunk, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ContentStream returns a Stream that yields one chunk per content string
// and then io.EOF.
func ContentStream(contents ...string) *Stream {
	var mu sync.Mutex
	i := 0
	return &Stream{
		NextFn: func() (parley.Chunk, error) {
			mu.Lock()
			defer mu.Unlock()
			if i >= len(contents) {
				return parley.Chunk{}, io.EOF
			}
			c := parley.Chunk{Content: contents[i]}
			i++
			return c, nil
		},
	}
}
