package parley

import (
	"strings"
	"sync"
	"time"
)

// Transcript is the ordered log of conversation turns. Insertion order is
// conversation order. At most one assistant turn is open for streaming
// mutation at a time. Use NewTranscript; the zero value is not ready for use.
//
// Transcript is safe for concurrent use: the background worker writes while
// the presentation layer reads copies. Readers may observe a partially
// streamed turn; content only ever grows while a turn is open.
type Transcript struct {
	mu      sync.RWMutex
	turns   []Turn
	open    int // index of the open assistant turn, -1 when none
	version uint64
	now     func() time.Time
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{open: -1, now: time.Now}
}

// AppendUser appends a user turn. Whitespace-only text is rejected with
// ErrInvalidInput and nothing is appended.
func (t *Transcript) AppendUser(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrInvalidInput
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: RoleUser, Content: text, Timestamp: t.now()})
	t.version++
	return nil
}

// AppendAssistantPlaceholder appends an empty assistant turn, marks it open
// and returns its index.
func (t *Transcript) AppendAssistantPlaceholder() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: RoleAssistant, Timestamp: t.now()})
	t.open = len(t.turns) - 1
	t.version++
	return t.open
}

// UpdateOpenAssistant replaces the content of the open assistant turn. The
// caller always passes the full accumulated text. It is a no-op when no turn
// is open.
func (t *Transcript) UpdateOpenAssistant(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open < 0 {
		return
	}
	t.turns[t.open].Content = text
	t.version++
}

// FailOpenAssistant overwrites the open assistant turn with an error message
// and closes it.
func (t *Transcript) FailOpenAssistant(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open < 0 {
		return
	}
	t.turns[t.open].Content = text
	t.turns[t.open].IsError = true
	t.open = -1
	t.version++
}

// CloseOpenAssistant closes the open assistant turn, if any. Its content is
// final afterwards.
func (t *Transcript) CloseOpenAssistant() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open < 0 {
		return
	}
	t.open = -1
	t.version++
}

// AppendAssistantError appends a new, closed assistant turn carrying an
// error message. Existing turns are left untouched.
func (t *Transcript) AppendAssistantError(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: RoleAssistant, Content: text, IsError: true, Timestamp: t.now()})
	t.version++
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
	t.open = -1
	t.version++
}

// SnapshotForRequest returns a copy of all turns except the open assistant
// placeholder, in order.
func (t *Transcript) SnapshotForRequest() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, 0, len(t.turns))
	for i, turn := range t.turns {
		if i == t.open {
			continue
		}
		out = append(out, turn)
	}
	return out
}

// Turns returns a copy of all turns, including an open one.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Last returns the most recent turn.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Open returns the open assistant turn, if any.
func (t *Transcript) Open() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.open < 0 {
		return Turn{}, false
	}
	return t.turns[t.open], true
}

// Version returns a counter that increases on every mutation. Readers use it
// to skip redraws when nothing changed.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}
