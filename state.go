package parley

// State is the lifecycle state of the conversation engine for the most
// recent submission.
type State int

const (
	StateIdle           State = iota // No submission since start or last clear.
	StateSubmitting                  // Turns appended, waiting for the first line.
	StateStreaming                   // Receiving deltas.
	StateCompleted                   // Stream ended cleanly.
	StateErrorCompleted              // Stream ended with a failure.
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrorCompleted:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether a new submission may start from this state.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateCompleted || s == StateErrorCompleted
}
