// Package exec implements [parley.Sandbox] by piping extracted code into an
// interpreter subprocess.
//
// Output is captured into a bounded buffer, stripped of terminal escapes and
// truncated to its tail before it is reported. Output beyond the in-memory
// limit is kept in a temp file whose path is reported alongside the tail.
package exec

import "time"

const (
	// DefaultTimeout bounds a single execution.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxLines and DefaultMaxBytes bound the output tail attached to
	// an [ExitError].
	DefaultMaxLines = 40
	DefaultMaxBytes = 4 * 1024

	// offloadThreshold is the output size after which the full output is
	// written to a temp file.
	offloadThreshold = 64 * 1024
)

// DefaultCommand runs Python code read from stdin.
var DefaultCommand = []string{"python3", "-"}
