package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	osexec "os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/parley"
	"github.com/sirupsen/logrus"
)

// Interface compliance check.
var _ parley.Sandbox = (*Sandbox)(nil)

// ExitError reports a failed execution. It wraps [parley.ErrExecution].
type ExitError struct {
	Code     int    // process exit code, -1 when killed
	TimedOut bool   // the timeout elapsed before the process exited
	Output   string // sanitized tail of combined stdout and stderr
	LogPath  string // temp file holding the full output, if offloaded
}

func (e *ExitError) Error() string {
	var b strings.Builder
	if e.TimedOut {
		b.WriteString("timed out")
	} else {
		fmt.Fprintf(&b, "exit code %d", e.Code)
	}
	if e.Output != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(e.Output, "\n"))
	}
	if e.LogPath != "" {
		fmt.Fprintf(&b, "\n[full output: %s]", e.LogPath)
	}
	return b.String()
}

func (e *ExitError) Unwrap() error { return parley.ErrExecution }

// Sandbox runs code with an interpreter that reads its program from stdin.
type Sandbox struct {
	command  []string
	timeout  time.Duration
	maxLines int
	maxBytes int
	log      logrus.FieldLogger
}

// Option configures a [Sandbox].
type Option func(*Sandbox)

// WithCommand sets the interpreter argv. The code is written to its stdin.
func WithCommand(argv ...string) Option {
	return func(s *Sandbox) { s.command = argv }
}

// WithTimeout bounds each execution. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) { s.timeout = d }
}

// WithOutputLimits sets the size of the output tail reported on failure.
func WithOutputLimits(maxLines, maxBytes int) Option {
	return func(s *Sandbox) {
		s.maxLines = maxLines
		s.maxBytes = maxBytes
	}
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sandbox) { s.log = l }
}

// New creates a [Sandbox] running [DefaultCommand].
func New(opts ...Option) *Sandbox {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Sandbox{
		command:  DefaultCommand,
		timeout:  DefaultTimeout,
		maxLines: DefaultMaxLines,
		maxBytes: DefaultMaxBytes,
		log:      discard,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Execute runs code and waits for the interpreter to exit. A non-zero exit
// or a timeout is reported as an [*ExitError].
func (s *Sandbox) Execute(ctx context.Context, code string) error {
	if len(s.command) == 0 {
		return fmt.Errorf("exec: no interpreter configured: %w", parley.ErrExecution)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.Stdin = strings.NewReader(code)

	out := NewOutputCollector(offloadThreshold, 2*offloadThreshold)
	defer out.Close()
	cmd.Stdout = out
	cmd.Stderr = out

	log := s.log.WithField("interpreter", s.command[0])
	start := time.Now()
	err := cmd.Run()
	log = log.WithField("elapsed", time.Since(start))
	if err == nil {
		log.Debug("execution succeeded")
		return nil
	}

	var exitErr *osexec.ExitError
	realExit := errors.As(err, &exitErr) && exitErr.ExitCode() >= 0
	if !realExit && exitErr == nil && ctx.Err() == nil {
		return fmt.Errorf("exec: start %s: %w: %w", s.command[0], parley.ErrExecution, err)
	}

	result := &ExitError{
		Code:    -1,
		Output:  TruncateTail(Sanitize(string(out.Bytes())), s.maxLines, s.maxBytes),
		LogPath: out.FilePath(),
	}
	if realExit {
		result.Code = exitErr.ExitCode()
	} else if ctx.Err() != nil {
		result.TimedOut = true
	}
	log.WithField("exit_code", result.Code).Warn("execution failed")
	return result
}
