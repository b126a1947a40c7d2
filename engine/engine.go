// Package engine runs the conversation: it submits prompts to a
// [parley.Provider] on a background worker, streams the reply through a
// [parley.StreamParser] into a [parley.Transcript] and optionally hands the
// first code block of the reply to a [parley.Sandbox].
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/parley"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("engine: closed")

// Engine owns the transcript, the loading flag and the lifecycle state of
// the current submission. At most one submission is in flight at a time.
type Engine struct {
	provider parley.Provider
	scene    parley.SceneProvider
	sandbox  parley.Sandbox
	settings parley.Settings
	preamble string
	log      logrus.FieldLogger
	newID    func() string

	transcript *parley.Transcript
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	changed    chan struct{}

	mu      sync.Mutex
	state   parley.State
	loading bool
	busy    bool // a worker or a manual execution is running
}

// Option configures an [Engine].
type Option func(*Engine)

// WithScene sets the provider of the environment description placed in the
// system turn.
func WithScene(s parley.SceneProvider) Option {
	return func(e *Engine) { e.scene = s }
}

// WithSandbox sets the sandbox used to run extracted code.
func WithSandbox(s parley.Sandbox) Option {
	return func(e *Engine) { e.sandbox = s }
}

// WithSettings sets the live settings consulted on every submission.
func WithSettings(s parley.Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithPreamble overrides the system turn preamble.
func WithPreamble(p string) Option {
	return func(e *Engine) { e.preamble = p }
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an [Engine] with an empty transcript in [parley.StateIdle].
func New(provider parley.Provider, opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		provider:   provider,
		log:        discard,
		newID:      uuid.NewString,
		transcript: parley.NewTranscript(),
		ctx:        ctx,
		cancel:     cancel,
		changed:    make(chan struct{}, 1),
		state:      parley.StateIdle,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Submit appends the prompt and an empty assistant turn to the transcript
// and starts streaming the reply in the background. It returns without
// waiting for any network activity.
func (e *Engine) Submit(prompt, model string) error {
	if strings.TrimSpace(prompt) == "" {
		return parley.ErrInvalidInput
	}
	if e.ctx.Err() != nil {
		return ErrClosed
	}

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return parley.ErrBusy
	}
	if err := e.transcript.AppendUser(prompt); err != nil {
		e.mu.Unlock()
		return err
	}
	e.transcript.AppendAssistantPlaceholder()
	e.busy = true
	e.loading = true
	e.state = parley.StateSubmitting
	e.wg.Add(1)
	e.mu.Unlock()
	e.notify()

	log := e.log.WithFields(logrus.Fields{
		"request_id": e.newID(),
		"model":      model,
	})
	go e.run(log, model)
	return nil
}

func (e *Engine) run(log logrus.FieldLogger, model string) {
	defer e.wg.Done()
	defer e.release()

	start := time.Now()
	content, err := e.stream(log, model)
	if err != nil {
		e.transcript.FailOpenAssistant("Error: " + err.Error())
		e.setState(parley.StateErrorCompleted)
		log.WithError(err).Warn("response failed")
		return
	}
	e.transcript.CloseOpenAssistant()
	e.setState(parley.StateCompleted)
	log.WithField("elapsed", time.Since(start)).Debug("response completed")

	if !e.autoExecute() {
		return
	}
	code, ok := parley.ExtractCode(content)
	if !ok {
		return
	}
	if err := e.sandbox.Execute(e.ctx, code); err != nil {
		e.transcript.AppendAssistantError("Error executing code: " + err.Error())
		e.notify()
		log.WithError(err).Warn("auto-execute failed")
		return
	}
	log.Info("auto-execute succeeded")
}

// stream performs one request and applies visible deltas to the open turn.
// It returns the final visible content.
func (e *Engine) stream(log logrus.FieldLogger, model string) (string, error) {
	var scene string
	if e.scene != nil {
		var err error
		if scene, err = e.scene.Describe(e.ctx); err != nil {
			return "", fmt.Errorf("describe scene: %w", err)
		}
	}

	system := parley.Turn{
		Role:      parley.RoleSystem,
		Content:   parley.SystemPrompt(e.preamble, scene),
		Timestamp: time.Now(),
	}
	req := parley.Request{
		BaseURL:  e.baseURL(),
		Model:    model,
		Messages: append([]parley.Turn{system}, e.transcript.SnapshotForRequest()...),
	}

	s, err := e.provider.Stream(e.ctx, req)
	if err != nil {
		return "", err
	}
	defer s.Close()

	var parser parley.StreamParser
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		e.markStreaming()
		if _, ok := parser.Feed(chunk.Content); ok {
			e.transcript.UpdateOpenAssistant(parser.Visible())
			e.notify()
		}
		if chunk.Done {
			log.WithFields(logrus.Fields{
				"done_reason":   chunk.DoneReason,
				"input_tokens":  chunk.Usage.InputTokens,
				"output_tokens": chunk.Usage.OutputTokens,
			}).Info("response done")
			break
		}
	}
	if parser.InReasoning() {
		log.Debug("response ended inside a reasoning block")
	}
	return parser.Visible(), nil
}

// Clear empties the transcript and returns the engine to [parley.StateIdle].
func (e *Engine) Clear() error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return parley.ErrBusy
	}
	e.transcript.Clear()
	e.state = parley.StateIdle
	e.mu.Unlock()
	e.notify()
	return nil
}

// ExecuteLastResponseCode runs the first code block of the last assistant
// turn. It blocks until the sandbox returns. A sandbox failure is appended
// to the transcript as an error turn and returned wrapping
// [parley.ErrExecution].
func (e *Engine) ExecuteLastResponseCode(ctx context.Context) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return parley.ErrBusy
	}
	last, ok := e.transcript.Last()
	if !ok || last.Role != parley.RoleAssistant {
		e.mu.Unlock()
		return parley.ErrNoAssistantTurn
	}
	code, ok := parley.ExtractCode(last.Content)
	if !ok {
		e.mu.Unlock()
		return parley.ErrNoCodeFound
	}
	if e.sandbox == nil {
		e.mu.Unlock()
		return fmt.Errorf("engine: no sandbox configured: %w", parley.ErrExecution)
	}
	e.busy = true
	e.mu.Unlock()
	defer e.release()

	if err := e.sandbox.Execute(ctx, code); err != nil {
		e.transcript.AppendAssistantError("Error executing code: " + err.Error())
		e.notify()
		e.log.WithError(err).Warn("execute failed")
		return fmt.Errorf("engine: %w: %w", parley.ErrExecution, err)
	}
	e.log.Info("execute succeeded")
	return nil
}

// Turns returns a copy of the transcript.
func (e *Engine) Turns() []parley.Turn {
	return e.transcript.Turns()
}

// Loading reports whether a reply is being generated.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Busy reports whether a submission or an execution is still running.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// State returns the lifecycle state of the most recent submission.
func (e *Engine) State() parley.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Version returns the transcript version.
func (e *Engine) Version() uint64 {
	return e.transcript.Version()
}

// Changed returns a channel that receives after state or transcript changes.
// Signals are coalesced; receivers should re-read the full state.
func (e *Engine) Changed() <-chan struct{} {
	return e.changed
}

// Wait blocks until the current submission, if any, has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels any in-flight request and waits for the worker to exit.
func (e *Engine) Close() error {
	e.cancel()
	e.wg.Wait()
	return nil
}

func (e *Engine) setState(s parley.State) {
	e.mu.Lock()
	e.state = s
	if s.Terminal() {
		e.loading = false
	}
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) markStreaming() {
	e.mu.Lock()
	if e.state != parley.StateSubmitting {
		e.mu.Unlock()
		return
	}
	e.state = parley.StateStreaming
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) release() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) notify() {
	select {
	case e.changed <- struct{}{}:
	default:
	}
}

func (e *Engine) baseURL() string {
	if e.settings == nil {
		return ""
	}
	return e.settings.BaseURL()
}

func (e *Engine) autoExecute() bool {
	return e.sandbox != nil && e.settings != nil && e.settings.AutoExecute()
}
