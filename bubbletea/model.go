package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/goldmark"
	"github.com/mattn/go-runewidth"
)

const (
	// DefaultModel is submitted when no model has been chosen or loaded.
	DefaultModel = "llama3"

	// StatusNoModels and StatusModelsFailed replace the model name in the
	// status line after an empty or failed catalog refresh.
	StatusNoModels     = "no models available"
	StatusModelsFailed = "failed to load models"

	tickInterval   = 100 * time.Millisecond
	noticeDuration = 3 * time.Second
)

var _ tea.Model = Model{}

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeError
)

type notice struct {
	text string
	kind noticeKind
	seq  int
}

// Model is the Bubble Tea model for the parley TUI. It renders snapshots of
// the engine's transcript and forwards user actions to the engine.
type Model struct {
	// Input is the prompt field. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the loading indicator.
	Spinner spinner.Model

	engine   Engine
	catalog  parley.ModelCatalog
	settings parley.Settings
	ctx      context.Context
	renderer *goldmark.Renderer
	styles   Styles

	blocks  []MessageBlock
	turns   []parley.Turn
	version uint64
	synced  bool

	models       []string
	current      string
	modelsLoaded bool
	modelsErr    error

	notice    notice
	noticeSeq int

	ticking   bool
	spinning  bool
	executing bool
	ready     bool
}

// Option configures a [Model].
type Option func(*Model)

// WithCatalog sets the source of selectable models.
func WithCatalog(c parley.ModelCatalog) Option {
	return func(m *Model) { m.catalog = c }
}

// WithSettings sets the live settings shown in the status line.
func WithSettings(s parley.Settings) Option {
	return func(m *Model) { m.settings = s }
}

// WithModel sets the initially selected model.
func WithModel(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.current = name
		}
	}
}

// WithContext sets the context passed to catalog refreshes and code
// execution.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// New creates a new TUI Model presenting eng.
func New(eng Engine, theme parley.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		Input:    ti,
		Spinner:  sp,
		engine:   eng,
		ctx:      context.Background(),
		renderer: goldmark.New(theme),
		styles:   NewStyles(theme),
		current:  DefaultModel,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// SelectedModel returns the model used for the next submission.
func (m Model) SelectedModel() string { return m.current }

// Models returns the names loaded by the last catalog refresh.
func (m Model) Models() []string { return slices.Clone(m.models) }

// Notice returns the transient notice currently shown, if any.
func (m Model) Notice() string { return m.notice.text }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		listenForChange(m.ctx, m.engine.Changed()),
		m.loadModels(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChangedMsg:
		var cmd tea.Cmd
		m, cmd = m.refresh().startLoading()
		return m, tea.Batch(listenForChange(m.ctx, m.engine.Changed()), cmd)

	case TickMsg:
		m = m.refresh()
		if m.engine.Loading() {
			return m, tick()
		}
		m.ticking = false
		return m, nil

	case spinner.TickMsg:
		if !m.engine.Loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case ModelsMsg:
		return m.setModels(msg)

	case ExecutedMsg:
		m.executing = false
		m = m.refresh()
		if msg.Err != nil {
			return m.notify(noticeText(msg.Err), noticeError)
		}
		return m.notify("Code executed successfully", noticeSuccess)

	case noticeExpiredMsg:
		if msg.seq == m.notice.seq {
			m.notice = notice{}
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width

	m = m.refresh()
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyTab:
		return m.cycleModel(), nil

	case tea.KeyCtrlR:
		return m, m.loadModels()

	case tea.KeyCtrlE:
		return m.execute()

	case tea.KeyCtrlL:
		if err := m.engine.Clear(); err != nil {
			return m.notify(noticeText(err), noticeError)
		}
		return m.refresh().notify("Conversation cleared", noticeInfo)
	}

	// Only non-character keys scroll the viewport so 'j'/'k' stay text.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	prompt := m.Input.Value()
	if strings.TrimSpace(prompt) == "" {
		return m, nil
	}
	if err := m.engine.Submit(prompt, m.current); err != nil {
		return m.notify(noticeText(err), noticeError)
	}
	m.Input.SetValue("")
	m.notice = notice{}
	m = m.refresh()
	return m.startLoading()
}

func (m Model) execute() (tea.Model, tea.Cmd) {
	if m.executing {
		return m, nil
	}
	m.executing = true
	eng, ctx := m.engine, m.ctx
	return m, func() tea.Msg {
		return ExecutedMsg{Err: eng.ExecuteLastResponseCode(ctx)}
	}
}

// startLoading arms the refresh tick and the spinner while a reply is being
// generated. Each runs at most once at a time and stops itself when
// loading ends.
func (m Model) startLoading() (Model, tea.Cmd) {
	if !m.engine.Loading() {
		return m, nil
	}
	var cmds []tea.Cmd
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, tick())
	}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.Spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) loadModels() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	catalog, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		names, err := catalog.Models(ctx)
		return ModelsMsg{Names: names, Err: err}
	}
}

func (m Model) setModels(msg ModelsMsg) (Model, tea.Cmd) {
	m.modelsLoaded = true
	if msg.Err != nil {
		m.models = nil
		m.modelsErr = msg.Err
		return m.notify(fmt.Sprintf("Failed to load models: %v", msg.Err), noticeError)
	}
	m.modelsErr = nil
	m.models = slices.Clone(msg.Names)
	if len(m.models) > 0 && !slices.Contains(m.models, m.current) {
		m.current = m.models[0]
	}
	return m, nil
}

func (m Model) cycleModel() Model {
	if len(m.models) == 0 {
		return m
	}
	i := slices.Index(m.models, m.current)
	m.current = m.models[(i+1)%len(m.models)]
	return m
}

func (m Model) notify(text string, kind noticeKind) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = notice{text: text, kind: kind, seq: m.noticeSeq}
	seq := m.noticeSeq
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// refresh rebuilds the blocks from the engine's transcript when its version
// moved since the last render.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	v := m.engine.Version()
	if m.synced && v == m.version {
		return m
	}
	m.version, m.synced = v, true
	m.turns = m.engine.Turns()
	m.blocks = m.syncBlocks(m.turns)
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

// syncBlocks maps turns to blocks, reusing an assistant block when the turn
// only grew so its finalized paragraphs stay cached.
func (m Model) syncBlocks(turns []parley.Turn) []MessageBlock {
	blocks := make([]MessageBlock, len(turns))
	for i, turn := range turns {
		var prev MessageBlock
		if i < len(m.blocks) {
			prev = m.blocks[i]
		}
		blocks[i] = m.blockFor(turn, prev)
	}
	return blocks
}

func (m Model) blockFor(turn parley.Turn, prev MessageBlock) MessageBlock {
	switch {
	case turn.Role == parley.RoleUser:
		if b, ok := prev.(*UserMessageBlock); ok && b.Text() == turn.Content {
			return b
		}
		return NewUserMessageBlock(turn.Content, m.styles)
	case turn.IsError:
		if b, ok := prev.(*ErrorBlock); ok && b.Text() == turn.Content {
			return b
		}
		return NewErrorBlock(turn.Content, m.styles)
	default:
		if b, ok := prev.(*AssistantTextBlock); ok && strings.HasPrefix(turn.Content, b.Content()) {
			b.Append(turn.Content[len(b.Content()):])
			return b
		}
		b := NewAssistantTextBlock(m.renderer)
		b.Append(turn.Content)
		return b
	}
}

func (m Model) renderContent() string {
	var b strings.Builder
	var prev MessageBlock
	for _, block := range m.blocks {
		view := block.View(m.Viewport.Width)
		if view == "" {
			continue
		}
		b.WriteString(blockSeparator(prev, block))
		b.WriteString(view)
		prev = block
	}
	return b.String()
}

// canExecute reports whether the last turn offers code to run by hand.
func (m Model) canExecute() bool {
	if m.autoExecute() || m.engine.Loading() || len(m.turns) == 0 {
		return false
	}
	last := m.turns[len(m.turns)-1]
	if last.Role != parley.RoleAssistant || last.IsError {
		return false
	}
	_, ok := parley.FindCodeBlock(last.Content)
	return ok
}

func (m Model) autoExecute() bool {
	return m.settings != nil && m.settings.AutoExecute()
}

func (m Model) modelLabel() string {
	switch {
	case m.modelsErr != nil:
		return StatusModelsFailed
	case m.modelsLoaded && len(m.models) == 0:
		return StatusNoModels
	}
	return m.current
}

func (m Model) statusLine() string {
	autoExec := "off"
	if m.autoExecute() {
		autoExec = "on"
	}
	parts := []string{m.modelLabel(), "auto-exec " + autoExec}
	style := m.styles.Muted

	switch {
	case m.engine.Loading():
		parts = append(parts, m.Spinner.View()+" Generating response...")
		style = m.styles.Accent
	case m.executing:
		parts = append(parts, "Executing code...")
		style = m.styles.Accent
	case m.notice.text != "":
		parts = append(parts, m.notice.text)
		switch m.notice.kind {
		case noticeError:
			style = m.styles.Error
		case noticeSuccess:
			style = m.styles.Success
		default:
			style = m.styles.Warning
		}
	case m.canExecute():
		parts = append(parts, "Ctrl+E to execute code", "Enter to send")
	default:
		parts = append(parts, "Enter to send, Tab to switch model, Ctrl+L to clear, Ctrl+C to quit")
	}

	line := strings.Join(parts, " | ")
	if w := m.Viewport.Width; w > 0 {
		line = runewidth.Truncate(line, w, "…")
	}
	return style.Render(line)
}

func noticeText(err error) string {
	switch {
	case errors.Is(err, parley.ErrBusy):
		return "Busy: wait for the current response to finish"
	case errors.Is(err, parley.ErrNoAssistantTurn):
		return "No assistant response to execute"
	case errors.Is(err, parley.ErrNoCodeFound):
		return "No code found in the last response"
	case errors.Is(err, parley.ErrExecution):
		return "Code execution failed"
	}
	return err.Error()
}
