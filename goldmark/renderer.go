package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Renderer turns markdown into styled terminal text. It is safe for
// concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	codeStyle string

	bold   lipgloss.Style
	italic lipgloss.Style
	strike lipgloss.Style
	link   lipgloss.Style
	accent lipgloss.Style
	muted  lipgloss.Style
	code   lipgloss.Style
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithCodeStyle selects the chroma style for fenced code. Unknown names
// fall back to chroma's default style.
func WithCodeStyle(name string) Option {
	return func(r *Renderer) { r.codeStyle = name }
}

// New creates a [Renderer] using theme colors.
func New(theme parley.Theme, opts ...Option) *Renderer {
	r := &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.Strikethrough)),
		codeStyle: DefaultCodeStyle,
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		link:      lipgloss.NewStyle().Underline(true),
		accent:    lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		code:      lipgloss.NewStyle().Foreground(color(theme.Accent)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Render parses source and returns the styled output. A width of zero or
// less selects 80 columns.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	w := &writer{r: r, src: src}
	w.blocks(doc, width, "")
	return strings.TrimRight(w.buf.String(), "\n")
}

// writer accumulates the output of one Render call.
type writer struct {
	r   *Renderer
	src []byte
	buf bytes.Buffer
}

// blocks renders every child of parent, separating them by blank lines.
// Each output line is prefixed with indent.
func (w *writer) blocks(parent ast.Node, width int, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, width, indent)
		if n.NextSibling() != nil {
			w.buf.WriteString(strings.TrimRight(indent, " ") + "\n")
		}
	}
}

func (w *writer) block(n ast.Node, width int, indent string) {
	r := w.r
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n), width, indent, indent)

	case *ast.Heading:
		w.wrapped(r.accent.Render(w.inline(n)), width, indent, indent)

	case *ast.FencedCodeBlock:
		lang := string(n.Language(w.src))
		if lang != "" {
			w.line(indent + r.muted.Render(lang))
		}
		w.code(w.lines(n), lang, indent)

	case *ast.CodeBlock:
		w.code(w.lines(n), "", indent)

	case *ast.List:
		w.list(n, width, indent)

	case *ast.Blockquote:
		w.blocks(n, width-2, indent+r.muted.Render("│")+" ")

	case *ast.ThematicBreak:
		w.line(indent + r.muted.Render(strings.Repeat("─", min(width, 40))))

	case *ast.HTMLBlock:
		w.line(indent + strings.TrimRight(w.lines(n), "\n"))

	default:
		w.blocks(n, width, indent)
	}
}

// lines returns the raw source lines of a block.
func (w *writer) lines(n ast.Node) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.src))
	}
	return b.String()
}

// code writes a code block behind a gutter, highlighted when lang is known.
func (w *writer) code(src, lang, indent string) {
	src = strings.TrimRight(src, "\n")
	if out, ok := highlight(src, lang, w.r.codeStyle); ok {
		src = out
	}
	gutter := indent + w.r.muted.Render("│") + " "
	for _, l := range strings.Split(src, "\n") {
		w.line(gutter + l)
	}
}

func (w *writer) list(n *ast.List, width int, indent string) {
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		w.item(c, width, indent, marker)
	}
}

// item renders a list item. The first text line carries the marker; every
// other line, including nested lists, is indented to align with the text.
func (w *writer) item(item ast.Node, width int, indent, marker string) {
	pad := indent + strings.Repeat(" ", len(marker))
	first := true
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			lead := pad
			if first {
				lead = indent + marker
			}
			w.wrapped(w.inline(c), width-len(marker), lead, pad)
		case *ast.List:
			if first {
				w.line(indent + strings.TrimRight(marker, " "))
			}
			w.list(c, width-len(marker), pad)
		default:
			if first {
				w.line(indent + strings.TrimRight(marker, " "))
			}
			w.block(c, width-len(marker), pad)
		}
		first = false
	}
	if first {
		w.line(indent + strings.TrimRight(marker, " "))
	}
}

// wrapped word-wraps s to width and writes it, prefixing the first line
// with lead and the others with pad.
func (w *writer) wrapped(s string, width int, lead, pad string) {
	width = max(width, 10)
	for i, l := range strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n") {
		if i == 0 {
			w.line(lead + l)
		} else {
			w.line(pad + l)
		}
	}
}

func (w *writer) line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

// inline collects the styled inline content of n.
func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	r := w.r
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(r.italic.Render(w.inline(n)))
		} else {
			b.WriteString(r.bold.Render(w.inline(n)))
		}
	case *extast.Strikethrough:
		b.WriteString(r.strike.Render(w.inline(n)))
	case *ast.CodeSpan:
		b.WriteString(r.code.Render(w.inline(n)))
	case *ast.Link:
		b.WriteString(r.link.Render(w.inline(n)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		b.WriteString(r.link.Render(w.inline(n)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(w.src))))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
