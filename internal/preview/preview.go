// Package preview shows an exported page in the terminal the way a search
// navigation would: the hit is highlighted and scrolled into view, and the
// table of contents marks the section being read.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"golang.org/x/net/html"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
	"github.com/f4ah6o/docsearch-go/internal/toc"
)

const (
	// DefaultWidth and DefaultHeight apply when the terminal size is unknown.
	DefaultWidth  = 100
	DefaultHeight = 30
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#42a5f5"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#42a5f5"))
)

// Options configures a preview.
type Options struct {
	Highlight highlight.Options
	// Width and Height size the viewport in terminal cells.
	Width, Height int
	// Style is a glamour standard style name; "" picks one for the terminal.
	Style string
}

// TerminalSize returns the size of stdout, or the defaults when stdout is
// not a terminal.
func TerminalSize() (width, height int) {
	fd := os.Stdout.Fd()
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return DefaultWidth, DefaultHeight
}

// Preview renders pages into a terminal viewport.
type Preview struct {
	opts Options
	conv *Converter
}

// New creates a Preview.
func New(opts Options) *Preview {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Style == "" {
		opts.Style = "notty"
		if term.IsTerminal(os.Stdout.Fd()) {
			opts.Style = "dark"
		}
	}
	return &Preview{opts: opts, conv: NewConverter()}
}

func (p *Preview) renderer() (RenderFunc, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(p.opts.Style),
		glamour.WithWordWrap(p.opts.Width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render, nil
}

// Run loads the page at path, navigates to it with params and writes the
// resulting viewport to w.
func (p *Preview) Run(ctx context.Context, path string, params url.Values, w io.Writer) error {
	root, err := LoadFile(path)
	if err != nil {
		return err
	}
	return p.Show(ctx, root, params, w)
}

// Show navigates to an already parsed page.
func (p *Preview) Show(ctx context.Context, root *html.Node, params url.Values, w io.Writer) error {
	render, err := p.renderer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	page := NewPage(ctx, root, p.opts.Highlight.Selector, p.conv, render)

	states := make(chan highlight.State, 16)
	hlOpts := p.opts.Highlight
	hlOpts.Offset /= LineHeight
	hlOpts.Observer = func(s highlight.State) {
		select {
		case states <- s:
		default:
		}
	}

	ctrl := highlight.NewController(page, hlOpts)
	defer ctrl.Stop()
	ctrl.Navigate(params)

	target, wanted := highlight.TargetFromQuery(params)
	found := false
	for wanted {
		select {
		case s := <-states:
			switch s {
			case highlight.Scrolled:
				found, wanted = true, false
			case highlight.Idle:
				wanted = false
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	page.Wait()

	var renderErr error
	ctrl.View(func(root *html.Node) {
		renderErr = p.write(w, page, root, target, found)
	})
	return renderErr
}

func (p *Preview) write(w io.Writer, page *Page, root *html.Node, target highlight.Target, found bool) error {
	lines, err := page.Lines()
	if err != nil {
		return err
	}

	top := min(max(page.Offset(), 0), max(len(lines)-p.opts.Height, 0))
	end := min(top+p.opts.Height, len(lines))

	headings := toc.Extract(root, p.opts.Highlight.Selector)
	tracker := toc.NewTracker(headings)
	positions := headingLines(headings, lines)
	// Replay the scroll so headings passed on the way down stay active.
	for y := 0; y <= top; y++ {
		tracker.Observe(positions, float64(y), float64(p.opts.Height))
	}
	active := tracker.Active()

	fmt.Fprintln(w, titleStyle.Render(Title(root)))
	for _, h := range headings {
		indent := strings.Repeat("  ", max(h.Level-1, 0))
		if h.ID == active {
			fmt.Fprintln(w, indent+activeStyle.Render("▸ "+h.Label))
		} else {
			fmt.Fprintln(w, indent+mutedStyle.Render("  "+h.Label))
		}
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", min(p.opts.Width, 40))))

	hl := lipgloss.NewStyle().Bold(true).Background(lipgloss.Color(p.highlightColor()))
	for _, line := range lines[top:end] {
		fmt.Fprintln(w, markHighlight(line, hl))
	}

	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", min(p.opts.Width, 40))))
	switch {
	case target.Text == "":
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("lines %d-%d of %d", top+1, end, len(lines))))
	case found:
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%q highlighted, lines %d-%d of %d", target.Text, top+1, end, len(lines))))
	default:
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%q not found on this page", target.Text)))
	}
	return nil
}

func (p *Preview) highlightColor() string {
	if p.opts.Highlight.Background != "" {
		return p.opts.Highlight.Background
	}
	return highlight.DefaultBackground
}

// markHighlight styles the marked part of a line and drops stray markers.
func markHighlight(line string, style lipgloss.Style) string {
	start := strings.Index(line, markStart)
	if start >= 0 {
		if n := strings.Index(line[start:], markEnd); n >= 0 {
			end := start + n
			line = line[:start] + style.Render(line[start+len(markStart):end]) + line[end+len(markEnd):]
		}
	}
	return strings.NewReplacer(markStart, "", markEnd, "").Replace(line)
}

// headingLines locates each heading's label in the rendered lines, in
// document order.
func headingLines(headings []toc.Heading, lines []string) map[string]toc.Box {
	positions := make(map[string]toc.Box, len(headings))
	from := 0
	for _, h := range headings {
		for i := from; i < len(lines); i++ {
			if strings.Contains(ansi.Strip(lines[i]), h.Label) {
				positions[h.ID] = toc.Box{Top: float64(i), Height: 1}
				from = i + 1
				break
			}
		}
	}
	return positions
}
