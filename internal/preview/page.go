package preview

import (
	"context"
	"math"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
	"github.com/f4ah6o/docsearch-go/internal/toc"
)

// LineHeight is how many page pixels one terminal line stands for.
const LineHeight = 24

// RenderFunc turns Markdown into terminal text.
type RenderFunc func(markdown string) (string, error)

// Page is a line-addressed terminal view of an HTML page. Positions are
// line numbers of the rendered content region.
type Page struct {
	ctx      context.Context
	root     *html.Node
	selector string
	conv     *Converter
	render   RenderFunc

	mu  sync.Mutex
	top int
	wg  sync.WaitGroup
}

// NewPage creates a Page over root. Scroll animations stop when ctx ends.
func NewPage(ctx context.Context, root *html.Node, selector string, conv *Converter, render RenderFunc) *Page {
	return &Page{ctx: ctx, root: root, selector: selector, conv: conv, render: render}
}

// Root returns the document tree.
func (p *Page) Root() *html.Node {
	return p.root
}

// Lines renders the content region into terminal lines.
func (p *Page) Lines() ([]string, error) {
	markdown, err := p.conv.ToMarkdown(highlight.ContentRegion(p.root, p.selector))
	if err != nil {
		return nil, err
	}
	out, err := p.render(markdown)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}

// Top returns the line holding the highlight. Only highlight spans can be
// located; any other node reports false.
func (p *Page) Top(n *html.Node) (int, bool) {
	lines, err := p.Lines()
	if err != nil {
		return 0, false
	}
	for i, line := range lines {
		if strings.Contains(line, markStart) {
			return i, true
		}
	}
	return 0, false
}

// ScrollTo animates the viewport towards line y.
func (p *Page) ScrollTo(y int) {
	from := p.Offset()
	d := toc.ScrollDuration(float64(y-from) * LineHeight)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		toc.Animate(p.ctx, float64(from), float64(y), d, func(pos float64) {
			p.mu.Lock()
			p.top = int(math.Round(pos))
			p.mu.Unlock()
		})
	}()
}

// Offset returns the first visible line.
func (p *Page) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

// Wait blocks until running scroll animations finish.
func (p *Page) Wait() {
	p.wg.Wait()
}
