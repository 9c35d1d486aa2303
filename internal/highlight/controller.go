package highlight

import (
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// State is the phase of a highlight navigation.
type State int

const (
	// Idle means no highlight is pending or shown.
	Idle State = iota
	// Pending waits for the page to settle.
	Pending
	// Searching looks for the target text.
	Searching
	// Highlighting shows the wrapped hit before scrolling.
	Highlighting
	// Scrolled shows the hit after scrolling to it.
	Scrolled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Searching:
		return "searching"
	case Highlighting:
		return "highlighting"
	case Scrolled:
		return "scrolled"
	default:
		return "unknown"
	}
}

// Page is the document a Controller highlights in.
type Page interface {
	// Root returns the document tree.
	Root() *html.Node
	// Top returns the vertical position of n within the page.
	Top(n *html.Node) (int, bool)
	// ScrollTo moves the viewport so that y is at its top.
	ScrollTo(y int)
}

// Controller runs the highlight state machine for one page. All timers it
// starts are cancelled when a new navigation arrives or Stop is called.
type Controller struct {
	page Page
	opts Options

	mu     sync.Mutex
	state  State
	gen    uint64
	timers []*time.Timer
	target Target
	span   *html.Node
}

// NewController creates a Controller for page.
func NewController(page Page, opts Options) *Controller {
	return &Controller{page: page, opts: opts.withDefaults()}
}

// Navigate starts a new highlight run from the page's query parameters.
// Any run in progress is cancelled first. Without a highlight parameter
// the controller goes idle.
func (c *Controller) Navigate(params url.Values) {
	c.mu.Lock()
	c.cancelLocked()
	target, ok := TargetFromQuery(params)
	if !ok {
		c.state = Idle
		c.mu.Unlock()
		c.notify(Idle)
		return
	}
	c.target = target
	c.state = Pending
	gen := c.gen
	c.afterLocked(c.opts.SettleDelay, func() { c.search(gen) })
	c.mu.Unlock()
	c.notify(Pending)
}

// Stop cancels every pending timer and removes a highlight still shown.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelLocked()
	c.state = Idle
	c.mu.Unlock()
	c.notify(Idle)
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Target returns the target of the latest navigation.
func (c *Controller) Target() Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// View calls fn with the page tree while no timer can mutate it.
func (c *Controller) View(fn func(root *html.Node)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.page.Root())
}

// cancelLocked stops all timers. The expiry timer is among them, so a live
// span is unwrapped here instead.
func (c *Controller) cancelLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.gen++
	if c.span != nil {
		Unwrap(c.span)
		c.span = nil
	}
}

func (c *Controller) afterLocked(d time.Duration, fn func()) {
	c.timers = append(c.timers, time.AfterFunc(d, fn))
}

// step runs fn under the lock if gen is still current and reports the
// resulting state.
func (c *Controller) step(gen uint64, fn func()) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	fn()
	state := c.state
	c.mu.Unlock()
	c.notify(state)
}

func (c *Controller) search(gen uint64) {
	c.step(gen, func() {
		c.state = Searching
		root := c.page.Root()
		Clear(root)

		span, ok := Apply(root, c.target, c.opts)
		if !ok {
			c.state = Idle
			return
		}
		c.span = span
		c.state = Highlighting
		c.afterLocked(c.opts.ScrollDelay, func() { c.scroll(gen) })
		c.afterLocked(c.opts.Duration, func() { c.expire(gen) })
	})
}

func (c *Controller) scroll(gen uint64) {
	c.step(gen, func() {
		if c.span == nil || c.span.Parent == nil {
			return
		}
		top, ok := c.page.Top(c.span)
		if !ok {
			return
		}
		c.page.ScrollTo(max(top-c.opts.Offset, 0))
		c.state = Scrolled
	})
}

func (c *Controller) expire(gen uint64) {
	c.step(gen, func() {
		if c.span != nil {
			Unwrap(c.span)
			c.span = nil
		}
		c.state = Idle
	})
}

func (c *Controller) notify(s State) {
	if c.opts.Observer != nil {
		c.opts.Observer(s)
	}
}
