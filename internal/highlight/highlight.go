// Package highlight marks the first occurrence of a search hit in a page.
//
// Pages are parsed HTML documents. Apply wraps the hit in a styled span,
// Clear restores the original text, and Controller sequences the settle,
// scroll and expiry timers of a navigation the way the browser would.
package highlight

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// ClassName marks highlight spans.
	ClassName = "docsearch-highlight"
	// StyleID is the id of the injected keyframes element.
	StyleID = "docsearch-highlight-style"
	// AnimationName is the CSS animation that fades the highlight out.
	AnimationName = "docsearch-highlight-fade"

	// DefaultSelector identifies the main content region of a page.
	DefaultSelector = ".flex.flex-col.mx-auto"
	// DefaultBackground is the theme's primary-light color.
	DefaultBackground = "#42a5f5"
)

// Options configures highlighting.
type Options struct {
	// Selector picks the content region; <body> is used when nothing matches.
	Selector string
	// SettleDelay is the wait before the page is searched.
	SettleDelay time.Duration
	// ScrollDelay is the wait between wrapping the hit and scrolling to it.
	ScrollDelay time.Duration
	// Duration is how long the highlight stays before it is unwrapped.
	Duration time.Duration
	// Offset keeps the hit clear of a fixed header when scrolling.
	Offset int
	// Background is the highlight color.
	Background string
	// Observer, if set, is called after every state change.
	Observer func(State)
}

// DefaultOptions returns the site's highlight timing and styling.
func DefaultOptions() Options {
	return Options{
		Selector:    DefaultSelector,
		SettleDelay: 1000 * time.Millisecond,
		ScrollDelay: 100 * time.Millisecond,
		Duration:    2 * time.Second,
		Offset:      150,
		Background:  DefaultBackground,
	}
}

func (o Options) withDefaults() Options {
	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	return o
}

// Target is what a navigation asks to highlight.
type Target struct {
	Text string
	// Line is the source line of the hit. It is carried along but the
	// first occurrence in document order is always the one highlighted.
	Line int
}

// TargetFromQuery reads the highlight and line query parameters.
func TargetFromQuery(v url.Values) (Target, bool) {
	t := Target{Text: v.Get("highlight")}
	if t.Text == "" {
		return Target{}, false
	}
	t.Line, _ = strconv.Atoi(v.Get("line"))
	return t, true
}

// ContentRegion returns the first element matching selector, falling back
// to <body> and then to root itself.
func ContentRegion(root *html.Node, selector string) *html.Node {
	doc := goquery.NewDocumentFromNode(root)
	if selector != "" {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel.Get(0)
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body.Get(0)
	}
	return root
}

// Apply wraps the first occurrence of target.Text under the content region
// in a highlight span and returns it. Navigation landmarks, scripts and
// styles are not searched. When nothing matches the tree is left untouched
// and ok is false.
func Apply(root *html.Node, target Target, opts Options) (*html.Node, bool) {
	if root == nil || target.Text == "" {
		return nil, false
	}
	opts = opts.withDefaults()

	node := findText(ContentRegion(root, opts.Selector), target.Text)
	if node == nil {
		return nil, false
	}

	idx := strings.Index(node.Data, target.Text)
	pre := node.Data[:idx]
	post := node.Data[idx+len(target.Text):]

	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: ClassName},
			{Key: "style", Val: inlineStyle(opts)},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: target.Text})

	parent := node.Parent
	if pre != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: pre}, node)
	}
	parent.InsertBefore(span, node)
	if post != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: post}, node)
	}
	parent.RemoveChild(node)

	return span, true
}

// findText returns the first text node in document order that contains
// text, skipping subtrees that are never rendered as content.
func findText(n *html.Node, text string) *html.Node {
	if n.Type == html.TextNode {
		if strings.Contains(n.Data, text) {
			return n
		}
		return nil
	}
	if n.Type == html.ElementNode && skipped(n) {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, text); found != nil {
			return found
		}
	}
	return nil
}

func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return attr(n, "role") == "navigation"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isHighlight(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == ClassName {
			return true
		}
	}
	return false
}

// Clear replaces every highlight span under root with its text and merges
// the text nodes around it. It returns the number of spans removed.
func Clear(root *html.Node) int {
	var spans []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isHighlight(n) {
			spans = append(spans, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, span := range spans {
		Unwrap(span)
	}
	return len(spans)
}

// Unwrap replaces a single highlight span with a plain text node holding
// the same content.
func Unwrap(span *html.Node) {
	parent := span.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(&html.Node{Type: html.TextNode, Data: textContent(span)}, span)
	parent.RemoveChild(span)
	normalize(parent)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// normalize merges adjacent text children and drops empty ones.
func normalize(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			c = next
			continue
		}
		if c.Data == "" {
			parent.RemoveChild(c)
			c = next
			continue
		}
		if next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}

func inlineStyle(opts Options) string {
	return fmt.Sprintf("background-color: %s; border-radius: 2px; padding: 0 2px; animation: %s %dms ease-in-out forwards;",
		opts.Background, AnimationName, opts.Duration.Milliseconds())
}

var (
	stylesOnce sync.Once
	stylesText string
)

// styles returns the keyframes stylesheet, built on first use.
func styles() string {
	stylesOnce.Do(func() {
		stylesText = fmt.Sprintf(`@keyframes %[1]s {
  0%%, 75%% { opacity: 1; }
  100%% { background-color: transparent; }
}
`, AnimationName)
	})
	return stylesText
}

// EnsureStyles adds the highlight stylesheet to the document head unless an
// earlier call already did. It reports whether the stylesheet was added.
func EnsureStyles(root *html.Node) bool {
	doc := goquery.NewDocumentFromNode(root)
	if doc.Find("#" + StyleID).Length() > 0 {
		return false
	}

	host := root
	if head := doc.Find("head").First(); head.Length() > 0 {
		host = head.Get(0)
	} else if body := doc.Find("body").First(); body.Length() > 0 {
		host = body.Get(0)
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: styles()})
	host.AppendChild(style)
	return true
}

// Script returns the browser-side companion of a server-side Apply: it
// scrolls to the highlight after the scroll delay and unwraps the span when
// its animation ends.
func Script(opts Options) string {
	opts = opts.withDefaults()
	return fmt.Sprintf(`(function () {
  var el = document.querySelector("span.%[1]s");
  if (!el) return;
  setTimeout(function () {
    var top = el.getBoundingClientRect().top + window.pageYOffset - %[2]d;
    window.scrollTo({ top: Math.max(top, 0), behavior: "smooth" });
  }, %[3]d);
  el.addEventListener("animationend", function () {
    var parent = el.parentNode;
    if (!parent) return;
    parent.replaceChild(document.createTextNode(el.textContent), el);
    parent.normalize();
  });
})();
`, ClassName, opts.Offset, opts.ScrollDelay.Milliseconds())
}

// InjectScript appends the companion script to the document body.
func InjectScript(root *html.Node, opts Options) {
	host := root
	if body := goquery.NewDocumentFromNode(root).Find("body").First(); body.Length() > 0 {
		host = body.Get(0)
	}
	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: Script(opts)})
	host.AppendChild(script)
}
