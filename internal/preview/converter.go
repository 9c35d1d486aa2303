package preview

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
)

// Private-use runes bracket highlighted text in the generated Markdown.
const (
	markStart = "\ue000"
	markEnd   = "\ue001"
)

var (
	metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([^"'\s>]+)`)
	httpEquivRe   = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']?Content-Type["']?[^>]+content=["']?[^"']*charset=([^"'\s;>]+)`)
	httpEquivRe2  = regexp.MustCompile(`(?i)<meta[^>]+content=["']?[^"']*charset=([^"'\s;>]+)[^>]+http-equiv=["']?Content-Type["']?`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// unwantedSelectors never reach the terminal.
var unwantedSelectors = []string{
	"script", "style", "meta", "link", "noscript", "iframe", "svg",
	"nav", "[role=navigation]", "header", "footer",
}

// Converter turns page content into Markdown with highlight spans marked.
type Converter struct {
	mdConverter *md.Converter
}

// NewConverter creates a new Converter instance.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.AddRules(md.Rule{
		Filter: []string{"span"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if !selec.HasClass(highlight.ClassName) {
				return nil
			}
			return md.String(markStart + content + markEnd)
		},
	})
	return &Converter{mdConverter: converter}
}

// ToMarkdown converts the subtree at n. The tree itself is not modified.
func (c *Converter) ToMarkdown(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	for _, selector := range unwantedSelectors {
		doc.Find(selector).Remove()
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}

	markdown, err := c.mdConverter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return postProcessMarkdown(markdown), nil
}

func postProcessMarkdown(md string) string {
	md = blankLinesRe.ReplaceAllString(md, "\n\n")

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// LoadFile reads and parses an exported HTML page, honoring its declared
// charset.
func LoadFile(path string) (*html.Node, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML file: %w", err)
	}
	root, err := html.Parse(strings.NewReader(decodeHTML(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return root, nil
}

// Title returns the page title, falling back to the first h1.
func Title(root *html.Node) string {
	doc := goquery.NewDocumentFromNode(root)
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return "Untitled"
}

// decodeHTML decodes HTML bytes to string using the charset declared in a
// meta tag, or as UTF-8.
func decodeHTML(body []byte) string {
	if enc := getEncodingFromMeta(body); enc != nil {
		if decoded, err := decodeWithEncoding(body, enc); err == nil {
			return decoded
		}
	}
	return strings.TrimPrefix(string(body), "\ufeff")
}

// getEncodingFromMeta looks for a declared charset in the raw bytes. A UTF-8
// BOM wins over any declaration.
func getEncodingFromMeta(body []byte) encoding.Encoding {
	if bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}) {
		return nil
	}
	for _, re := range []*regexp.Regexp{metaCharsetRe, httpEquivRe, httpEquivRe2} {
		if m := re.FindSubmatch(body); len(m) > 1 {
			if enc, err := htmlindex.Get(string(m[1])); err == nil {
				return enc
			}
		}
	}
	return nil
}

func decodeWithEncoding(body []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
