package extractor

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Frontmatter represents the YAML frontmatter of a Markdown content file.
type Frontmatter struct {
	// Title is the page title.
	Title string `yaml:"title"`
	// URL is the route of the page rendering the file.
	URL string `yaml:"url"`
	// Section groups the page in navigation.
	Section string `yaml:"section"`
}

var frontmatterRe = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n`)

var markdownParser = goldmark.New()

// splitFrontmatter separates YAML frontmatter from the body. The returned
// offset is where the body starts in content.
func splitFrontmatter(content string) (*Frontmatter, string, int, error) {
	loc := frontmatterRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return nil, content, 0, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(content[loc[2]:loc[3]]), &fm); err != nil {
		return nil, content, 0, err
	}
	return &fm, content[loc[1]:], loc[1], nil
}

// ExtractMarkdown returns the paragraphs, headings and list text of a
// Markdown document. Offsets are relative to the start of content,
// frontmatter included.
func ExtractMarkdown(content string) (*Frontmatter, []Block, error) {
	fm, body, base, err := splitFrontmatter(content)
	if err != nil {
		return nil, nil, err
	}

	src := []byte(body)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var blocks []Block
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock:
			lines := n.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			if t := Clean(inlineText(n, src)); t != "" {
				blocks = append(blocks, Block{Offset: base + lines.At(0).Start, Text: t})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return fm, blocks, nil
}

// inlineText concatenates the text of the inline children of n.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				sb.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(v.Value)
			case *ast.RawHTML:
				sb.WriteByte(' ')
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}
