// Package extractor builds the search index of a content tree.
// It walks the content directory, pulls the text of every <Typography>
// element out of JSX/TSX sources and every paragraph, heading and list item
// out of Markdown sources, and records where each piece of text starts.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/f4ah6o/docsearch-go/internal/search"
)

// DefaultTag is the JSX element whose text is indexed.
const DefaultTag = "Typography"

var (
	// DefaultInclude selects the sources that are scanned.
	DefaultInclude = []string{"**/*.tsx", "**/*.jsx", "**/*.md", "**/*.mdx"}
	// DefaultExclude skips dependencies and tests.
	DefaultExclude = []string{"**/node_modules/**", "**/*.test.*", "**/*.stories.*"}
)

// Options configures a Builder.
type Options struct {
	// Root is the content directory to scan.
	Root string
	// Tag is the JSX element whose text is indexed.
	Tag string
	// Include and Exclude are doublestar patterns matched against paths
	// relative to Root (and against the base name).
	Include []string
	Exclude []string
	// Verbose logs every scanned file.
	Verbose bool
}

// Progress receives build progress.
type Progress interface {
	Start(total int)
	Advance(file string)
	Finish()
}

// Page is frontmatter metadata found in a Markdown source.
type Page struct {
	File        string
	Frontmatter Frontmatter
}

// Result is the output of a build.
type Result struct {
	Records []search.TextRecord
	Pages   []Page
	Files   int
}

// Builder scans a content directory into text records.
type Builder struct {
	opts     Options
	progress Progress
}

// New creates a Builder. Empty options fall back to the defaults.
func New(opts Options) *Builder {
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}
	if len(opts.Include) == 0 {
		opts.Include = DefaultInclude
	}
	if opts.Exclude == nil {
		opts.Exclude = DefaultExclude
	}
	return &Builder{opts: opts}
}

// SetProgress attaches a progress reporter.
func (b *Builder) SetProgress(p Progress) {
	b.progress = p
}

// Build scans the content directory. A missing or unreadable directory is
// an error; so is any file that cannot be read.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	files, err := b.collect()
	if err != nil {
		return nil, err
	}

	if b.progress != nil {
		b.progress.Start(len(files))
		defer b.progress.Finish()
	}

	res := &Result{Records: []search.TextRecord{}, Files: len(files)}
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, page, err := b.extractFile(p)
		if err != nil {
			return nil, err
		}
		res.Records = append(res.Records, records...)
		if page != nil {
			res.Pages = append(res.Pages, *page)
		}

		if b.opts.Verbose {
			log.Printf("Scanned %s (%d texts)", p, len(records))
		}
		if b.progress != nil {
			b.progress.Advance(p)
		}
	}
	return res, nil
}

// collect lists the eligible files under Root in lexical order.
func (b *Builder) collect() ([]string, error) {
	info, err := os.Stat(b.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to access content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path is not a directory: %s", b.opts.Root)
	}

	var files []string
	err = filepath.WalkDir(b.opts.Root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(b.opts.Root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if matchesAny(rel, b.opts.Include) && !matchesAny(rel, b.opts.Exclude) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk content directory: %w", err)
	}
	return files, nil
}

func (b *Builder) extractFile(p string) ([]search.TextRecord, *Page, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	src, err := decodeSource(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}

	file := filepath.ToSlash(p)

	var blocks []Block
	var page *Page
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".mdx":
		fm, mdBlocks, err := ExtractMarkdown(src)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
		blocks = mdBlocks
		if fm != nil && fm.URL != "" {
			page = &Page{File: file, Frontmatter: *fm}
		}
	default:
		blocks = ExtractJSX(src, b.opts.Tag)
	}

	records := make([]search.TextRecord, 0, len(blocks))
	for _, blk := range blocks {
		records = append(records, search.TextRecord{
			File: file,
			Line: LineAt(src, blk.Offset),
			Text: blk.Text,
		})
	}
	return records, page, nil
}

// decodeSource decodes UTF-8 or BOM-marked UTF-16 source bytes and drops a
// leading byte order mark.
func decodeSource(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), dec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// matchesAny checks if rel matches any of the given glob patterns, either
// as a whole path or by base name.
func matchesAny(rel string, patterns []string) bool {
	normalized := filepath.ToSlash(rel)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// WriteJSON writes records as one JSON array to outputPath.
func WriteJSON(outputPath string, records []search.TextRecord) error {
	if records == nil {
		records = []search.TextRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}
