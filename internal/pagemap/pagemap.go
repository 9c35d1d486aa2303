// Package pagemap maps content source files to the site pages that render
// them. Lookups strip the content-root prefix from a source path; unmapped
// files still get a display name derived from their path but never a URL.
package pagemap

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultContentRoot is the marker preceding content-relative paths.
const DefaultContentRoot = "components/"

// PageInfo is the routing metadata of one page.
type PageInfo struct {
	Title       string `toml:"title" yaml:"title" json:"title"`
	Section     string `toml:"section,omitempty" yaml:"section,omitempty" json:"section,omitempty"`
	URL         string `toml:"url" yaml:"url" json:"url"`
	DisplayName string `toml:"display_name" yaml:"display_name" json:"displayName"`
}

// file is the on-disk layout of a page map.
type file struct {
	ContentRoot string              `toml:"content_root,omitempty" yaml:"content_root,omitempty"`
	Pages       map[string]PageInfo `toml:"pages" yaml:"pages"`
}

// Table is a page map keyed by content-relative source path.
type Table struct {
	contentRoot string
	pages       map[string]PageInfo
}

// New creates a table. An empty contentRoot selects DefaultContentRoot.
func New(contentRoot string, pages map[string]PageInfo) *Table {
	if contentRoot == "" {
		contentRoot = DefaultContentRoot
	}
	t := &Table{contentRoot: contentRoot, pages: make(map[string]PageInfo, len(pages))}
	for k, v := range pages {
		t.pages[k] = v
	}
	return t
}

// Load reads a page map from a .toml, .yaml or .yml file.
func Load(p string) (*Table, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read page map: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(p)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
	default:
		return nil, fmt.Errorf("unsupported page map format: %s", p)
	}
	return New(f.ContentRoot, f.Pages), nil
}

// Save writes the table in the format implied by the file extension.
func (t *Table) Save(p string) error {
	f := file{ContentRoot: t.contentRoot, Pages: t.pages}

	var data []byte
	switch strings.ToLower(filepath.Ext(p)) {
	case ".toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(f); err != nil {
			return fmt.Errorf("failed to encode page map: %w", err)
		}
		data = []byte(sb.String())
	case ".yaml", ".yml":
		out, err := yaml.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to encode page map: %w", err)
		}
		data = out
	default:
		return fmt.Errorf("unsupported page map format: %s", p)
	}

	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write page map: %w", err)
	}
	return nil
}

// ContentRoot returns the content-root marker.
func (t *Table) ContentRoot() string {
	return t.contentRoot
}

// Len returns the number of mapped pages.
func (t *Table) Len() int {
	return len(t.pages)
}

// Keys returns the mapped keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.pages))
	for k := range t.pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key strips everything up through the last content-root marker in a
// source path.
func (t *Table) Key(filePath string) string {
	p := filepath.ToSlash(filePath)
	if i := strings.LastIndex(p, t.contentRoot); i >= 0 {
		return p[i+len(t.contentRoot):]
	}
	return strings.TrimPrefix(p, "./")
}

// PageInfo looks up the page rendering filePath.
func (t *Table) PageInfo(filePath string) (PageInfo, bool) {
	info, ok := t.pages[t.Key(filePath)]
	return info, ok
}

// Set registers info for a source path, replacing any existing entry.
func (t *Table) Set(filePath string, info PageInfo) {
	t.pages[t.Key(filePath)] = info
}

// Merge copies entries of other that are not already present. It returns
// the number of entries added.
func (t *Table) Merge(other *Table) int {
	added := 0
	for k, v := range other.pages {
		if _, ok := t.pages[k]; ok {
			continue
		}
		t.pages[k] = v
		added++
	}
	return added
}

// DisplayName returns the mapped display name of filePath, or one derived
// from its path: "Base/Length/index.tsx" becomes "Base > Length".
func (t *Table) DisplayName(filePath string) string {
	if info, ok := t.PageInfo(filePath); ok && info.DisplayName != "" {
		return info.DisplayName
	}
	return DeriveDisplayName(t.Key(filePath))
}

// Link builds the navigation URL of a search hit on filePath. Unmapped
// files have no link.
func (t *Table) Link(filePath string, line int, query string) (string, bool) {
	info, ok := t.PageInfo(filePath)
	if !ok || info.URL == "" {
		return "", false
	}

	u, err := url.Parse(info.URL)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set("highlight", query)
	q.Set("line", strconv.Itoa(line))
	u.RawQuery = q.Encode()
	return u.String(), true
}

// DeriveDisplayName turns a content-relative path into a breadcrumb.
func DeriveDisplayName(key string) string {
	key = strings.Trim(filepath.ToSlash(key), "/")
	base := path.Base(key)
	if strings.TrimSuffix(base, path.Ext(base)) == "index" {
		key = path.Dir(key)
	} else {
		key = strings.TrimSuffix(key, path.Ext(key))
	}
	if key == "." || key == "" {
		return ""
	}
	return strings.ReplaceAll(key, "/", " > ")
}
