package pagemap

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	importRe = regexp.MustCompile(`(?m)^\s*import\s+[^;]*?from\s+["']([^"']+)["']`)
	titleRe  = regexp.MustCompile(`(?s)<title>\s*([^<{]+?)\s*</title>`)
)

var pageExtensions = map[string]bool{
	".tsx": true, ".ts": true, ".jsx": true, ".js": true, ".mdx": true,
}

// contentModuleFile is the file a directory import resolves to.
const contentModuleFile = "index.tsx"

// Generate derives a table from a Next.js pages directory. Each page's route
// comes from its file path and the content module it renders from its
// imports of the content root (for example "@/components/Base/Length").
func Generate(pagesDir, contentRoot string) (*Table, error) {
	t := New(contentRoot, nil)

	if _, err := os.Stat(pagesDir); err != nil {
		return nil, fmt.Errorf("pages directory not found: %w", err)
	}

	err := filepath.WalkDir(pagesDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == "api" {
				return filepath.SkipDir
			}
			return nil
		}
		if !pageExtensions[filepath.Ext(p)] || strings.HasPrefix(d.Name(), "_") {
			return nil
		}

		rel, err := filepath.Rel(pagesDir, p)
		if err != nil {
			return err
		}
		route := RouteFor(rel)
		if route == "" {
			return nil
		}

		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		title := ""
		if m := titleRe.FindSubmatch(src); m != nil {
			title = strings.TrimSpace(string(m[1]))
		}

		for _, key := range contentImports(string(src), t.contentRoot) {
			display := DeriveDisplayName(key)
			pageTitle := title
			if pageTitle == "" {
				pageTitle = display
			}
			t.pages[key] = PageInfo{
				Title:       pageTitle,
				Section:     sectionOf(key),
				URL:         route,
				DisplayName: display,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RouteFor converts a page file path relative to the pages directory into
// its URL path. Dynamic segments ([slug]) have no static route.
func RouteFor(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if strings.Contains(rel, "[") {
		return ""
	}

	var parts []string
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" {
			continue
		}
		parts = append(parts, slug.Make(seg))
	}
	if n := len(parts); n > 0 && parts[n-1] == "index" {
		parts = parts[:n-1]
	}
	return "/" + strings.Join(parts, "/")
}

// contentImports returns the content-relative index keys of every import
// that points into the content root.
func contentImports(src, contentRoot string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range importRe.FindAllStringSubmatch(src, -1) {
		spec := m[1]
		i := strings.LastIndex(spec, contentRoot)
		if i < 0 {
			continue
		}
		mod := strings.Trim(spec[i+len(contentRoot):], "/")
		if mod == "" {
			continue
		}
		key := mod
		if path.Ext(mod) == "" {
			key = mod + "/" + contentModuleFile
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

func sectionOf(key string) string {
	if i := strings.Index(key, "/"); i > 0 {
		return key[:i]
	}
	return ""
}
