package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/f4ah6o/docsearch-go/internal/config"
	"github.com/f4ah6o/docsearch-go/internal/pagemap"
	"github.com/f4ah6o/docsearch-go/internal/search"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "components", "Base", "Length", "index.tsx"),
		"<Typography>pxは絶対単位です</Typography>\n<Typography>emは相対単位</Typography>\n")
	writeFile(t, filepath.Join(dir, "src", "components", "Guide", "intro.md"),
		"---\ntitle: はじめに\nurl: /guide\n---\n\npx と em の話\n")
	writeFile(t, filepath.Join(dir, "src", "pages", "base", "length.tsx"),
		"import Length from \"@/components/Base/Length\";\n\nexport default function Page() { return <Length />; }\n")

	cfg := config.Default()
	cfg.ContentDir = filepath.Join(dir, "src", "components")
	cfg.PagesDir = filepath.Join(dir, "src", "pages")
	cfg.Output = filepath.Join(dir, "public", "typographyTexts.json")
	cfg.SQLite = filepath.Join(dir, "index.db")
	cfg.PageMap = filepath.Join(dir, "pagemap.toml")

	indexNoProgress = true
	t.Cleanup(func() {
		indexNoProgress = false
		searchJSON = false
		searchSQLite = false
		searchLimit = 0
	})
	return cfg
}

func TestRunIndex(t *testing.T) {
	cfg := testConfig(t)
	if err := runIndex(context.Background(), cfg); err != nil {
		t.Fatalf("runIndex() error: %v", err)
	}

	records, err := search.FileLoader{Path: cfg.Output}.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records: %+v", len(records), records)
	}

	table, err := pagemap.Load(cfg.PageMap)
	if err != nil {
		t.Fatalf("page map not written: %v", err)
	}
	if info, ok := table.PageInfo("Base/Length/index.tsx"); !ok || info.URL != "/base/length" {
		t.Errorf("route entry = %+v, %v", info, ok)
	}
	if info, ok := table.PageInfo("Guide/intro.md"); !ok || info.URL != "/guide" {
		t.Errorf("front matter entry = %+v, %v", info, ok)
	}
}

func TestRunIndexKeepsManualEntries(t *testing.T) {
	cfg := testConfig(t)
	manual := pagemap.New(cfg.ContentRoot, map[string]pagemap.PageInfo{
		"Base/Length/index.tsx": {Title: "長さ", URL: "/css/length", DisplayName: "CSS > 長さ"},
	})
	if err := manual.Save(cfg.PageMap); err != nil {
		t.Fatal(err)
	}

	if err := runIndex(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	table, err := pagemap.Load(cfg.PageMap)
	if err != nil {
		t.Fatal(err)
	}
	if info, _ := table.PageInfo("Base/Length/index.tsx"); info.URL != "/css/length" {
		t.Errorf("manual entry replaced: %+v", info)
	}
}

func TestRunIndexMissingContent(t *testing.T) {
	cfg := testConfig(t)
	cfg.ContentDir = filepath.Join(t.TempDir(), "missing")
	if err := runIndex(context.Background(), cfg); err == nil {
		t.Error("runIndex() should fail for a missing content directory")
	}
}

func TestRunSearch(t *testing.T) {
	cfg := testConfig(t)
	if err := runIndex(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	for _, useSQLite := range []bool{false, true} {
		searchJSON = true
		searchSQLite = useSQLite

		var out bytes.Buffer
		if err := runSearch(context.Background(), cfg, "px", &out); err != nil {
			t.Fatalf("runSearch(sqlite=%v) error: %v", useSQLite, err)
		}
		var results []search.Result
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("unmarshal: %v\n%s", err, out.String())
		}
		if len(results) != 2 {
			t.Fatalf("sqlite=%v: got %d results", useSQLite, len(results))
		}
		if results[0].URL != "/base/length?highlight=px&line=1" {
			t.Errorf("sqlite=%v: URL = %q", useSQLite, results[0].URL)
		}
	}
}

func TestRunREPL(t *testing.T) {
	cfg := testConfig(t)
	if err := runIndex(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	in := strings.NewReader("px\n:go 1\n:go 9\nzzz_nonexistent\n:q\nignored\n")
	var out bytes.Buffer
	if err := runREPL(context.Background(), cfg, in, &out); err != nil {
		t.Fatalf("runREPL() error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"/base/length?highlight=px&line=1", `no result "9"`, search.NoMatchText} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Error(":q should end the session")
	}
}
