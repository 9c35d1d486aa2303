package pagemap

import (
	"os"
	"path/filepath"
	"testing"
)

func lengthTable() *Table {
	return New("", map[string]PageInfo{
		"Base/Length/index.tsx": {
			Title:       "長さの単位",
			Section:     "Base",
			URL:         "/base/length",
			DisplayName: "Base > 長さ",
		},
	})
}

func TestKey(t *testing.T) {
	tab := lengthTable()

	tests := []struct {
		name string
		file string
		want string
	}{
		{"already relative", "Base/Length/index.tsx", "Base/Length/index.tsx"},
		{"repo relative", "src/components/Base/Length/index.tsx", "Base/Length/index.tsx"},
		{"absolute", "/home/u/site/src/components/Base/Length/index.tsx", "Base/Length/index.tsx"},
		{"dot prefix", "./Base/Length/index.tsx", "Base/Length/index.tsx"},
		{"last marker wins", "components/x/components/Base/index.tsx", "Base/index.tsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tab.Key(tt.file); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestLink(t *testing.T) {
	tab := lengthTable()

	link, ok := tab.Link("Base/Length/index.tsx", 12, "px")
	if !ok {
		t.Fatal("Link() should resolve a mapped file")
	}
	if link != "/base/length?highlight=px&line=12" {
		t.Errorf("Link() = %q", link)
	}

	link, ok = tab.Link("src/components/Base/Length/index.tsx", 3, "相対 単位")
	if !ok || link != "/base/length?highlight=%E7%9B%B8%E5%AF%BE+%E5%8D%98%E4%BD%8D&line=3" {
		t.Errorf("Link() = %q, %v", link, ok)
	}

	if link, ok := tab.Link("Unknown/Page/index.tsx", 1, "px"); ok || link != "" {
		t.Errorf("Link() on unmapped file = %q, %v; want inert", link, ok)
	}
}

func TestDisplayName(t *testing.T) {
	tab := lengthTable()

	tests := []struct {
		name string
		file string
		want string
	}{
		{"mapped", "src/components/Base/Length/index.tsx", "Base > 長さ"},
		{"derived from index", "src/components/Tailwind/Flex/index.tsx", "Tailwind > Flex"},
		{"derived from file", "src/components/React/Hooks/UseState.tsx", "React > Hooks > UseState"},
		{"derived without root", "Mui/Grid/index.jsx", "Mui > Grid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tab.DisplayName(tt.file); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "pagemap"+ext)
			if err := lengthTable().Save(p); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			loaded, err := Load(p)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			info, ok := loaded.PageInfo("Base/Length/index.tsx")
			if !ok {
				t.Fatal("loaded table lost its entry")
			}
			if info.URL != "/base/length" || info.Title != "長さの単位" {
				t.Errorf("loaded entry = %+v", info)
			}
			if loaded.ContentRoot() != DefaultContentRoot {
				t.Errorf("ContentRoot() = %q", loaded.ContentRoot())
			}
		})
	}
}

func TestLoadTOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pagemap.toml")
	content := `content_root = "src/components/"

[pages."Css/Box/index.tsx"]
title = "ボックスモデル"
url = "/css/box"
display_name = "CSS > Box"
`
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tab, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	link, ok := tab.Link("/repo/src/components/Css/Box/index.tsx", 7, "margin")
	if !ok || link != "/css/box?highlight=margin&line=7" {
		t.Errorf("Link() = %q, %v", link, ok)
	}
}

func TestLoadUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pagemap.json")
	if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Error("Load() should reject unknown extensions")
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	manual := lengthTable()
	generated := New("", map[string]PageInfo{
		"Base/Length/index.tsx": {URL: "/generated/length"},
		"Base/Color/index.tsx":  {URL: "/base/color"},
	})

	if added := manual.Merge(generated); added != 1 {
		t.Errorf("Merge() added %d, want 1", added)
	}
	info, _ := manual.PageInfo("Base/Length/index.tsx")
	if info.URL != "/base/length" {
		t.Errorf("manual entry overridden: %+v", info)
	}
	if _, ok := manual.PageInfo("Base/Color/index.tsx"); !ok {
		t.Error("generated entry not merged")
	}
}
