package extractor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/f4ah6o/docsearch-go/internal/search"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "pxは絶対単位です", "pxは絶対単位です"},
		{"collapse whitespace", "\n    emは\n    相対単位   です\n  ", "emは 相対単位 です"},
		{"strip tags", "色は<code>color</code>で指定", "色はcolorで指定"},
		{"strip self closing", "改行<br />の後", "改行の後"},
		{"string literal kept", `幅{" "}は`, "幅 は"},
		{"expression dropped", "幅は{width}px", "幅はpx"},
		{"comment dropped", "a{/* note */}b", "ab"},
		{"comment with apostrophe", "{/* don't */}after comment", "after comment"},
		{"comment with brace", "a{/* } */}b", "ab"},
		{"line comment", "a{// it's\n}b", "ab"},
		{"url literal kept", `{"https://example.com"}`, "https://example.com"},
		{"template literal kept", "{`tmpl`}", "tmpl"},
		{"template with interpolation dropped", "x{`a ${b}`}y", "xy"},
		{"nested braces", `a{fn({k: "}"})}b`, "ab"},
		{"entities", "&lt;div&gt; &amp; span", "<div> & span"},
		{"attribute with gt", `<Link href={a > b ? "/x" : "/y"}>リンク</Link>`, "リンク"},
		{"only tags", "<span></span>", ""},
		{"unclosed brace", "abc{def", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanIdentity(t *testing.T) {
	inputs := []string{
		"pxは絶対単位です",
		"flex-direction: column",
		"margin 0 auto",
		"100% / 2 = 50%",
	}
	for _, in := range inputs {
		if got := Clean(in); got != in {
			t.Errorf("Clean(%q) = %q, want identity", in, got)
		}
	}
}

func TestLineAt(t *testing.T) {
	src := "a\nb\nc"
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1}, {1, 1}, {2, 2}, {4, 3}, {100, 3},
	}
	for _, tt := range tests {
		if got := LineAt(src, tt.offset); got != tt.want {
			t.Errorf("LineAt(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

const lengthSource = `import { Typography } from "@mui/material";

export default function Length() {
  return (
    <>
      <Typography variant="h2" sx={{ mt: 2 > 1 ? 2 : 0 }}>
        長さの単位
      </Typography>
      <Typography>pxは絶対単位です</Typography>
      <Typography />
      <TypographyList>無視される</TypographyList>
      <Typography component="p">
        emは<strong>親要素</strong>の
        フォントサイズが基準
      </Typography>
    </>
  );
}
`

func TestExtractJSX(t *testing.T) {
	blocks := ExtractJSX(lengthSource, DefaultTag)

	want := []struct {
		line int
		text string
	}{
		{6, "長さの単位"},
		{9, "pxは絶対単位です"},
		{12, "emは親要素の フォントサイズが基準"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	for i, w := range want {
		if got := LineAt(lengthSource, blocks[i].Offset); got != w.line {
			t.Errorf("block %d line = %d, want %d", i, got, w.line)
		}
		if blocks[i].Text != w.text {
			t.Errorf("block %d text = %q, want %q", i, blocks[i].Text, w.text)
		}
	}
}

func TestExtractJSXNested(t *testing.T) {
	src := "<Typography>外側\n<Typography>内側</Typography>\n続き</Typography>\n<Typography>次</Typography>"
	blocks := ExtractJSX(src, DefaultTag)

	got := make([]string, len(blocks))
	for i, b := range blocks {
		got[i] = b.Text
	}
	want := []string{"外側 続き", "内側", "次"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractJSX() texts = %q, want %q", got, want)
	}
	if LineAt(src, blocks[1].Offset) != 2 {
		t.Errorf("nested block line = %d, want 2", LineAt(src, blocks[1].Offset))
	}
}

func TestExtractJSXComments(t *testing.T) {
	src := "<Typography>{/* don't */}after comment</Typography>\n" +
		"<Typography sx={{ m: 1 /* isn't > 0 */ }}>attr comment</Typography>\n" +
		"<Typography>second</Typography>"
	blocks := ExtractJSX(src, DefaultTag)

	got := make([]string, len(blocks))
	for i, b := range blocks {
		got[i] = b.Text
	}
	want := []string{"after comment", "attr comment", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractJSX() texts = %q, want %q", got, want)
	}
}

func TestExtractJSXUnclosed(t *testing.T) {
	blocks := ExtractJSX("<Typography>閉じていない", DefaultTag)
	if len(blocks) != 1 || blocks[0].Text != "閉じていない" {
		t.Errorf("ExtractJSX() = %+v", blocks)
	}
}

func TestExtractMarkdown(t *testing.T) {
	src := `---
title: Flexbox
url: /tailwind/flex
section: Tailwind
---

# Flexbox

flex は要素を
横に並べます。

- justify-center で中央寄せ
- items-center

` + "```css\n.a { display: flex; }\n```\n"

	fm, blocks, err := ExtractMarkdown(src)
	if err != nil {
		t.Fatalf("ExtractMarkdown() error: %v", err)
	}
	if fm == nil || fm.URL != "/tailwind/flex" || fm.Title != "Flexbox" {
		t.Errorf("frontmatter = %+v", fm)
	}

	want := []struct {
		line int
		text string
	}{
		{7, "Flexbox"},
		{9, "flex は要素を 横に並べます。"},
		{12, "justify-center で中央寄せ"},
		{13, "items-center"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	for i, w := range want {
		if got := LineAt(src, blocks[i].Offset); got != w.line {
			t.Errorf("block %d line = %d, want %d", i, got, w.line)
		}
		if blocks[i].Text != w.text {
			t.Errorf("block %d text = %q, want %q", i, blocks[i].Text, w.text)
		}
	}
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

type recordingProgress struct {
	total    int
	advanced []string
	finished bool
}

func (p *recordingProgress) Start(total int)     { p.total = total }
func (p *recordingProgress) Advance(file string) { p.advanced = append(p.advanced, file) }
func (p *recordingProgress) Finish()             { p.finished = true }

func TestBuild(t *testing.T) {
	root := filepath.Join(t.TempDir(), "components")
	writeFile(t, filepath.Join(root, "Base", "Length", "index.tsx"), lengthSource)
	writeFile(t, filepath.Join(root, "Base", "Length", "index.test.tsx"), "<Typography>test</Typography>")
	writeFile(t, filepath.Join(root, "node_modules", "x", "index.tsx"), "<Typography>dep</Typography>")
	writeFile(t, filepath.Join(root, "Base", "Color", "index.tsx"), "\ufeff<Typography>color</Typography>")
	writeFile(t, filepath.Join(root, "Guide", "intro.md"), "---\ntitle: はじめに\nurl: /guide\n---\n\nようこそ\n")
	writeFile(t, filepath.Join(root, "README.txt"), "<Typography>ignored</Typography>")

	b := New(Options{Root: root})
	progress := &recordingProgress{}
	b.SetProgress(progress)

	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if res.Files != 3 || progress.total != 3 || len(progress.advanced) != 3 || !progress.finished {
		t.Errorf("files = %d, progress = %+v", res.Files, progress)
	}

	var texts []string
	for _, r := range res.Records {
		texts = append(texts, r.Text)
		if !strings.HasPrefix(r.File, filepath.ToSlash(root)) {
			t.Errorf("record file %q not under root", r.File)
		}
	}
	want := []string{"color", "長さの単位", "pxは絶対単位です", "emは親要素の フォントサイズが基準", "ようこそ"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("texts = %q, want %q", texts, want)
	}

	if res.Records[0].Line != 1 {
		t.Errorf("BOM file line = %d, want 1", res.Records[0].Line)
	}
	if last := res.Records[len(res.Records)-1]; last.Line != 6 {
		t.Errorf("markdown line = %d, want 6", last.Line)
	}

	if len(res.Pages) != 1 || res.Pages[0].Frontmatter.URL != "/guide" {
		t.Errorf("pages = %+v", res.Pages)
	}

	again, err := New(Options{Root: root}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Records, again.Records) {
		t.Error("rebuilding unchanged sources changed the records")
	}
}

func TestBuildMissingRoot(t *testing.T) {
	b := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	if _, err := b.Build(context.Background()); err == nil {
		t.Error("Build() should fail for a missing content directory")
	}
}

func TestWriteJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "public", "typographyTexts.json")
	records := []search.TextRecord{{File: "Base/Length/index.tsx", Line: 12, Text: "a & <b>"}}

	if err := WriteJSON(p, records); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a & <b>"`) {
		t.Errorf("HTML characters should not be escaped: %s", data)
	}

	var decoded []search.TextRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, records) {
		t.Errorf("decoded = %+v", decoded)
	}

	if err := WriteJSON(p, nil); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(p)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("nil records written as %q, want []", data)
	}
}
