package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func sampleRecords() []TextRecord {
	return []TextRecord{
		{File: "Base/Length/index.tsx", Line: 12, Text: "pxは絶対単位です"},
		{File: "Base/Length/index.tsx", Line: 18, Text: "emは親要素のフォントサイズが基準"},
		{File: "Base/Color/index.tsx", Line: 4, Text: "PX is not px"},
	}
}

func TestFilter(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"empty query", "", nil},
		{"single match", "絶対", []int{12}},
		{"case sensitive", "PX", []int{4}},
		{"keeps index order", "px", []int{12, 4}},
		{"no match", "zzz_nonexistent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.query, DefaultMaxResults)
			if got == nil {
				t.Fatal("Filter() must return a non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) returned %d records, want %d", tt.query, len(got), len(tt.want))
			}
			for i, line := range tt.want {
				if got[i].Line != line {
					t.Errorf("result %d line = %d, want %d", i, got[i].Line, line)
				}
			}
		})
	}
}

func TestFilterBound(t *testing.T) {
	records := make([]TextRecord, 100)
	for i := range records {
		records[i] = TextRecord{File: "a.tsx", Line: i + 1, Text: fmt.Sprintf("margin %d", i)}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultMaxResults},
		{5, 5},
		{20, 20},
		{200, 100},
	}

	for _, tt := range tests {
		got := Filter(records, "margin", tt.limit)
		if len(got) != tt.want {
			t.Errorf("Filter(limit=%d) returned %d, want %d", tt.limit, len(got), tt.want)
		}
		if got[0].Line != 1 {
			t.Errorf("Filter(limit=%d) first line = %d, want 1", tt.limit, got[0].Line)
		}
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		query   string
		matches int
	}{
		{"empty query", "pxは絶対単位です", "", 0},
		{"one match", "pxは絶対単位です", "px", 1},
		{"many matches", "px px px", "px", 3},
		{"adjacent matches", "pxpx", "px", 2},
		{"whole text", "px", "px", 1},
		{"no match", "remは相対単位", "px", 0},
		{"empty text", "", "px", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Highlight(tt.text, tt.query)

			var sb strings.Builder
			n := 0
			for _, s := range segs {
				sb.WriteString(s.Text)
				if s.Match {
					n++
					if s.Text != tt.query {
						t.Errorf("marked segment %q != query %q", s.Text, tt.query)
					}
				}
			}
			if sb.String() != tt.text {
				t.Errorf("segments join to %q, want %q", sb.String(), tt.text)
			}
			if n != tt.matches {
				t.Errorf("got %d marked segments, want %d", n, tt.matches)
			}
		})
	}

	if segs := Highlight("abc", ""); len(segs) != 1 || segs[0].Text != "abc" || segs[0].Match {
		t.Errorf("Highlight with empty query = %+v, want the text unchanged", segs)
	}
}

func TestRenderHTML(t *testing.T) {
	got := RenderHTML(Highlight("a<b>px", "px"), "")
	want := `a&lt;b&gt;<mark style="background-color: #42a5f5">px</mark>`
	if got != want {
		t.Errorf("RenderHTML() = %q, want %q", got, want)
	}
}

type fakeLinker map[string]string

func (f fakeLinker) Link(file string, line int, query string) (string, bool) {
	base, ok := f[file]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s?highlight=%s&line=%d", base, query, line), true
}

func (f fakeLinker) DisplayName(file string) string {
	return strings.ReplaceAll(strings.TrimSuffix(file, "/index.tsx"), "/", " > ")
}

type countingLoader struct {
	calls   atomic.Int32
	records []TextRecord
	err     error
}

func (l *countingLoader) Load(ctx context.Context) ([]TextRecord, error) {
	l.calls.Add(1)
	return l.records, l.err
}

func TestSessionScenario(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{records: sampleRecords()}
	s := NewSession(NewIndex(loader), 0)
	linker := fakeLinker{"Base/Length/index.tsx": "/base/length"}

	if s.IsOpen() {
		t.Fatal("new session should be closed")
	}
	if loader.calls.Load() != 0 {
		t.Fatal("index must not load before the session opens")
	}

	s.Open(ctx)
	s.SetQuery("px")
	results := s.Results(ctx)
	if len(results) != 2 || results[0].Line != 12 {
		t.Fatalf("Results() = %+v", results)
	}

	link, ok := s.Select(results[0], linker)
	if !ok || link != "/base/length?highlight=px&line=12" {
		t.Errorf("Select() = %q, %v", link, ok)
	}
	if s.IsOpen() || s.Query() != "" {
		t.Error("selecting a mapped result should close the session")
	}

	s.Open(ctx)
	s.SetQuery("zzz_nonexistent")
	if got := s.Results(ctx); len(got) != 0 {
		t.Errorf("Results() = %+v, want none", got)
	}

	s.Close()
	s.Open(ctx)
	if s.Query() != "" {
		t.Errorf("Query() after reopen = %q, want empty", s.Query())
	}
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("index fetched %d times, want 1", n)
	}
}

func TestSessionSelectUnmapped(t *testing.T) {
	ctx := context.Background()
	s := NewSession(NewStaticIndex(sampleRecords()), 0)
	s.Open(ctx)
	s.SetQuery("PX")

	results := s.Results(ctx)
	if len(results) != 1 {
		t.Fatalf("Results() = %+v", results)
	}
	if link, ok := s.Select(results[0], fakeLinker{}); ok || link != "" {
		t.Errorf("Select() on unmapped file = %q, %v", link, ok)
	}
	if !s.IsOpen() || s.Query() != "PX" {
		t.Error("an inert selection must leave the session untouched")
	}
}

func TestSessionLoadFailure(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{err: errors.New("boom")}
	ix := NewIndex(loader)
	s := NewSession(ix, 0)

	s.Open(ctx)
	s.SetQuery("px")
	if got := s.Results(ctx); len(got) != 0 {
		t.Errorf("Results() = %+v, want none after a failed load", got)
	}
	if ix.Err() == nil {
		t.Error("Err() should report the failed load")
	}

	s.Close()
	s.Open(ctx)
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("failed load retried: %d calls", n)
	}
}

func TestResolve(t *testing.T) {
	records := Filter(sampleRecords(), "px", 0)
	results := Resolve(records, "px", fakeLinker{"Base/Length/index.tsx": "/base/length"})

	if results[0].URL != "/base/length?highlight=px&line=12" {
		t.Errorf("URL = %q", results[0].URL)
	}
	if results[1].URL != "" {
		t.Errorf("unmapped result has URL %q", results[1].URL)
	}
	if results[1].DisplayName != "Base > Color" {
		t.Errorf("DisplayName = %q", results[1].DisplayName)
	}
}

func TestFormatResults(t *testing.T) {
	var buf bytes.Buffer
	FormatResults(&buf, nil, "zzz_nonexistent")
	if !strings.Contains(buf.String(), NoMatchText) {
		t.Errorf("empty output = %q, want %q", buf.String(), NoMatchText)
	}

	buf.Reset()
	results := Resolve(Filter(sampleRecords(), "px", 0), "px", fakeLinker{"Base/Length/index.tsx": "/base/length"})
	FormatResults(&buf, results, "px")
	out := buf.String()
	for _, want := range []string{"Base > Length", "/base/length?highlight=px&line=12", "Base/Color/index.tsx"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	results := Resolve(Filter(sampleRecords(), "px", 0), "px", nil)
	if err := FormatJSON(&buf, results); err != nil {
		t.Fatalf("FormatJSON() error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["file"] != "Base/Length/index.tsx" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/typographyTexts.json" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(sampleRecords())
	}))
	defer srv.Close()

	records, err := NewLoader(srv.URL + "/typographyTexts.json").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 3 || records[0].Text != "pxは絶対単位です" {
		t.Errorf("records = %+v", records)
	}

	if _, err := NewLoader(srv.URL + "/missing.json").Load(context.Background()); err == nil {
		t.Error("Load() should fail on 404")
	}
}

func TestFileLoader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "typographyTexts.json")
	data, _ := json.Marshal(sampleRecords())
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}

	records, err := NewLoader(p).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records", len(records))
	}
}
