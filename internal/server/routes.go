package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/f4ah6o/docsearch-go/internal/highlight"
	"github.com/f4ah6o/docsearch-go/internal/search"
	"github.com/f4ah6o/docsearch-go/internal/toc"
)

var resultsTmpl = template.Must(template.New("results").Parse(`{{if .Empty}}<p class="docsearch-empty">{{.NoMatch}}</p>
{{else}}<ul class="docsearch-results">
{{range .Items}}<li>{{if .URL}}<a href="{{.URL}}">{{else}}<span class="docsearch-inert">{{end}}<div class="docsearch-text">{{.Text}}</div><div class="docsearch-path">{{.DisplayName}}</div>{{if .URL}}</a>{{else}}</span>{{end}}</li>
{{end}}</ul>
{{end}}`))

type resultItem struct {
	URL         string
	Text        template.HTML
	DisplayName string
}

func (s *Server) results(r *http.Request) (string, []search.Result) {
	q := r.URL.Query()
	query := q.Get("q")
	limit := s.cfg.MaxResults
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	records := s.index.Search(r.Context(), search.SearchOptions{Query: query, MaxResults: limit})
	return query, search.Resolve(records, query, s.linker)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.index.Records(r.Context())); err != nil {
		log.Printf("Warning: failed to write index: %v", err)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, results := s.results(r)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearchHTML(w http.ResponseWriter, r *http.Request) {
	_, results := s.results(r)

	items := make([]resultItem, 0, len(results))
	for _, res := range results {
		items = append(items, resultItem{
			URL:         res.URL,
			Text:        template.HTML(search.RenderHTML(res.Segments, s.cfg.HighlightColor)),
			DisplayName: res.DisplayName,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := resultsTmpl.Execute(w, map[string]any{
		"Empty":   len(items) == 0,
		"NoMatch": search.NoMatchText,
		"Items":   items,
	})
	if err != nil {
		log.Printf("Warning: failed to render search results: %v", err)
	}
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	file, ok := s.resolve(r.URL.Query().Get("path"))
	if !ok || !isHTML(file) {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	root, err := parseFile(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toc.Extract(root, s.cfg.Highlight.Selector))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	file, ok := s.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	target, want := highlight.TargetFromQuery(r.URL.Query())
	if !want || !isHTML(file) {
		http.ServeFile(w, r, file)
		return
	}

	root, err := parseFile(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	highlight.Clear(root)
	if _, ok := highlight.Apply(root, target, s.cfg.Highlight); ok {
		highlight.EnsureStyles(root)
		highlight.InjectScript(root, s.cfg.Highlight)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// resolve maps a URL path to a file of the static export: /a/b is served
// from a/b, a/b.html or a/b/index.html.
func (s *Server) resolve(urlPath string) (string, bool) {
	if s.cfg.SiteDir == "" {
		return "", false
	}
	clean := path.Clean("/" + urlPath)
	base := filepath.Join(s.cfg.SiteDir, filepath.FromSlash(clean))

	candidates := []string{filepath.Join(base, "index.html")}
	if clean != "/" {
		candidates = []string{base, base + ".html", candidates[0]}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

func isHTML(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".html" || ext == ".htm"
}

func parseFile(file string) (*html.Node, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return html.Parse(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}
