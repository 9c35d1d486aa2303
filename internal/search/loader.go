package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// UserAgent identifies docsearch when fetching a remote index.
const UserAgent = "docsearch/1.0"

// HTTPLoader fetches the index asset over HTTP.
type HTTPLoader struct {
	URL    string
	client *http.Client
}

// NewHTTPLoader creates a loader for the JSON asset at rawURL.
func NewHTTPLoader(rawURL string) *HTTPLoader {
	return &HTTPLoader{
		URL: rawURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load fetches and decodes the asset.
func (l *HTTPLoader) Load(ctx context.Context) ([]TextRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", l.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", l.URL, resp.StatusCode)
	}

	return Decode(resp.Body)
}

// FileLoader reads the index asset from disk.
type FileLoader struct {
	Path string
}

// Load reads and decodes the asset.
func (l FileLoader) Load(ctx context.Context) ([]TextRecord, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// NewLoader picks an HTTP loader for http(s) locations and a file loader
// otherwise.
func NewLoader(location string) Loader {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPLoader(location)
	}
	return FileLoader{Path: location}
}

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]TextRecord, error) {
	var records []TextRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	return records, nil
}
