package search

import "context"

// DefaultMaxResults caps how many records a query returns.
const DefaultMaxResults = 20

// TextRecord is one discoverable line of page text from the generated index.
type TextRecord struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Segment is one piece of a highlighted string.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Result is a TextRecord resolved against the page map for display.
type Result struct {
	TextRecord
	DisplayName string    `json:"displayName"`
	URL         string    `json:"url,omitempty"`
	Segments    []Segment `json:"segments"`
}

// Loader fetches the full list of records backing an Index.
type Loader interface {
	Load(ctx context.Context) ([]TextRecord, error)
}

// Linker resolves a record to a navigable page URL carrying the query.
type Linker interface {
	Link(file string, line int, query string) (string, bool)
	DisplayName(file string) string
}

// SearchOptions contains configuration for a one-shot search.
type SearchOptions struct {
	Query      string
	MaxResults int
	JSONOutput bool
}
