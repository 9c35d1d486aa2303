// Package search implements substring search over the generated text index.
// It owns the search session state (open/closed, query, lazily loaded index),
// splits matched text into highlight segments, and formats results for the
// terminal and for HTML.
package search

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/fatih/color"
)

// NoMatchText is shown when a query yields nothing.
const NoMatchText = "該当なし"

// DefaultHighlightColor is the theme's primary light color.
const DefaultHighlightColor = "#42a5f5"

var (
	// ANSI colors for terminal output
	colorHeader = color.New(color.FgHiMagenta, color.Bold)
	colorBold   = color.New(color.Bold)
	colorCyan   = color.New(color.FgCyan)
	colorMatch  = color.New(color.FgBlack, color.BgHiCyan)
	colorMuted  = color.New(color.FgHiBlack)
)

// Filter returns up to limit records whose text contains query as a literal,
// case-sensitive substring. Order follows the index; an empty query matches
// nothing.
func Filter(records []TextRecord, query string, limit int) []TextRecord {
	if query == "" {
		return []TextRecord{}
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	matched := make([]TextRecord, 0, min(limit, len(records)))
	for _, rec := range records {
		if strings.Contains(rec.Text, query) {
			matched = append(matched, rec)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched
}

// Highlight splits text on every occurrence of query, marking the occurrences.
// Joining the returned segments always yields text again.
func Highlight(text, query string) []Segment {
	if query == "" {
		return []Segment{{Text: text}}
	}

	parts := strings.Split(text, query)
	segments := make([]Segment, 0, len(parts)*2-1)
	for i, part := range parts {
		if i > 0 {
			segments = append(segments, Segment{Text: query, Match: true})
		}
		if part != "" {
			segments = append(segments, Segment{Text: part})
		}
	}
	return segments
}

// RenderHTML renders segments as escaped HTML, wrapping matches in <mark>
// elements colored with bg.
func RenderHTML(segments []Segment, bg string) string {
	if bg == "" {
		bg = DefaultHighlightColor
	}
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Match {
			fmt.Fprintf(&sb, `<mark style="background-color: %s">%s</mark>`, html.EscapeString(bg), html.EscapeString(seg.Text))
			continue
		}
		sb.WriteString(html.EscapeString(seg.Text))
	}
	return sb.String()
}

// Resolve attaches display names, links and highlight segments to records.
func Resolve(records []TextRecord, query string, linker Linker) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		res := Result{
			TextRecord: rec,
			Segments:   Highlight(rec.Text, query),
		}
		if linker != nil {
			res.DisplayName = linker.DisplayName(rec.File)
			if link, ok := linker.Link(rec.File, rec.Line, query); ok {
				res.URL = link
			}
		} else {
			res.DisplayName = rec.File
		}
		results = append(results, res)
	}
	return results
}

// FormatResults prints results in a human-readable format
func FormatResults(w io.Writer, results []Result, query string) {
	if len(results) == 0 {
		fmt.Fprintln(w, NoMatchText)
		return
	}

	colorHeader.Fprintf(w, "\n検索結果: '%s'\n", query)
	fmt.Fprintf(w, "%d件\n\n", len(results))

	for i, res := range results {
		colorBold.Fprintf(w, "%d. %s", i+1, res.DisplayName)
		fmt.Fprintf(w, " (L%d)\n", res.Line)
		fmt.Fprint(w, "   ")
		for _, seg := range res.Segments {
			if seg.Match {
				colorMatch.Fprint(w, seg.Text)
			} else {
				fmt.Fprint(w, seg.Text)
			}
		}
		fmt.Fprintln(w)
		if res.URL != "" {
			colorCyan.Fprintf(w, "   %s\n", res.URL)
		} else {
			colorMuted.Fprintf(w, "   %s\n", res.File)
		}
	}
	fmt.Fprintln(w)
}

// FormatJSON prints results as JSON
func FormatJSON(w io.Writer, results []Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
