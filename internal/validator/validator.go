// Package validator checks a generated text index.
// It reports records that cannot be searched or navigated to, flags
// duplicates, and analyzes the index size per source file.
package validator

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/f4ah6o/docsearch-go/internal/search"
)

// Report collects the findings of a validation run.
type Report struct {
	Errors   []string
	Warnings []string
	// Records is the number of records checked.
	Records int
	// Bytes is the total size of all record texts.
	Bytes int
}

// OK reports whether no errors were found.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Validator validates text indexes.
type Validator struct {
	// TopFiles is how many files the size analysis lists.
	TopFiles int
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{TopFiles: 10}
}

// Validate checks every record of an index and logs the outcome.
// Records with an empty text, a line below 1 or leftover markup are errors;
// duplicate records and an empty index are warnings.
func (v *Validator) Validate(records []search.TextRecord) *Report {
	log.Printf("Validating %d records", len(records))

	report := &Report{Records: len(records)}
	if len(records) == 0 {
		report.Warnings = append(report.Warnings, "index is empty")
	}

	seen := make(map[search.TextRecord]int, len(records))
	for i, r := range records {
		report.Bytes += len(r.Text)
		loc := fmt.Sprintf("%s:%d", r.File, r.Line)

		if r.File == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("record %d has no file", i))
		}
		if r.Line < 1 {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: line must be >= 1", loc))
		}
		if strings.TrimSpace(r.Text) == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: empty text", loc))
		} else if r.Text != strings.Join(strings.Fields(r.Text), " ") {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: text has uncollapsed whitespace", loc))
		}
		if looksLikeMarkup(r.Text) {
			// Entities unescape to literal '<', so markup-like text is only a warning.
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: text looks like markup: %q", loc, r.Text))
		}

		if first, dup := seen[r]; dup {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: duplicate of record %d", loc, first))
		} else {
			seen[r] = i
		}
	}

	v.analyzeSize(records, report)

	if !report.OK() {
		log.Printf("VALIDATION FAILED:")
		for _, err := range report.Errors {
			log.Printf("  - %s", err)
		}
		return report
	}

	if len(report.Warnings) > 0 {
		log.Printf("Warnings:")
		for _, warn := range report.Warnings {
			log.Printf("  - %s", warn)
		}
	}

	log.Printf("Validation passed!")
	return report
}

// looksLikeMarkup reports whether text contains something shaped like a tag.
func looksLikeMarkup(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		c := text[i+1]
		if c == '/' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			if strings.IndexByte(text[i:], '>') > 0 {
				return true
			}
		}
	}
	return false
}

// fileStat is the share of the index contributed by one source file.
type fileStat struct {
	path    string
	records int
	bytes   int
}

func (v *Validator) analyzeSize(records []search.TextRecord, report *Report) {
	byFile := map[string]*fileStat{}
	var stats []*fileStat
	for _, r := range records {
		st, ok := byFile[r.File]
		if !ok {
			st = &fileStat{path: r.File}
			byFile[r.File] = st
			stats = append(stats, st)
		}
		st.records++
		st.bytes += len(r.Text)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].records > stats[j].records
	})

	log.Printf("\n--- Index Size Analysis ---")
	log.Printf("Records: %d in %d files", report.Records, len(stats))
	log.Printf("Total Text Size: %.1f KB", float64(report.Bytes)/1024)

	log.Printf("\nTop %d Files:", v.TopFiles)
	for i := 0; i < v.TopFiles && i < len(stats); i++ {
		log.Printf("  %4d records  %.1f KB - %s", stats[i].records, float64(stats[i].bytes)/1024, stats[i].path)
	}
	log.Printf("---------------------------\n")
}
