package search

import (
	"context"
	"log"
	"sync"
)

// Index holds the text records of a site. The records are fetched through
// the Loader at most once; a failed fetch leaves the index empty.
type Index struct {
	loader  Loader
	once    sync.Once
	records []TextRecord
	err     error
}

// NewIndex creates an Index that lazily loads its records from loader.
func NewIndex(loader Loader) *Index {
	return &Index{loader: loader}
}

// NewStaticIndex creates an Index over records that are already in memory.
func NewStaticIndex(records []TextRecord) *Index {
	ix := &Index{records: records}
	ix.once.Do(func() {})
	return ix
}

// Load fetches the records if that has not been attempted yet.
func (ix *Index) Load(ctx context.Context) {
	ix.once.Do(func() {
		if ix.loader == nil {
			return
		}
		records, err := ix.loader.Load(ctx)
		if err != nil {
			log.Printf("Warning: failed to load search index: %v", err)
			ix.err = err
			return
		}
		ix.records = records
	})
}

// Records returns the loaded records, loading them first if needed.
func (ix *Index) Records(ctx context.Context) []TextRecord {
	ix.Load(ctx)
	return ix.records
}

// Err reports the error of the load attempt, if any.
func (ix *Index) Err() error {
	return ix.err
}

// Search filters the index with opts.
func (ix *Index) Search(ctx context.Context, opts SearchOptions) []TextRecord {
	return Filter(ix.Records(ctx), opts.Query, opts.MaxResults)
}
