package duckdb

import (
	"maps"
	"slices"

	"github.com/inodb/infofrac/internal/annotate"
)

// defaultBatchSize is the number of results buffered before an Appender flush.
const defaultBatchSize = 10000

// CacheWriter is an annotate.SiteWriter that stores computed values in a Store.
type CacheWriter struct {
	store     *Store
	batch     []SiteResult
	batchSize int
	written   int
}

// NewCacheWriter creates a writer that batches results into store.
func NewCacheWriter(store *Store) *CacheWriter {
	return &CacheWriter{store: store, batchSize: defaultBatchSize}
}

// WriteHeader is a no-op; the schema is created by Open.
func (cw *CacheWriter) WriteHeader() error { return nil }

// Write buffers every computed value of site.
func (cw *CacheWriter) Write(site *annotate.SiteAnnotation) error {
	v := site.Variant
	for _, k := range slices.Sorted(maps.Keys(site.Values)) {
		cw.batch = append(cw.batch, SiteResult{
			Chrom: v.Chrom,
			Pos:   v.Pos,
			Ref:   v.Ref,
			Alt:   v.Alt,
			Key:   k,
			Value: site.Values[k],
		})
	}
	if len(cw.batch) >= cw.batchSize {
		return cw.flushBatch()
	}
	return nil
}

// Flush writes any buffered results.
func (cw *CacheWriter) Flush() error {
	return cw.flushBatch()
}

// Written returns the number of results stored so far.
func (cw *CacheWriter) Written() int {
	return cw.written
}

func (cw *CacheWriter) flushBatch() error {
	if len(cw.batch) == 0 {
		return nil
	}
	if err := cw.store.WriteSiteResults(cw.batch); err != nil {
		return err
	}
	cw.written += len(cw.batch)
	cw.batch = cw.batch[:0]
	return nil
}
