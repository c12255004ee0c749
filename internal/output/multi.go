package output

import (
	"errors"

	"github.com/inodb/infofrac/internal/annotate"
)

// MultiWriter duplicates every call to each of its writers, in order.
type MultiWriter struct {
	writers []annotate.SiteWriter
}

// NewMultiWriter creates a writer that fans out to writers.
func NewMultiWriter(writers ...annotate.SiteWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteHeader writes the header of every writer, stopping at the first error.
func (mw *MultiWriter) WriteHeader() error {
	for _, w := range mw.writers {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

// Write writes site to every writer, stopping at the first error.
func (mw *MultiWriter) Write(site *annotate.SiteAnnotation) error {
	for _, w := range mw.writers {
		if err := w.Write(site); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer and returns all flush errors joined.
func (mw *MultiWriter) Flush() error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
