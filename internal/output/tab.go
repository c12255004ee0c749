// Package output provides annotation output formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/infofrac/internal/annotate"
)

// TabWriter writes annotated sites in tab-delimited format, one row per site.
type TabWriter struct {
	w       *bufio.Writer
	keys    []string
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with one value column per key.
func NewTabWriter(w io.Writer, keys []string) *TabWriter {
	columns := []string{
		"#CHROM",
		"POS",
		"ID",
		"REF",
		"ALT",
		"DP",
	}
	return &TabWriter{
		w:       bufio.NewWriter(w),
		keys:    keys,
		columns: append(columns, keys...),
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single site. Values that were not computed are written as "-".
func (tw *TabWriter) Write(site *annotate.SiteAnnotation) error {
	v := site.Variant

	values := make([]string, 0, len(tw.columns))
	values = append(values,
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		orMissing(v.ID),
		v.Ref,
		orMissing(v.Alt),
		strconv.Itoa(v.Depth()),
	)

	for _, k := range tw.keys {
		val, ok := site.Value(k)
		if !ok {
			values = append(values, "-")
			continue
		}
		values = append(values, strconv.FormatFloat(val, 'f', 4, 64))
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
