package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/infofrac/internal/annotate"
)

// VCFWriter writes annotated sites as VCF, adding the computed values to INFO.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // original VCF header lines (## and #CHROM)
	keys        []string // INFO keys produced by the annotators
	keySet      map[string]bool
	infoLines   []string // ##INFO lines for keys
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer, headerLines []string) *VCFWriter {
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
		keySet:      make(map[string]bool),
	}
}

// SetAnnotators registers the annotators whose keys are written to INFO.
func (vw *VCFWriter) SetAnnotators(annotators []annotate.InfoAnnotator) {
	vw.keys = nil
	vw.infoLines = nil
	vw.keySet = make(map[string]bool)
	for _, ia := range annotators {
		for _, k := range ia.Keys() {
			vw.keys = append(vw.keys, k)
			vw.keySet[k] = true
		}
		vw.infoLines = append(vw.infoLines, ia.HeaderLines()...)
	}
}

// WriteHeader writes the original header with the annotators' ##INFO lines
// inserted before #CHROM. Existing definitions of the same IDs are dropped.
func (vw *VCFWriter) WriteHeader() error {
	inserted := false
	for _, line := range vw.headerLines {
		if id, ok := infoHeaderID(line); ok && vw.keySet[id] {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") && !inserted {
			if err := vw.writeLines(vw.infoLines); err != nil {
				return err
			}
			inserted = true
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if !inserted {
		return vw.writeLines(vw.infoLines)
	}
	return nil
}

func (vw *VCFWriter) writeLines(lines []string) error {
	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes one site with its annotation values merged into INFO.
func (vw *VCFWriter) Write(site *annotate.SiteAnnotation) error {
	v := site.Variant

	var lb strings.Builder
	lb.Grow(256)

	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.ID))
	lb.WriteByte('\t')
	lb.WriteString(v.Ref)
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.Alt))
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.Qual))
	lb.WriteByte('\t')
	lb.WriteString(orMissing(v.Filter))
	lb.WriteByte('\t')
	lb.WriteString(vw.formatInfo(site))

	// Append FORMAT + sample columns if present
	if v.SampleColumns != "" {
		lb.WriteByte('\t')
		lb.WriteString(v.SampleColumns)
	}

	lb.WriteByte('\n')
	_, err := vw.w.WriteString(lb.String())
	return err
}

// formatInfo rebuilds INFO in original key order, replacing any existing
// values for the annotators' keys and appending the computed ones.
func (vw *VCFWriter) formatInfo(site *annotate.SiteAnnotation) string {
	var b strings.Builder
	sep := func() {
		if b.Len() > 0 {
			b.WriteByte(';')
		}
	}

	v := site.Variant
	for _, k := range v.InfoKeys {
		if vw.keySet[k] {
			continue
		}
		val, ok := v.Info[k]
		if !ok {
			continue
		}
		if flag, isFlag := val.(bool); isFlag {
			if flag {
				sep()
				b.WriteString(k)
			}
			continue
		}
		sep()
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatInfoValue(val))
	}

	for _, k := range vw.keys {
		val, ok := site.Value(k)
		if !ok {
			continue
		}
		sep()
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(FormatVCFDouble(val))
	}

	if b.Len() == 0 {
		return "."
	}
	return b.String()
}

// Flush flushes any buffered data to the underlying writer.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}

// infoHeaderID returns the ID of a ##INFO header line.
func infoHeaderID(line string) (string, bool) {
	const prefix = "##INFO=<ID="
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	rest := line[len(prefix):]
	end := strings.IndexAny(rest, ",>")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func orMissing(s string) string {
	if s == "" {
		return "."
	}
	return s
}
