// Package maf reads MAF (Mutation Annotation Format) files as variant sites.
// Each row becomes one site with a tumor and a normal genotype whose allelic
// depths come from the t_/n_ read count columns.
package maf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/infofrac/internal/vcf"
)

// Standard MAF column names
const (
	ColChromosome          = "Chromosome"
	ColStartPosition       = "Start_Position"
	ColReferenceAllele     = "Reference_Allele"
	ColTumorSeqAllele2     = "Tumor_Seq_Allele2"
	ColTumorSampleBarcode  = "Tumor_Sample_Barcode"
	ColNormalSampleBarcode = "Matched_Norm_Sample_Barcode"
	ColTumorDepth          = "t_depth"
	ColTumorRefCount       = "t_ref_count"
	ColTumorAltCount       = "t_alt_count"
	ColNormalDepth         = "n_depth"
	ColNormalRefCount      = "n_ref_count"
	ColNormalAltCount      = "n_alt_count"
)

// ColumnIndices holds the indices of MAF columns; -1 when absent.
type ColumnIndices struct {
	Chromosome          int
	StartPosition       int
	ReferenceAllele     int
	TumorSeqAllele2     int
	TumorSampleBarcode  int
	NormalSampleBarcode int
	TumorDepth          int
	TumorRefCount       int
	TumorAltCount       int
	NormalDepth         int
	NormalRefCount      int
	NormalAltCount      int
}

// Parser reads variant sites from a MAF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    ColumnIndices
	headerLine string
}

// NewParser creates a new MAF parser for the given file.
// Supports both plain MAF and gzipped MAF (.maf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open maf file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = io.ReadFull(file, buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read maf header: %w", err)
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek maf file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads and parses the MAF header line to find column indices.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		// Skip comment lines (e.g. #version 2.4) and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices parses the header line to find column indices.
func (p *Parser) parseColumnIndices(headerLine string) error {
	p.columns = ColumnIndices{
		Chromosome:          -1,
		StartPosition:       -1,
		ReferenceAllele:     -1,
		TumorSeqAllele2:     -1,
		TumorSampleBarcode:  -1,
		NormalSampleBarcode: -1,
		TumorDepth:          -1,
		TumorRefCount:       -1,
		TumorAltCount:       -1,
		NormalDepth:         -1,
		NormalRefCount:      -1,
		NormalAltCount:      -1,
	}

	for i, col := range strings.Split(headerLine, "\t") {
		switch col {
		case ColChromosome:
			p.columns.Chromosome = i
		case ColStartPosition:
			p.columns.StartPosition = i
		case ColReferenceAllele:
			p.columns.ReferenceAllele = i
		case ColTumorSeqAllele2:
			p.columns.TumorSeqAllele2 = i
		case ColTumorSampleBarcode:
			p.columns.TumorSampleBarcode = i
		case ColNormalSampleBarcode:
			p.columns.NormalSampleBarcode = i
		case ColTumorDepth:
			p.columns.TumorDepth = i
		case ColTumorRefCount:
			p.columns.TumorRefCount = i
		case ColTumorAltCount:
			p.columns.TumorAltCount = i
		case ColNormalDepth:
			p.columns.NormalDepth = i
		case ColNormalRefCount:
			p.columns.NormalRefCount = i
		case ColNormalAltCount:
			p.columns.NormalAltCount = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColChromosome, p.columns.Chromosome},
		{ColStartPosition, p.columns.StartPosition},
		{ColReferenceAllele, p.columns.ReferenceAllele},
		{ColTumorSeqAllele2, p.columns.TumorSeqAllele2},
	}
	for _, r := range required {
		if r.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", r.name),
			}
		}
	}

	return nil
}

// Next reads the next site from the MAF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*vcf.Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single MAF data line into a site with tumor and normal
// genotypes. DP is the sum of t_depth and n_depth when either is present.
func (p *Parser) parseLine(line string) (*vcf.Variant, error) {
	fields := strings.Split(line, "\t")

	minCols := max(p.columns.Chromosome, p.columns.StartPosition, p.columns.ReferenceAllele, p.columns.TumorSeqAllele2)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.columns.StartPosition], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.columns.StartPosition]),
		}
	}

	v := &vcf.Variant{
		Chrom:  fields[p.columns.Chromosome],
		Pos:    pos,
		ID:     ".",
		Ref:    fields[p.columns.ReferenceAllele],
		Alt:    fields[p.columns.TumorSeqAllele2],
		Qual:   ".",
		Filter: ".",
		Info:   make(map[string]interface{}),
	}

	tumor, tumorDepth, hasTumorDepth, err := p.sample(fields, p.columns.TumorSampleBarcode,
		p.columns.TumorRefCount, p.columns.TumorAltCount, p.columns.TumorDepth)
	if err != nil {
		return nil, err
	}
	normal, normalDepth, hasNormalDepth, err := p.sample(fields, p.columns.NormalSampleBarcode,
		p.columns.NormalRefCount, p.columns.NormalAltCount, p.columns.NormalDepth)
	if err != nil {
		return nil, err
	}

	v.Genotypes = []*vcf.Genotype{tumor, normal}
	if hasTumorDepth || hasNormalDepth {
		v.Info[vcf.DepthKey] = tumorDepth + normalDepth
		v.InfoKeys = []string{vcf.DepthKey}
	}

	return v, nil
}

// sample builds one genotype from a barcode and ref/alt count columns.
// The genotype is nil when neither count is present.
func (p *Parser) sample(fields []string, barcodeIdx, refIdx, altIdx, depthIdx int) (*vcf.Genotype, int, bool, error) {
	depth, hasDepth, err := p.count(fields, depthIdx)
	if err != nil {
		return nil, 0, false, err
	}
	ref, hasRef, err := p.count(fields, refIdx)
	if err != nil {
		return nil, 0, false, err
	}
	alt, hasAlt, err := p.count(fields, altIdx)
	if err != nil {
		return nil, 0, false, err
	}
	if !hasRef && !hasAlt {
		return nil, depth, hasDepth, nil
	}

	g := &vcf.Genotype{AD: []int{ref, alt}}
	if barcodeIdx >= 0 && barcodeIdx < len(fields) {
		g.Sample = fields[barcodeIdx]
	}
	return g, depth, hasDepth, nil
}

// count reads an optional read-count column. Empty, "." and "NA" are absent.
func (p *Parser) count(fields []string, idx int) (int, bool, error) {
	if idx < 0 || idx >= len(fields) {
		return 0, false, nil
	}
	raw := fields[idx]
	if raw == "" || raw == "." || raw == "NA" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid read count: %s", raw),
		}
	}
	return n, true, nil
}

// VCFHeader returns a minimal VCF header for writing MAF sites as VCF.
func (p *Parser) VCFHeader() []string {
	return []string{
		"##fileformat=VCFv4.2",
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="Sum of t_depth and n_depth">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	}
}

// Header returns the MAF header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during MAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("maf parse error at line %d: %s", e.Line, e.Message)
}
