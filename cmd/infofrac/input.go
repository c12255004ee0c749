package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/infofrac/internal/maf"
	"github.com/inodb/infofrac/internal/vcf"
)

// openInput opens path as VCF or MAF and returns the parser together with
// the VCF header lines used by the VCF writer.
func openInput(path, format string) (vcf.VariantParser, []string, error) {
	if format == "" || format == "auto" {
		format = detectInputFormat(path)
	}

	var (
		parser vcf.VariantParser
		header []string
		err    error
	)
	switch format {
	case "vcf":
		var p *vcf.Parser
		p, err = vcf.NewParser(path)
		if err == nil {
			parser, header = p, p.Header()
		}
	case "maf":
		var p *maf.Parser
		p, err = maf.NewParser(path)
		if err == nil {
			parser, header = p, p.VCFHeader()
		}
	default:
		return nil, nil, &usageError{fmt.Errorf("unknown input format %q (use vcf or maf)", format)}
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w (check that the file path is correct)", err)
		}
		return nil, nil, err
	}
	return parser, header, nil
}

// detectInputFormat detects the input file format based on extension or content.
func detectInputFormat(path string) string {
	lowerPath := strings.ToLower(path)
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	if strings.HasSuffix(lowerPath, ".vcf") {
		return "vcf"
	}
	if strings.HasSuffix(lowerPath, ".maf") {
		return "maf"
	}

	// cBioPortal MAF filenames
	baseName := filepath.Base(lowerPath)
	if baseName == "data_mutations.txt" || baseName == "data_mutations_extended.txt" {
		return "maf"
	}

	if path == "-" {
		return "vcf"
	}

	file, err := os.Open(path)
	if err != nil {
		return "vcf"
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil || n == 0 {
		return "vcf"
	}
	content := string(buf[:n])

	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return "vcf"
	}
	if strings.Contains(content, "Chromosome") && strings.Contains(content, "Start_Position") {
		return "maf"
	}

	return "vcf"
}
