// Package vcf provides VCF file parsing functionality.
package vcf

import "strconv"

// DepthKey is the INFO key holding the total read depth at a site.
const DepthKey = "DP"

// Variant represents a single called site from a VCF file, including the
// per-sample genotype entries.
type Variant struct {
	Chrom         string                 // Chromosome name (e.g., "12", "chr12")
	Pos           int64                  // 1-based genomic position
	ID            string                 // Variant identifier (e.g., rs ID)
	Ref           string                 // Reference allele
	Alt           string                 // Alternate alleles, comma-separated as in the file
	Qual          string                 // QUAL column, kept verbatim ("." when missing)
	Filter        string                 // Filter status (PASS or filter name)
	Info          map[string]interface{} // INFO field key-value pairs
	InfoKeys      []string               // INFO keys in file order
	Format        []string               // FORMAT keys (nil if no sample columns)
	SampleColumns string                 // FORMAT + sample columns, verbatim
	Genotypes     []*Genotype            // one entry per sample; nil entries for fully missing samples
}

// Depth returns the site's total depth (INFO DP), or 0 if it is absent.
func (v *Variant) Depth() int {
	if v == nil {
		return 0
	}
	switch dp := v.Info[DepthKey].(type) {
	case int:
		return dp
	case int64:
		return int(dp)
	case string:
		n, err := strconv.Atoi(dp)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return NormalizeChrom(v.Chrom)
}

// NormalizeChrom strips a leading "chr" from a chromosome name.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}
