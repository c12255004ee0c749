package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// FORMAT keys read into structured Genotype fields.
const (
	AlleleDepthKey = "AD"
	MinDepthKey    = "MIN_DP"
)

// Genotype is one sample's calling record at a site.
type Genotype struct {
	Sample string
	// AD holds per-allele read depths. Nil means the sample carries no AD
	// value; a non-nil empty slice is a present but empty AD.
	AD []int
	// MinDP is the raw MIN_DP value from reference-confidence blocks. It is
	// kept as text and only interpreted by consumers that need it.
	MinDP  *string
	Fields map[string]string // remaining FORMAT values by key
}

// HasAD reports whether the genotype carries allelic depths.
func (g *Genotype) HasAD() bool {
	return g != nil && g.AD != nil
}

// parseGenotype builds a Genotype from one sample column. It returns nil when
// every value in the column is missing.
func parseGenotype(sample string, format []string, column string) (*Genotype, error) {
	values := strings.Split(column, ":")
	if isMissingColumn(values) {
		return nil, nil
	}

	g := &Genotype{Sample: sample}
	for i, key := range format {
		// Trailing FORMAT fields may be dropped from a sample column.
		if i >= len(values) {
			break
		}
		val := values[i]
		switch key {
		case AlleleDepthKey:
			ad, err := parseAlleleDepths(val)
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", sample, err)
			}
			g.AD = ad
		case MinDepthKey:
			if val != "." && val != "" {
				raw := val
				g.MinDP = &raw
			}
		default:
			if g.Fields == nil {
				g.Fields = make(map[string]string, len(format))
			}
			g.Fields[key] = val
		}
	}
	return g, nil
}

// parseAlleleDepths parses a comma-separated AD value. Missing components
// count as zero reads.
func parseAlleleDepths(val string) ([]int, error) {
	if val == "." || val == "" {
		return nil, nil
	}
	parts := strings.Split(val, ",")
	ad := make([]int, len(parts))
	for i, p := range parts {
		if p == "." {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid AD value %q", val)
		}
		ad[i] = n
	}
	return ad, nil
}

func isMissingColumn(values []string) bool {
	for _, v := range values {
		if v != "." && v != "./." && v != ".|." && v != "" {
			return false
		}
	}
	return true
}
