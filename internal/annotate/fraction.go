package annotate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/inodb/infofrac/internal/vcf"
)

// FractionInformativeReadsKey is the INFO key for the informative read fraction.
const FractionInformativeReadsKey = "FractionInformativeReads"

const fractionInformativeReadsHeader = `##INFO=<ID=FractionInformativeReads,Number=1,Type=Float,Description="The fraction of informative reads out of the total reads">`

// ErrMalformedFallbackDepth matches any MalformedFallbackDepthError via errors.Is.
var ErrMalformedFallbackDepth = errors.New("malformed fallback depth")

// MalformedFallbackDepthError reports a MIN_DP value that is not an integer.
type MalformedFallbackDepthError struct {
	Sample string
	Value  string
	Err    error
}

func (e *MalformedFallbackDepthError) Error() string {
	return fmt.Sprintf("malformed %s value %q for sample %q: %v", vcf.MinDepthKey, e.Value, e.Sample, e.Err)
}

func (e *MalformedFallbackDepthError) Unwrap() error { return e.Err }

func (e *MalformedFallbackDepthError) Is(target error) bool {
	return target == ErrMalformedFallbackDepth
}

// FractionInformativeReads computes sum(AD) / DP for a site. The numerator
// sums over all samples and all alleles in each sample; the denominator is
// the site-level DP.
//
// Genotypes without AD fall back to MIN_DP. Reference blocks are finalized
// after site annotations in some callers, so their AD is not populated yet.
type FractionInformativeReads struct{}

// NewFractionInformativeReads returns the annotator.
func NewFractionInformativeReads() *FractionInformativeReads {
	return &FractionInformativeReads{}
}

func (f *FractionInformativeReads) Name() string { return "fraction_informative_reads" }

func (f *FractionInformativeReads) Keys() []string {
	return []string{FractionInformativeReadsKey}
}

func (f *FractionInformativeReads) HeaderLines() []string {
	return []string{fractionInformativeReadsHeader}
}

// Annotate implements InfoAnnotator.
func (f *FractionInformativeReads) Annotate(v *vcf.Variant) (map[string]float64, error) {
	return f.Compute(v)
}

// Compute returns the single-entry annotation for v. A MIN_DP that is not an
// integer yields a *MalformedFallbackDepthError.
func (f *FractionInformativeReads) Compute(v *vcf.Variant) (map[string]float64, error) {
	informative := 0
	if v != nil {
		for _, g := range v.Genotypes {
			if g == nil {
				continue
			}
			if g.HasAD() {
				for _, n := range g.AD {
					informative += n
				}
				continue
			}
			if g.MinDP != nil {
				n, err := strconv.Atoi(*g.MinDP)
				if err != nil {
					return nil, &MalformedFallbackDepthError{Sample: g.Sample, Value: *g.MinDP, Err: err}
				}
				informative += n
			}
		}
	}

	fraction := 0.0
	if depth := v.Depth(); depth != 0 {
		fraction = float64(informative) / float64(depth)
	}

	return map[string]float64{FractionInformativeReadsKey: fraction}, nil
}
