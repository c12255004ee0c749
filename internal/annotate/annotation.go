// Package annotate computes site-level INFO annotations for called variants.
package annotate

import "github.com/inodb/infofrac/internal/vcf"

// SiteAnnotation holds the annotation values computed for one site.
// Values only contains keys whose annotator succeeded.
type SiteAnnotation struct {
	Variant *vcf.Variant
	Values  map[string]float64
}

// Value returns the value for key and whether it was computed.
func (s *SiteAnnotation) Value(key string) (float64, bool) {
	if s == nil || s.Values == nil {
		return 0, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Stats summarizes an AnnotateAll run.
type Stats struct {
	SitesRead      int // sites read from the parser
	SitesAnnotated int // sites where every annotator succeeded
	SitesFailed    int // sites where at least one annotator failed
}
