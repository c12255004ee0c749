package annotate

import "github.com/inodb/infofrac/internal/vcf"

// InfoAnnotator computes site-level INFO annotations from a called variant.
// Implementations must be safe for concurrent use; the engine calls Annotate
// from several workers at once.
type InfoAnnotator interface {
	Name() string          // e.g. "fraction_informative_reads"
	Keys() []string        // INFO keys this annotator produces
	HeaderLines() []string // ##INFO lines describing Keys
	Annotate(v *vcf.Variant) (map[string]float64, error)
}
