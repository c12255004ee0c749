package annotate

import (
	"testing"

	"github.com/inodb/infofrac/internal/vcf"
)

func TestSiteAnnotation_Value(t *testing.T) {
	tests := []struct {
		name   string
		site   *SiteAnnotation
		want   float64
		wantOK bool
	}{
		{"nil site", nil, 0, false},
		{"nil values", &SiteAnnotation{}, 0, false},
		{"missing key", &SiteAnnotation{Values: map[string]float64{"X": 1}}, 0, false},
		{"present", &SiteAnnotation{Values: map[string]float64{FractionInformativeReadsKey: 0.25}}, 0.25, true},
		{"present zero", &SiteAnnotation{Values: map[string]float64{FractionInformativeReadsKey: 0}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.site.Value(FractionInformativeReadsKey)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Value() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestAllocRegression_Compute keeps the per-site cost to the result map.
func TestAllocRegression_Compute(t *testing.T) {
	minDP := "7"
	v := &vcf.Variant{
		Info: map[string]interface{}{vcf.DepthKey: 40},
		Genotypes: []*vcf.Genotype{
			{Sample: "A", AD: []int{10, 12}},
			{Sample: "B", MinDP: &minDP},
			nil,
		},
	}
	f := NewFractionInformativeReads()

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := f.Compute(v); err != nil {
			t.Fatal(err)
		}
	})
	if allocs > 2 {
		t.Errorf("Compute allocated %.0f times, want at most 2", allocs)
	}
}
