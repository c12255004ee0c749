package vcf

import "testing"

func TestVariant_Depth(t *testing.T) {
	tests := []struct {
		name string
		info map[string]interface{}
		want int
	}{
		{"int", map[string]interface{}{"DP": 12}, 12},
		{"int64", map[string]interface{}{"DP": int64(30)}, 30},
		{"string", map[string]interface{}{"DP": "8"}, 8},
		{"unparseable string", map[string]interface{}{"DP": "x"}, 0},
		{"flag", map[string]interface{}{"DP": true}, 0},
		{"absent", map[string]interface{}{"AC": "1"}, 0},
		{"nil info", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Info: tt.info}
			if got := v.Depth(); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}

	var nilVariant *Variant
	if got := nilVariant.Depth(); got != 0 {
		t.Errorf("nil Depth() = %d, want 0", got)
	}
}

func TestVariant_NormalizeChrom(t *testing.T) {
	tests := []struct {
		name  string
		chrom string
		want  string
	}{
		{"with chr prefix", "chr12", "12"},
		{"without chr prefix", "12", "12"},
		{"chrX", "chrX", "X"},
		{"MT", "MT", "MT"},
		{"empty", "", ""},
		{"short chr", "ch", "ch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Chrom: tt.chrom}
			if got := v.NormalizeChrom(); got != tt.want {
				t.Errorf("NormalizeChrom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenotype_HasAD(t *testing.T) {
	tests := []struct {
		name string
		g    *Genotype
		want bool
	}{
		{"nil genotype", nil, false},
		{"absent AD", &Genotype{}, false},
		{"empty AD", &Genotype{AD: []int{}}, true},
		{"AD", &Genotype{AD: []int{1, 2}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.HasAD(); got != tt.want {
				t.Errorf("HasAD() = %v, want %v", got, tt.want)
			}
		})
	}
}
