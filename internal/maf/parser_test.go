package maf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/infofrac/internal/vcf"
)

func TestParser_ParseSites(t *testing.T) {
	p, err := NewParser(findTestFile(t, "tumor_normal.maf"))
	require.NoError(t, err)
	defer p.Close()

	// KRAS: both samples carry counts
	v, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "12", v.Chrom)
	assert.Equal(t, int64(25245350), v.Pos)
	assert.Equal(t, "C", v.Ref)
	assert.Equal(t, "A", v.Alt)
	assert.Equal(t, 180, v.Depth())
	want := []*vcf.Genotype{
		{Sample: "TUMOR-01", AD: []int{70, 25}},
		{Sample: "NORMAL-01", AD: []int{78, 0}},
	}
	if diff := cmp.Diff(want, v.Genotypes); diff != "" {
		t.Errorf("genotypes mismatch (-want +got):\n%s", diff)
	}

	// TP53: normal columns empty
	v, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 50, v.Depth())
	require.Len(t, v.Genotypes, 2)
	assert.Equal(t, []int{30, 20}, v.Genotypes[0].AD)
	assert.Nil(t, v.Genotypes[1])

	// BRAF: everything NA, no DP
	v, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0, v.Depth())
	_, hasDP := v.Info[vcf.DepthKey]
	assert.False(t, hasDP)
	assert.Nil(t, v.Genotypes[0])
	assert.Nil(t, v.Genotypes[1])

	// PIK3CA
	v, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 40, v.Depth())
	assert.Equal(t, []int{10, 10}, v.Genotypes[0].AD)
	assert.Nil(t, v.Genotypes[1])

	v, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 6, p.LineNumber())
}

func TestParser_Header(t *testing.T) {
	p, err := NewParser(findTestFile(t, "tumor_normal.maf"))
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, strings.HasPrefix(p.Header(), "Hugo_Symbol\tChromosome"))

	cols := p.Columns()
	assert.Equal(t, 1, cols.Chromosome)
	assert.Equal(t, 2, cols.StartPosition)
	assert.Equal(t, 6, cols.TumorSeqAllele2)
	assert.Equal(t, 10, cols.TumorRefCount)
	assert.Equal(t, 14, cols.NormalAltCount)

	header := p.VCFHeader()
	require.NotEmpty(t, header)
	assert.True(t, strings.HasPrefix(header[len(header)-1], "#CHROM"))
}

func TestParser_FromReader(t *testing.T) {
	input := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\tt_ref_count\tt_alt_count\tt_depth\n" +
		"1\t100\tA\tG\t5\t3\t10"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	v, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 10, v.Depth())
	require.Len(t, v.Genotypes, 2)
	assert.Equal(t, "", v.Genotypes[0].Sample)
	assert.Equal(t, []int{5, 3}, v.Genotypes[0].AD)
	assert.Nil(t, v.Genotypes[1])
}

func TestParser_Errors(t *testing.T) {
	header := "Chromosome\tStart_Position\tReference_Allele\tTumor_Seq_Allele2\tt_ref_count\tt_alt_count\n"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing required column", "Chromosome\tStart_Position\n1\t100\n", "required column 'Reference_Allele' not found"},
		{"no header", "#version 2.4\n", "no header line found"},
		{"bad position", header + "1\tabc\tA\tG\t1\t2\n", "invalid position: abc"},
		{"bad count", header + "1\t100\tA\tG\tx\t2\n", "invalid read count: x"},
		{"short line", header + "1\t100\n", "expected at least 4 columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader(tt.input))
			if err == nil {
				_, err = p.Next()
			}
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), tt.want)
		})
	}
}

func TestParser_ImplementsVariantParser(t *testing.T) {
	var _ vcf.VariantParser = (*Parser)(nil)
}

func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
