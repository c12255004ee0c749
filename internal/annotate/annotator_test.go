package annotate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/infofrac/internal/vcf"
)

// captureWriter records written sites in order.
type captureWriter struct {
	sites   []*SiteAnnotation
	flushed bool
	failAt  int // 1-based write index to fail at; 0 never fails
}

func (w *captureWriter) WriteHeader() error { return nil }

func (w *captureWriter) Write(s *SiteAnnotation) error {
	if w.failAt > 0 && len(w.sites)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.sites = append(w.sites, s)
	return nil
}

func (w *captureWriter) Flush() error {
	w.flushed = true
	return nil
}

// constAnnotator emits a fixed value under its key.
type constAnnotator struct {
	key string
	val float64
}

func (c constAnnotator) Name() string          { return "const_" + c.key }
func (c constAnnotator) Keys() []string        { return []string{c.key} }
func (c constAnnotator) HeaderLines() []string { return []string{"##INFO=<ID=" + c.key + ">"} }
func (c constAnnotator) Annotate(*vcf.Variant) (map[string]float64, error) {
	return map[string]float64{c.key: c.val}, nil
}

func openTestVCF(t *testing.T, name string) *vcf.Parser {
	t.Helper()
	p, err := vcf.NewParser(findTestFile(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewAnnotator_DuplicateKeys(t *testing.T) {
	_, err := NewAnnotator(NewFractionInformativeReads(), constAnnotator{key: FractionInformativeReadsKey})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FractionInformativeReads")
}

func TestAnnotator_KeysAndHeaders(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads(), constAnnotator{key: "X"})
	require.NoError(t, err)

	assert.Equal(t, []string{FractionInformativeReadsKey, "X"}, ann.Keys())
	assert.Len(t, ann.HeaderLines(), 2)
	assert.Len(t, ann.Annotators(), 2)
}

func TestAnnotator_AnnotatePartialFailure(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads(), constAnnotator{key: "X", val: 2})
	require.NoError(t, err)

	bad := "x"
	v := &vcf.Variant{
		Info:      map[string]interface{}{"DP": 5},
		Genotypes: []*vcf.Genotype{{MinDP: &bad}},
	}

	s, err := ann.Annotate(v)
	require.ErrorIs(t, err, ErrMalformedFallbackDepth)
	assert.Contains(t, err.Error(), "fraction_informative_reads")

	_, ok := s.Value(FractionInformativeReadsKey)
	assert.False(t, ok)
	x, ok := s.Value("X")
	assert.True(t, ok)
	assert.Equal(t, 2.0, x)
}

func TestAnnotator_AnnotateAll_Cohort(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)
	ann.SetWorkers(4)

	w := &captureWriter{}
	stats, err := ann.AnnotateAll(context.Background(), openTestVCF(t, "cohort.vcf"), w)
	require.NoError(t, err)
	assert.True(t, w.flushed)
	assert.Equal(t, Stats{SitesRead: 5, SitesAnnotated: 5}, stats)

	want := []struct {
		pos      int64
		fraction float64
	}{
		{25245351, 1.0},
		{25245400, 0.8},
		{25245500, 0},
		{25245600, 0},
		{25245700, 0.9},
	}

	require.Len(t, w.sites, len(want))
	for i, tt := range want {
		t.Run(fmt.Sprint(tt.pos), func(t *testing.T) {
			s := w.sites[i]
			assert.Equal(t, tt.pos, s.Variant.Pos)
			got, ok := s.Value(FractionInformativeReadsKey)
			require.True(t, ok)
			assert.InDelta(t, tt.fraction, got, 1e-12)
		})
	}
}

func TestAnnotator_AnnotateAll_Lenient(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)
	ann.SetLogger(zap.New(core))

	w := &captureWriter{}
	stats, err := ann.AnnotateAll(context.Background(), openTestVCF(t, "malformed_min_dp.vcf"), w)
	require.NoError(t, err)
	assert.Equal(t, Stats{SitesRead: 3, SitesAnnotated: 2, SitesFailed: 1}, stats)

	// The failed site is still written, without the value.
	require.Len(t, w.sites, 3)
	_, ok := w.sites[1].Value(FractionInformativeReadsKey)
	assert.False(t, ok)
	got, _ := w.sites[2].Value(FractionInformativeReadsKey)
	assert.Equal(t, 0.5, got)

	entries := logs.FilterMessage("failed to annotate site").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(200), entries[0].ContextMap()["pos"])
}

func TestAnnotator_AnnotateAll_Strict(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)
	ann.SetStrict(true)

	w := &captureWriter{}
	stats, err := ann.AnnotateAll(context.Background(), openTestVCF(t, "malformed_min_dp.vcf"), w)
	require.Error(t, err)

	var mfe *MalformedFallbackDepthError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "abc", mfe.Value)
	assert.Contains(t, err.Error(), "annotate chr1:200")
	assert.Len(t, w.sites, 1)
	assert.Equal(t, 1, stats.SitesFailed)
	assert.False(t, w.flushed)
}

func TestAnnotator_AnnotateAll_WriteError(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)

	w := &captureWriter{failAt: 2}
	_, err = ann.AnnotateAll(context.Background(), openTestVCF(t, "cohort.vcf"), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAnnotator_AnnotateAll_ParseError(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t100\t.\tA\tT\t.\tPASS\tDP=7\n" +
		"1\tnope\t.\tA\tT\t.\tPASS\tDP=7\n"
	p, err := vcf.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)

	w := &captureWriter{}
	_, err = ann.AnnotateAll(context.Background(), p, w)
	var pe *vcf.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Len(t, w.sites, 1)
}

func TestAnnotator_AnnotateAll_Canceled(t *testing.T) {
	ann, err := NewAnnotator(NewFractionInformativeReads())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ann.AnnotateAll(ctx, openTestVCF(t, "cohort.vcf"), &captureWriter{})
	assert.ErrorIs(t, err, context.Canceled)
}

// findTestFile locates a test file in the testdata directory.
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
