package consensus

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// bufferWriter collects written records as lines.
type bufferWriter struct {
	header  bool
	lines   []string
	flushed bool
}

func (w *bufferWriter) WriteHeader() error { w.header = true; return nil }

func (w *bufferWriter) Write(r *vcf.Record) error {
	w.lines = append(w.lines, r.String())
	return nil
}

func (w *bufferWriter) Flush() error { w.flushed = true; return nil }

type collector struct{ results []*Result }

func (c *collector) Observe(res *Result) error {
	c.results = append(c.results, res)
	return nil
}

func openCohort(t *testing.T, tsv string) (*vcf.Parser, *features.Reader) {
	t.Helper()

	variants, err := vcf.NewParser(findTestFile(t, "cohort.vcf"))
	require.NoError(t, err)
	t.Cleanup(func() { variants.Close() })

	rows, err := features.Open(findTestFile(t, tsv))
	require.NoError(t, err)
	t.Cleanup(func() { rows.Close() })

	return variants, rows
}

func TestMergerRunCohort(t *testing.T) {
	variants, rows := openCohort(t, "cohort.tsv")

	m := NewMerger(NewConfig(variants.SampleNames(), DefaultOptions()))
	c := &collector{}
	m.AddObserver(c)

	w := &bufferWriter{}
	stats, err := m.Run(variants, rows, w)
	require.NoError(t, err)

	assert.True(t, w.header)
	assert.True(t, w.flushed)
	assert.Equal(t, Stats{Records: 3, Rejects: 1, NoCalls: 1, Reconstructed: 1}, stats)
	require.Len(t, w.lines, 3)

	// QUAL: two .bwa samples, so an aligner is unreliable above 2 MQ0 reads.
	quals := make([]string, len(w.lines))
	for i, line := range w.lines {
		quals[i] = strings.Split(line, "\t")[vcf.ColQual]
	}
	assert.Equal(t, []string{"3", "1", "0"}, quals)

	noCall := strings.Split(w.lines[1], "\t")
	tumor := noCall[vcf.PrefixColumns]
	assert.Equal(t, "0/0:6,8,2,4:7,7,3,3:0:0:0.3:33.3:40.1:1.5:0.123:.:36.8:41:1.25:-1.23:0.5", tumor)
	assert.Len(t, strings.Split(tumor, ":"), len(strings.Split(noCall[vcf.ColFormat], ":")))
	assert.Equal(t, "0/0", noCall[vcf.PrefixColumns+1], "normal untouched")

	require.Len(t, c.results, 3)
	first, second, third := c.results[0], c.results[1], c.results[2]

	assert.Equal(t, Tier1, first.Tier)
	assert.Nil(t, first.Rejected)
	assert.Nil(t, first.NoCall)
	assert.Nil(t, first.Called, "no baseline without rejects or no-calls")

	assert.Equal(t, Tier3A, second.Tier)
	assert.Equal(t, [3]int{5, 1, 0}, second.MQ0)
	require.NotNil(t, second.NoCall)
	assert.Equal(t, []Reason{LowBaseQuality}, second.NoCall.Evidence[0].Reasons)
	assert.Equal(t, []string{"P1_T_1.bwa"}, second.Reconstructed)
	require.NotNil(t, second.Called)
	assert.Empty(t, second.Called.Evidence)

	assert.Equal(t, Rejected, third.Tier)
	require.NotNil(t, third.Rejected)
	assert.Equal(t, 1, third.Rejected.Counts.Get(LowVarDepth))
	assert.Equal(t, 1, third.Rejected.Counts.Total())
	assert.Empty(t, third.Reconstructed)
	require.NotNil(t, third.Called)
	require.Len(t, third.Called.Evidence, 1)
	assert.Equal(t, "P1_N_1.bwa", third.Called.Evidence[0].Sample)
	assert.Zero(t, third.Called.Evidence[0].VarDepth)
}

func TestMergerRunCompressedFeatures(t *testing.T) {
	variants, rows := openCohort(t, "cohort.tsv.gz")

	stats, err := NewMerger(NewConfig(variants.SampleNames(), DefaultOptions())).
		Run(variants, rows, &bufferWriter{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
}

func TestMergerRunDesynchronized(t *testing.T) {
	variants, rows := openCohort(t, "cohort_desync.tsv")

	w := &bufferWriter{}
	_, err := NewMerger(NewConfig(variants.SampleNames(), DefaultOptions())).Run(variants, rows, w)

	var sm *StructuralMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, 7, sm.Line)
	require.NotNil(t, sm.Variant)
	require.NotNil(t, sm.Features)
	assert.Equal(t, int64(2000), sm.Variant.Pos)
	assert.Equal(t, int64(2001), sm.Features.Pos)
	assert.Len(t, w.lines, 1, "records before the fault are written")
	assert.False(t, w.flushed)
}

func TestMergerRunUnevenStreams(t *testing.T) {
	const (
		vcfHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tP1_T_1.bwa\n"
		info      = "bwaMQ0=0;bowtieMQ0=0;novoMQ0=0"
		tsvHeader = "CHROM\tPOS\tREF\tALT\n"
	)
	vcfLine := "1\t100\t.\tA\tT\t.\tPASS\t" + info + "\tGT\t0/1\n"

	tests := []struct {
		name         string
		vcf, tsv     string
		variantEnded bool
	}{
		{"feature table longer", vcfHeader + vcfLine, tsvHeader + "1\t100\tA\tT\n1\t200\tC\tG\n", true},
		{"vcf longer", vcfHeader + vcfLine + vcfLine, tsvHeader + "1\t100\tA\tT\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variants, err := vcf.NewParserFromReader(strings.NewReader(tt.vcf))
			require.NoError(t, err)
			rows, err := features.NewReader(strings.NewReader(tt.tsv))
			require.NoError(t, err)

			_, err = NewMerger(NewConfig(variants.SampleNames(), DefaultOptions())).
				Run(variants, rows, &bufferWriter{})

			var sm *StructuralMismatchError
			require.True(t, errors.As(err, &sm))
			assert.Equal(t, tt.variantEnded, sm.Variant == nil)
			assert.Equal(t, !tt.variantEnded, sm.Features == nil)
			assert.Contains(t, err.Error(), "end of input")
		})
	}
}

func TestMergerRunEmpty(t *testing.T) {
	variants, err := vcf.NewParserFromReader(strings.NewReader("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"))
	require.NoError(t, err)
	rows, err := features.NewReader(strings.NewReader("CHROM\tPOS\tREF\tALT\n"))
	require.NoError(t, err)

	w := &bufferWriter{}
	stats, err := NewMerger(NewConfig(nil, DefaultOptions())).Run(variants, rows, w)
	require.NoError(t, err)
	assert.Zero(t, stats.Records)
	assert.True(t, w.header)
	assert.True(t, w.flushed)
}

func TestReconcileMissingMQ0(t *testing.T) {
	layout := vcf.NewLayout([]string{"P1_T_1.bwa"})
	rec, err := layout.Parse("1\t2000\t.\tG\tC\t.\tPASS\tbwaMQ0=0;novoMQ0=0\tGT\t0/1")
	require.NoError(t, err)

	_, err = NewMerger(NewConfig(layout.Samples(), DefaultOptions())).
		Reconcile(rec, newRow(t, testKey, metrics{}))

	var mi *MissingInfoError
	require.True(t, errors.As(err, &mi))
	assert.Equal(t, "bowtieMQ0", mi.Field)
}

func TestReconcileLenientLeavesPlaceholder(t *testing.T) {
	layout := vcf.NewLayout([]string{"P1_T_1.bwa", "P2_T_1.bwa"})
	rec, err := layout.Parse("1\t2000\t.\tG\tC\t.\tTier2A\t" +
		"bwaMQ0=0;bowtieMQ0=0;novoMQ0=0;nNoCall=2;noCallSamples=P1_T_1.bwa,P2_T_1.bwa\t" +
		"GT:DP4\t./.\t./.")
	require.NoError(t, err)

	// P1 has full evidence but no DP; P2 is complete.
	p1 := passing()
	delete(p1, features.Depth)
	row := newRow(t, testKey, metrics{
		"P1_T_1.bwa": p1,
		"P1_N_1.bwa": cleanNormal(),
		"P2_T_1.bwa": passing(),
		"P2_N_1.bwa": cleanNormal(),
	})

	opts := DefaultOptions()
	opts.Policy = Lenient
	res, err := NewMerger(NewConfig(layout.Samples(), opts)).Reconcile(rec, row)
	require.NoError(t, err)

	assert.Equal(t, []string{"P2_T_1.bwa"}, res.Reconstructed)
	assert.Equal(t, []string{"P1_T_1.bwa"}, res.NoCall.Skipped)

	p1Field, _ := rec.Sample("P1_T_1.bwa")
	p2Field, _ := rec.Sample("P2_T_1.bwa")
	assert.Equal(t, "./.", p1Field)
	assert.Equal(t, "0/0:6,6,4,4", p2Field)

	opts.Policy = Strict
	rec, err = layout.Parse(rec.String())
	require.NoError(t, err)
	_, err = NewMerger(NewConfig(layout.Samples(), opts)).Reconcile(rec, row)
	var mc *features.MissingColumnError
	assert.True(t, errors.As(err, &mc))
}

func TestReconcileCalledBaseline(t *testing.T) {
	layout := vcf.NewLayout([]string{"P1_T_1.bwa", "P2_T_1.bwa"})
	rec, err := layout.Parse("1\t2000\t.\tG\tC\t.\tREJECT\t" +
		"bwaMQ0=0;bowtieMQ0=0;novoMQ0=0;nREJECTS=1;rejectedSamples=P1_T_1.bwa;calledSamples=P2_T_1.bwa\t" +
		"GT\t0/0\t0/1")
	require.NoError(t, err)

	low := passing()
	low[features.AltFor] = "1"
	low[features.AltRev] = "1"
	called := passing()
	called[features.AltFor] = "7"
	called[features.AltRev] = "5"
	row := newRow(t, testKey, metrics{
		"P1_T_1.bwa": low,
		"P1_N_1.bwa": cleanNormal(),
		"P2_T_1.bwa": called,
		"P2_N_1.bwa": cleanNormal(),
	})

	res, err := NewMerger(NewConfig(layout.Samples(), DefaultOptions())).Reconcile(rec, row)
	require.NoError(t, err)

	require.NotNil(t, res.Rejected)
	require.Len(t, res.Rejected.Evidence, 1)
	assert.Equal(t, "P1_T_1.bwa", res.Rejected.Evidence[0].Sample)

	require.NotNil(t, res.Called)
	require.Len(t, res.Called.Evidence, 1)
	baseline := res.Called.Evidence[0]
	assert.Equal(t, "P2_T_1.bwa", baseline.Sample)
	assert.Equal(t, 12, baseline.VarDepth)
	assert.Empty(t, baseline.Reasons)
	assert.Zero(t, res.Called.Counts.Total())
}

func TestReconcileVerdict(t *testing.T) {
	layout := vcf.NewLayout([]string{"P1_T_1.bwa"})
	rec, err := layout.Parse("1\t2000\t.\tG\tC\t.\tREJECT\t" +
		"bwaMQ0=0;bowtieMQ0=0;novoMQ0=0;nREJECTS=1;rejectedSamples=P1_T_1.bwa\tGT\t0/0")
	require.NoError(t, err)

	low := passing()
	low[features.AltFor] = "1"
	low[features.AltRev] = "1"
	row := newRow(t, testKey, metrics{"P1_T_1.bwa": low, "P1_N_1.bwa": cleanNormal()})

	m := NewMerger(NewConfig(layout.Samples(), DefaultOptions()))
	m.SetVerdict(func(tier Tier, res *Result) (string, bool) {
		if tier != Rejected || res.Rejected == nil {
			return "", false
		}
		var names []string
		for _, r := range Reasons {
			if res.Rejected.Counts.Get(r) > 0 {
				names = append(names, r.String())
			}
		}
		return strings.Join(names, ","), true
	})

	res, err := m.Reconcile(rec, row)
	require.NoError(t, err)
	assert.Equal(t, "lowVarDP", res.Verdict)

	v, ok := rec.Info(VerdictInfoKey)
	assert.True(t, ok)
	assert.Equal(t, "lowVarDP", v)
}

func TestStructuralMismatchMessage(t *testing.T) {
	e := &StructuralMismatchError{Line: 12, Variant: &testKey}
	assert.Equal(t,
		"streams out of sync at vcf line 12: vcf 1:2000 G>C, feature table end of input",
		e.Error())
}
