package consensus

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

var testKey = vcf.Key{Chrom: "1", Pos: 2000, Ref: "G", Alt: "C"}

// metrics is a sample -> metric -> raw value table.
type metrics map[string]map[string]string

// passing returns evidence columns that trigger no reason for a bwa sample.
func passing() map[string]string {
	return map[string]string{
		features.AltFor:         "4",
		features.AltRev:         "4",
		features.RefFor:         "6",
		features.RefRev:         "6",
		features.Depth:          "20",
		features.AltBQ:          "38",
		features.AltMQ:          "44",
		features.AltNM:          "1.1",
		features.RefBQ:          "37",
		features.RefMQ:          "45",
		features.RefNM:          "0.5",
		features.MQ0:            "0",
		features.PoorReads:      "0",
		features.OtherReads:     "0",
		features.RefConcordant:  "5",
		features.RefDiscordant:  "5",
		features.AltConcordant:  "4",
		features.AltDiscordant:  "4",
		features.ConcordanceFET: "0.5",
		features.StrandBiasFET:  "0.2",
		features.ZRanksumsBQ:    "0.1",
		features.ZRanksumsMQ:    "0.3",
	}
}

// cleanNormal returns a matched normal with no variant support.
func cleanNormal() map[string]string {
	return map[string]string{
		features.AltFor: "0",
		features.AltRev: "0",
	}
}

// newRow builds a feature row for key from the given table.
func newRow(t *testing.T, key vcf.Key, m metrics) *features.Row {
	t.Helper()

	cols := []string{features.ColChrom, features.ColPos, features.ColRef, features.ColAlt}
	vals := []string{key.Chrom, strconv.FormatInt(key.Pos, 10), key.Ref, key.Alt}
	for sample, values := range m {
		for metric, v := range values {
			cols = append(cols, features.ColumnName(sample, metric))
			vals = append(vals, v)
		}
	}

	h, err := features.ParseHeader(strings.Join(cols, "\t"))
	require.NoError(t, err)
	row, err := h.Parse(strings.Join(vals, "\t"))
	require.NoError(t, err)
	return row
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
