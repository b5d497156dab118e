package consensus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/roster"
)

func TestGatherEvidence(t *testing.T) {
	normal := cleanNormal()
	normal[features.AltFor] = "2"
	normal[features.AltRev] = "1"
	row := newRow(t, testKey, metrics{
		"P1_T_1.bwa": passing(),
		"P1_N_1.bwa": normal,
	})

	ev, err := GatherEvidence("P1_T_1.bwa", row)
	require.NoError(t, err)
	assert.Equal(t, Evidence{
		Sample:         "P1_T_1.bwa",
		Aligner:        roster.BWA,
		VarDepth:       8,
		NormalVarDepth: 3,
		BaseQuality:    38,
		MappingQuality: 44,
		EditDistance:   1.1,
	}, ev)
}

func TestGatherEvidenceMatchedNormalMissing(t *testing.T) {
	row := newRow(t, testKey, metrics{"P1_T_1.bwa": passing()})

	_, err := GatherEvidence("P1_T_1.bwa", row)
	var mn *roster.MatchedNormalNotFoundError
	require.True(t, errors.As(err, &mn))
	assert.Equal(t, "P1_N_1.bwa", mn.Normal)
}

func TestAttributeTallies(t *testing.T) {
	lowDepth := passing()
	lowDepth[features.AltFor] = "1"
	lowDepth[features.AltRev] = "1"
	lowDepth[features.AltMQ] = "36.3"

	several := passing()
	several[features.AltBQ] = "20"
	several[features.MQ0] = "5"

	row := newRow(t, testKey, metrics{
		"P1_T_1.bwa":    lowDepth,
		"P1_N_1.bwa":    cleanNormal(),
		"P2_T_1.bowtie": several,
		"P2_N_1.bowtie": {features.AltFor: "3", features.AltRev: "0"},
	})

	att, err := NewAttributor(DefaultThresholds, Strict).Attribute([]string{"P1_T_1.bwa", "P2_T_1.bowtie"}, row)
	require.NoError(t, err)
	require.Len(t, att.Evidence, 2)

	assert.Equal(t, []Reason{LowVarDepth}, att.Evidence[0].Reasons)
	assert.Equal(t, []Reason{Germline, LowBaseQuality, HighMQ0}, att.Evidence[1].Reasons)

	assert.Equal(t, 1, att.Counts.Get(LowVarDepth))
	assert.Equal(t, 0, att.Counts.Get(LowMappingQuality))
	assert.Equal(t, 1, att.Counts.Get(Germline))
	assert.Equal(t, 4, att.Counts.Total())
	assert.Empty(t, att.Skipped)
}

func TestAttributeEmptyList(t *testing.T) {
	row := newRow(t, testKey, metrics{"P1_T_1.bwa": passing()})

	att, err := NewAttributor(DefaultThresholds, Strict).Attribute(nil, row)
	require.NoError(t, err)
	assert.Empty(t, att.Evidence)
	assert.Zero(t, att.Counts.Total())
}

func TestAttributeMissingColumnPolicy(t *testing.T) {
	incomplete := passing()
	delete(incomplete, features.PoorReads)
	row := newRow(t, testKey, metrics{
		"P1_T_1.bwa": incomplete,
		"P1_N_1.bwa": cleanNormal(),
		"P2_T_1.bwa": passing(),
		"P2_N_1.bwa": cleanNormal(),
	})
	samples := []string{"P1_T_1.bwa", "P2_T_1.bwa"}

	t.Run("strict", func(t *testing.T) {
		_, err := NewAttributor(DefaultThresholds, Strict).Attribute(samples, row)
		var mc *features.MissingColumnError
		require.True(t, errors.As(err, &mc))
		assert.Equal(t, features.PoorReads, mc.Metric)
	})

	t.Run("lenient", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		a := NewAttributor(DefaultThresholds, Lenient)
		a.SetLogger(zap.New(core))

		att, err := a.Attribute(samples, row)
		require.NoError(t, err)
		assert.Equal(t, []string{"P1_T_1.bwa"}, att.Skipped)
		require.Len(t, att.Evidence, 1)
		assert.Equal(t, "P2_T_1.bwa", att.Evidence[0].Sample)
		assert.Equal(t, 1, logs.FilterMessage("skipping sample with missing evidence").Len())
	})

	t.Run("lenient does not excuse a missing matched normal", func(t *testing.T) {
		row := newRow(t, testKey, metrics{"P1_T_1.bwa": passing()})
		_, err := NewAttributor(DefaultThresholds, Lenient).Attribute([]string{"P1_T_1.bwa"}, row)
		var mn *roster.MatchedNormalNotFoundError
		assert.True(t, errors.As(err, &mn))
	})
}
