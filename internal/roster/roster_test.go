package roster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignerOf(t *testing.T) {
	tests := []struct {
		sample string
		want   Aligner
	}{
		{"P1_T_1.bwa", BWA},
		{"P1_T_1.bowtie", Bowtie},
		{"P1_T_1.novo", Novo},
		{"P1_T_1.bwa.bam", Unaligned},
		{"P1_T_1", Unaligned},
		{"bwa", Unaligned},
	}
	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			assert.Equal(t, tt.want, AlignerOf(tt.sample))
		})
	}
}

func TestAlignerNames(t *testing.T) {
	assert.Equal(t, "combined_bowtie_normals", Bowtie.PooledNormal())
	assert.Equal(t, ".novo", Novo.Suffix())
	for _, a := range Aligners {
		assert.Equal(t, a, ParseAligner(a.String()))
	}
	assert.Equal(t, Unaligned, ParseAligner("star"))
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, Tumor, RoleOf("P1_T_1.bwa"))
	assert.Equal(t, MatchedNormal, RoleOf("P1_N_1.bwa"))
	assert.Equal(t, PooledNormal, RoleOf("combined_novo_normals"))
	assert.Equal(t, "pooled-normal", PooledNormal.String())
}

func TestNormalName(t *testing.T) {
	assert.Equal(t, "P1_N_1.bwa", NormalName("P1_T_1.bwa"))
	assert.Equal(t, "A_N_B_N_.novo", NormalName("A_T_B_T_.novo"))
	assert.Equal(t, "sample.bwa", NormalName("sample.bwa"))
}

type columns map[string]bool

func (c columns) HasSample(s string) bool { return c[s] }

func TestMatchedNormalOf(t *testing.T) {
	cols := columns{"P1_T_1.bwa": true, "P1_N_1.bwa": true}

	n, err := MatchedNormalOf("P1_T_1.bwa", cols)
	require.NoError(t, err)
	assert.Equal(t, "P1_N_1.bwa", n)

	_, err = MatchedNormalOf("P2_T_1.bwa", cols)
	var mn *MatchedNormalNotFoundError
	require.True(t, errors.As(err, &mn))
	assert.Equal(t, "P2_T_1.bwa", mn.Tumor)
	assert.Equal(t, "P2_N_1.bwa", mn.Normal)
}

func TestRoster(t *testing.T) {
	r := New([]string{
		"P1_T_1.bwa",
		"P1_T_1.bowtie",
		"combined_bwa_normals",
		"P2_T_1.bwa",
		"P2_T_1.novo",
		"unlabelled",
	})

	assert.Equal(t, []string{"P1_T_1.bwa", "P2_T_1.bwa"}, r.Tumors(BWA))
	assert.Equal(t, []string{"P1_T_1.bowtie"}, r.Tumors(Bowtie))
	assert.Equal(t, []string{"P2_T_1.novo"}, r.Tumors(Novo))
	assert.Nil(t, r.Tumors(Unaligned))
	assert.Equal(t, 4, r.TumorCount())
	assert.Len(t, r.Samples(), 6)

	i, ok := r.PooledNormalIndex(BWA)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = r.PooledNormalIndex(Novo)
	assert.False(t, ok)
}

func TestRosterWithRole(t *testing.T) {
	r := New([]string{
		"P1_T_1.bwa",
		"P1_N_1.bwa",
		"combined_bowtie_normals",
		"P2_T_1.bwa",
		"P2_N_1.novo",
		"combined_bwa_normals",
	})

	assert.Equal(t, []string{"P1_N_1.bwa", "P2_N_1.novo"}, r.WithRole(MatchedNormal))
	assert.Equal(t, []string{"combined_bowtie_normals", "combined_bwa_normals"}, r.WithRole(PooledNormal))
	assert.Equal(t, []string{"P1_T_1.bwa", "P2_T_1.bwa"}, r.WithRole(Tumor))
}
