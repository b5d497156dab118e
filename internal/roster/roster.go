// Package roster classifies cohort samples by aligner and role using the
// naming conventions of the combined call set.
package roster

import (
	"fmt"
	"strings"
)

// Aligner is one of the three upstream alignment pipelines.
type Aligner int

const (
	Unaligned Aligner = iota
	BWA
	Bowtie
	Novo
)

// Aligners lists the known aligners in header-classification order.
var Aligners = []Aligner{BWA, Bowtie, Novo}

func (a Aligner) String() string {
	switch a {
	case BWA:
		return "bwa"
	case Bowtie:
		return "bowtie"
	case Novo:
		return "novo"
	}
	return ""
}

// ParseAligner is the inverse of Aligner.String.
func ParseAligner(s string) Aligner {
	for _, a := range Aligners {
		if a.String() == s {
			return a
		}
	}
	return Unaligned
}

// Suffix is the sample-name suffix that tags a sample with this aligner.
func (a Aligner) Suffix() string {
	return "." + a.String()
}

// PooledNormal is the fixed sample name of the aligner's pooled normal.
func (a Aligner) PooledNormal() string {
	return "combined_" + a.String() + "_normals"
}

// AlignerOf returns the aligner tagged by the sample's suffix, or Unaligned.
func AlignerOf(sample string) Aligner {
	for _, a := range Aligners {
		if strings.HasSuffix(sample, a.Suffix()) {
			return a
		}
	}
	return Unaligned
}

// Role is a sample's part in a tumor/normal pairing.
type Role int

const (
	Tumor Role = iota
	MatchedNormal
	PooledNormal
)

func (r Role) String() string {
	switch r {
	case MatchedNormal:
		return "normal"
	case PooledNormal:
		return "pooled-normal"
	}
	return "tumor"
}

const (
	tumorTag  = "_T_"
	normalTag = "_N_"
)

// RoleOf infers a sample's role from its name.
func RoleOf(sample string) Role {
	for _, a := range Aligners {
		if sample == a.PooledNormal() {
			return PooledNormal
		}
	}
	if strings.Contains(sample, normalTag) && !strings.Contains(sample, tumorTag) {
		return MatchedNormal
	}
	return Tumor
}

// NormalName derives a tumor's matched-normal sample name by replacing
// every "_T_" with "_N_". Names without the tag are returned unchanged.
func NormalName(sample string) string {
	return strings.ReplaceAll(sample, tumorTag, normalTag)
}

// ColumnSet reports whether evidence columns exist for a sample.
type ColumnSet interface {
	HasSample(sample string) bool
}

// MatchedNormalNotFoundError reports a derived normal with no evidence columns.
type MatchedNormalNotFoundError struct {
	Tumor  string
	Normal string
}

func (e *MatchedNormalNotFoundError) Error() string {
	return fmt.Sprintf("matched normal %q of %q has no feature columns", e.Normal, e.Tumor)
}

// MatchedNormalOf returns the matched-normal name of sample, verified
// against the evidence columns.
func MatchedNormalOf(sample string, cols ColumnSet) (string, error) {
	n := NormalName(sample)
	if !cols.HasSample(n) {
		return "", &MatchedNormalNotFoundError{Tumor: sample, Normal: n}
	}
	return n, nil
}

// Roster is the immutable sample classification of a VCF header.
type Roster struct {
	samples []string
	tumors  map[Aligner][]string
	pooled  map[Aligner]int
}

// New classifies the ordered sample names of a #CHROM line. Names with no
// aligner suffix are left out of every tumor group.
func New(samples []string) *Roster {
	r := &Roster{
		samples: samples,
		tumors:  make(map[Aligner][]string, len(Aligners)),
		pooled:  make(map[Aligner]int, len(Aligners)),
	}
	for _, a := range Aligners {
		r.pooled[a] = -1
	}

	for i, s := range samples {
		for _, a := range Aligners {
			if s == a.PooledNormal() && r.pooled[a] < 0 {
				r.pooled[a] = i
			}
		}
		if a := AlignerOf(s); a != Unaligned {
			r.tumors[a] = append(r.tumors[a], s)
		}
	}

	return r
}

// Samples returns all sample names in header order.
func (r *Roster) Samples() []string { return r.samples }

// Tumors returns the tumor samples tagged with aligner a.
func (r *Roster) Tumors(a Aligner) []string { return r.tumors[a] }

// WithRole returns the samples whose names mark them with role, in header
// order.
func (r *Roster) WithRole(role Role) []string {
	var out []string
	for _, s := range r.samples {
		if RoleOf(s) == role {
			out = append(out, s)
		}
	}
	return out
}

// PooledNormalIndex returns the sample-column offset of the aligner's
// pooled normal and whether the header carries it.
func (r *Roster) PooledNormalIndex(a Aligner) (int, bool) {
	i := r.pooled[a]
	return i, i >= 0
}

// TumorCount is the total number of aligner-tagged tumor samples.
func (r *Roster) TumorCount() int {
	n := 0
	for _, a := range Aligners {
		n += len(r.tumors[a])
	}
	return n
}
