package consensus

import (
	"fmt"

	"github.com/ShahiRB/somaticseq/internal/roster"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// Recoded quality scores.
const (
	QualUnreliable = 0
	QualMixed      = 1
	QualReliable   = 3
)

// RecodeQuality scores a site by how many aligners report more MQ0 reads
// than there are tumor samples: all three gives 0, one or two gives 1,
// none gives 3.
func RecodeQuality(bwaMQ0, bowtieMQ0, novoMQ0, tumorCount int) int {
	exceeded := 0
	for _, n := range []int{bwaMQ0, bowtieMQ0, novoMQ0} {
		if n > tumorCount {
			exceeded++
		}
	}

	switch exceeded {
	case 3:
		return QualUnreliable
	case 0:
		return QualReliable
	}
	return QualMixed
}

// MQ0InfoKey is the INFO key carrying an aligner's MQ0 total.
func MQ0InfoKey(a roster.Aligner) string {
	return a.String() + "MQ0"
}

// MissingInfoError reports a required INFO key absent from a record.
type MissingInfoError struct {
	Key   vcf.Key
	Field string
}

func (e *MissingInfoError) Error() string {
	return fmt.Sprintf("%s: missing INFO %s", e.Key, e.Field)
}

// alignerMQ0 reads the three per-aligner MQ0 totals from a record.
func alignerMQ0(rec *vcf.Record) ([3]int, error) {
	var counts [3]int
	for i, a := range roster.Aligners {
		n, ok, err := rec.InfoInt(MQ0InfoKey(a))
		if err != nil {
			return counts, fmt.Errorf("%s: %w", rec.Key, err)
		}
		if !ok {
			return counts, &MissingInfoError{Key: rec.Key, Field: MQ0InfoKey(a)}
		}
		counts[i] = n
	}
	return counts, nil
}
