// Package consensus reconciles a combined multi-caller VCF with its
// alignment feature table: it recodes QUAL from per-aligner MQ0 evidence,
// attributes rejects and no-calls to evidence failures, and back-fills
// no-call genotype fields.
package consensus

import (
	"github.com/ShahiRB/somaticseq/internal/roster"
)

// Reason is one evidence dimension that can explain a reject or no-call.
type Reason int

const (
	LowVarDepth Reason = iota
	Germline
	LowBaseQuality
	LowMappingQuality
	HighEditDistance
	HighMQ0
	HighPoorReads
	HighOtherReads

	numReasons
)

// Reasons lists every reason in reporting order.
var Reasons = []Reason{
	LowVarDepth, Germline, LowBaseQuality, LowMappingQuality,
	HighEditDistance, HighMQ0, HighPoorReads, HighOtherReads,
}

func (r Reason) String() string {
	switch r {
	case LowVarDepth:
		return "lowVarDP"
	case Germline:
		return "germline"
	case LowBaseQuality:
		return "lowBQ"
	case LowMappingQuality:
		return "lowMQ"
	case HighEditDistance:
		return "highNM"
	case HighMQ0:
		return "highMQ0"
	case HighPoorReads:
		return "highPoors"
	case HighOtherReads:
		return "highOthers"
	}
	return "unknown"
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) (Reason, bool) {
	for _, r := range Reasons {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

// Thresholds holds the evidence cutoffs. Minimums flag values strictly
// below the cutoff; maximums flag values strictly above it.
type Thresholds struct {
	MinVarDepth       int     `mapstructure:"min_var_depth" yaml:"min_var_depth"`
	MaxNormalVarDepth int     `mapstructure:"max_normal_var_depth" yaml:"max_normal_var_depth"`
	MinBaseQuality    float64 `mapstructure:"min_base_quality" yaml:"min_base_quality"`
	MinMQBWA          float64 `mapstructure:"min_mq_bwa" yaml:"min_mq_bwa"`
	MinMQBowtie       float64 `mapstructure:"min_mq_bowtie" yaml:"min_mq_bowtie"`
	MinMQNovo         float64 `mapstructure:"min_mq_novo" yaml:"min_mq_novo"`
	MaxEditDistance   float64 `mapstructure:"max_edit_distance" yaml:"max_edit_distance"`
	MaxMQ0            int     `mapstructure:"max_mq0" yaml:"max_mq0"`
	MaxPoorReads      int     `mapstructure:"max_poor_reads" yaml:"max_poor_reads"`
	MaxOtherReads     int     `mapstructure:"max_other_reads" yaml:"max_other_reads"`
}

// DefaultThresholds are the cutoffs used by the high-confidence builder.
var DefaultThresholds = Thresholds{
	MinVarDepth:       6,
	MaxNormalVarDepth: 2,
	MinBaseQuality:    34.5,
	MinMQBWA:          36.3,
	MinMQBowtie:       8.4,
	MinMQNovo:         53.8,
	MaxEditDistance:   3.2,
	MaxMQ0:            2,
	MaxPoorReads:      1,
	MaxOtherReads:     1,
}

// MinMappingQuality returns the aligner-specific mapping quality cutoff.
// Untagged samples have none.
func (t Thresholds) MinMappingQuality(a roster.Aligner) (float64, bool) {
	switch a {
	case roster.BWA:
		return t.MinMQBWA, true
	case roster.Bowtie:
		return t.MinMQBowtie, true
	case roster.Novo:
		return t.MinMQNovo, true
	}
	return 0, false
}

// Evaluate returns every reason the evidence triggers. Dimensions are
// independent; a sample can trigger none or several.
func (t Thresholds) Evaluate(ev Evidence) []Reason {
	var reasons []Reason
	if ev.VarDepth < t.MinVarDepth {
		reasons = append(reasons, LowVarDepth)
	}
	if ev.NormalVarDepth > t.MaxNormalVarDepth {
		reasons = append(reasons, Germline)
	}
	if ev.BaseQuality < t.MinBaseQuality {
		reasons = append(reasons, LowBaseQuality)
	}
	if cutoff, ok := t.MinMappingQuality(ev.Aligner); ok && ev.MappingQuality < cutoff {
		reasons = append(reasons, LowMappingQuality)
	}
	if ev.EditDistance > t.MaxEditDistance {
		reasons = append(reasons, HighEditDistance)
	}
	if ev.MQ0 > t.MaxMQ0 {
		reasons = append(reasons, HighMQ0)
	}
	if ev.PoorReads > t.MaxPoorReads {
		reasons = append(reasons, HighPoorReads)
	}
	if ev.OtherReads > t.MaxOtherReads {
		reasons = append(reasons, HighOtherReads)
	}
	return reasons
}
