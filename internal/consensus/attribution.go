package consensus

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/roster"
)

// Evidence is the alignment evidence vector of one sample at one site.
type Evidence struct {
	Sample         string
	Aligner        roster.Aligner
	VarDepth       int     // ALT_FOR + ALT_REV
	NormalVarDepth int     // matched normal's ALT_FOR + ALT_REV
	BaseQuality    float64 // ALT_BQ
	MappingQuality float64 // ALT_MQ
	EditDistance   float64 // ALT_NM
	MQ0            int
	PoorReads      int
	OtherReads     int

	Reasons []Reason // set by Attributor
}

// ReasonCounts tallies how many samples triggered each reason.
type ReasonCounts [numReasons]int

// Get returns the tally for r.
func (c *ReasonCounts) Get(r Reason) int { return c[r] }

// Total is the sum over all reasons. A sample with several reasons is
// counted once per reason.
func (c *ReasonCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Attribution is the evidence collected for one sample list of a record.
type Attribution struct {
	Evidence []Evidence
	Counts   ReasonCounts
	Skipped  []string // samples dropped under the lenient missing-column policy
}

// Attributor collects evidence vectors and classifies them against the
// thresholds.
type Attributor struct {
	thresholds Thresholds
	policy     Policy
	logger     *zap.Logger
}

// NewAttributor creates an attributor.
func NewAttributor(t Thresholds, p Policy) *Attributor {
	return &Attributor{
		thresholds: t,
		policy:     p,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and debug messages.
func (a *Attributor) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Attribute gathers evidence for every listed sample and tallies the reasons
// each one triggers.
func (a *Attributor) Attribute(samples []string, row *features.Row) (*Attribution, error) {
	att := &Attribution{}
	for _, s := range samples {
		ev, err := GatherEvidence(s, row)
		if err != nil {
			if a.skippable(err) {
				a.logger.Warn("skipping sample with missing evidence",
					zap.String("sample", s),
					zap.Stringer("variant", row.Key),
					zap.Error(err))
				att.Skipped = append(att.Skipped, s)
				continue
			}
			return nil, err
		}

		ev.Reasons = a.thresholds.Evaluate(ev)
		for _, r := range ev.Reasons {
			att.Counts[r]++
		}
		att.Evidence = append(att.Evidence, ev)
	}
	return att, nil
}

// skippable reports whether err drops a single sample rather than the run.
func (a *Attributor) skippable(err error) bool {
	var mc *features.MissingColumnError
	return a.policy == Lenient && errors.As(err, &mc)
}

// GatherEvidence reads a sample's evidence vector from a feature row. The
// sample's matched normal must have evidence columns.
func GatherEvidence(sample string, row *features.Row) (Evidence, error) {
	ev := Evidence{
		Sample:  sample,
		Aligner: roster.AlignerOf(sample),
	}

	normal, err := roster.MatchedNormalOf(sample, row.Header())
	if err != nil {
		return ev, err
	}

	if ev.VarDepth, err = sumInts(row, sample, features.AltFor, features.AltRev); err != nil {
		return ev, err
	}
	if ev.NormalVarDepth, err = sumInts(row, normal, features.AltFor, features.AltRev); err != nil {
		return ev, err
	}

	for _, f := range []struct {
		metric string
		dst    *float64
	}{
		{features.AltBQ, &ev.BaseQuality},
		{features.AltMQ, &ev.MappingQuality},
		{features.AltNM, &ev.EditDistance},
	} {
		if *f.dst, err = row.Float(sample, f.metric); err != nil {
			return ev, err
		}
	}

	for _, f := range []struct {
		metric string
		dst    *int
	}{
		{features.MQ0, &ev.MQ0},
		{features.PoorReads, &ev.PoorReads},
		{features.OtherReads, &ev.OtherReads},
	} {
		if *f.dst, err = row.Int(sample, f.metric); err != nil {
			return ev, err
		}
	}

	return ev, nil
}

func sumInts(row *features.Row, sample string, metrics ...string) (int, error) {
	total := 0
	for _, m := range metrics {
		n, err := row.Int(sample, m)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
