package consensus

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// INFO keys written by the caller ensemble.
const (
	InfoNumRejects      = "nREJECTS"
	InfoNumNoCall       = "nNoCall"
	InfoRejectedSamples = "rejectedSamples"
	InfoNoCallSamples   = "noCallSamples"
	InfoCalledSamples   = "calledSamples"
)

// RowSource yields feature table rows in file order.
type RowSource interface {
	// Next returns nil, nil at end of input.
	Next() (*features.Row, error)
}

// RecordWriter writes the reconciled VCF.
type RecordWriter interface {
	WriteHeader() error
	Write(r *vcf.Record) error
	Flush() error
}

// Observer receives each reconciled record's result, e.g. for reporting.
type Observer interface {
	Observe(res *Result) error
}

// Result describes what the merger did to one record.
type Result struct {
	Key     vcf.Key
	Tier    Tier
	Quality int
	MQ0     [3]int // bwa, bowtie, novo

	Rejected *Attribution // nil when nREJECTS is 0
	NoCall   *Attribution // nil when nNoCall is 0
	Called   *Attribution // baseline, collected when either of the above is set

	Reconstructed []string // no-call samples whose fields were rebuilt
	Verdict       string
}

// Stats summarizes a run.
type Stats struct {
	Records       int
	Rejects       int
	NoCalls       int
	Reconstructed int
	Skipped       int
}

// StructuralMismatchError reports that the two input streams no longer
// describe the same variant. One side is nil when that stream ended early.
type StructuralMismatchError struct {
	Line     int
	Variant  *vcf.Key
	Features *vcf.Key
}

func (e *StructuralMismatchError) Error() string {
	side := func(k *vcf.Key) string {
		if k == nil {
			return "end of input"
		}
		return k.String()
	}
	return fmt.Sprintf("streams out of sync at vcf line %d: vcf %s, feature table %s",
		e.Line, side(e.Variant), side(e.Features))
}

// Merger co-iterates a combined VCF and its feature table, rewriting QUAL
// and no-call sample fields.
type Merger struct {
	cfg        *Config
	attributor *Attributor
	verdict    VerdictFunc
	observers  []Observer
	logger     *zap.Logger
}

// NewMerger creates a merger for the given configuration.
func NewMerger(cfg *Config) *Merger {
	return &Merger{
		cfg:        cfg,
		attributor: NewAttributor(cfg.Thresholds, cfg.Policy),
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for warning, info and debug messages.
func (m *Merger) SetLogger(l *zap.Logger) {
	m.logger = l
	m.attributor.SetLogger(l)
}

// SetVerdict installs a verdict policy. Without one VERDICT is left unset.
func (m *Merger) SetVerdict(fn VerdictFunc) {
	m.verdict = fn
}

// AddObserver registers an observer called once per record.
func (m *Merger) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// Run merges the two streams into w. The header must already have been
// read from variants. Any desynchronization is fatal.
func (m *Merger) Run(variants vcf.RecordParser, rows RowSource, w RecordWriter) (Stats, error) {
	var stats Stats

	if err := w.WriteHeader(); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for {
		rec, err := variants.Next()
		if err != nil {
			return stats, fmt.Errorf("read variant: %w", err)
		}
		row, err := rows.Next()
		if err != nil {
			return stats, fmt.Errorf("read features: %w", err)
		}
		if rec == nil && row == nil {
			break
		}
		if err := checkSync(variants.LineNumber(), rec, row); err != nil {
			return stats, err
		}

		res, err := m.Reconcile(rec, row)
		if err != nil {
			return stats, fmt.Errorf("%s: %w", rec.Key, err)
		}
		stats.add(res)

		for _, o := range m.observers {
			if err := o.Observe(res); err != nil {
				return stats, fmt.Errorf("observe %s: %w", rec.Key, err)
			}
		}

		if err := w.Write(rec); err != nil {
			return stats, fmt.Errorf("write variant: %w", err)
		}
	}

	if stats.Records == 0 {
		m.logger.Info("0 variants processed")
	}
	m.logger.Info("reconciled call set",
		zap.Int("records", stats.Records),
		zap.Int("rejects", stats.Rejects),
		zap.Int("no_calls", stats.NoCalls),
		zap.Int("reconstructed", stats.Reconstructed),
		zap.Int("skipped", stats.Skipped))

	return stats, w.Flush()
}

func checkSync(line int, rec *vcf.Record, row *features.Row) error {
	if rec != nil && row != nil && rec.Key == row.Key {
		return nil
	}
	e := &StructuralMismatchError{Line: line}
	if rec != nil {
		e.Variant = &rec.Key
	}
	if row != nil {
		e.Features = &row.Key
	}
	return e
}

func (s *Stats) add(res *Result) {
	s.Records++
	for _, a := range []*Attribution{res.Rejected, res.NoCall} {
		if a != nil {
			s.Skipped += len(a.Skipped)
		}
	}
	if res.Rejected != nil {
		s.Rejects += len(res.Rejected.Evidence)
	}
	if res.NoCall != nil {
		s.NoCalls += len(res.NoCall.Evidence)
	}
	s.Reconstructed += len(res.Reconstructed)
}

// Reconcile applies quality recoding, attribution and genotype
// reconstruction to one synchronized pair. rec is modified in place.
func (m *Merger) Reconcile(rec *vcf.Record, row *features.Row) (*Result, error) {
	res := &Result{
		Key:  rec.Key,
		Tier: ClassifyTier(rec.Filter()),
	}

	mq0, err := alignerMQ0(rec)
	if err != nil {
		return nil, err
	}
	res.MQ0 = mq0
	res.Quality = RecodeQuality(mq0[0], mq0[1], mq0[2], m.cfg.Roster.TumorCount())
	rec.SetQual(res.Quality)

	nRejects, err := infoCount(rec, InfoNumRejects)
	if err != nil {
		return nil, err
	}
	nNoCall, err := infoCount(rec, InfoNumNoCall)
	if err != nil {
		return nil, err
	}

	if nRejects > 0 {
		res.Rejected, err = m.attributor.Attribute(rec.InfoList(InfoRejectedSamples), row)
		if err != nil {
			return nil, fmt.Errorf("rejected samples: %w", err)
		}
	}

	if nNoCall > 0 {
		res.NoCall, err = m.attributor.Attribute(rec.InfoList(InfoNoCallSamples), row)
		if err != nil {
			return nil, fmt.Errorf("no-call samples: %w", err)
		}
		if err := m.reconstruct(rec, row, res); err != nil {
			return nil, err
		}
	}

	if nRejects > 0 || nNoCall > 0 {
		res.Called, err = m.attributor.Attribute(rec.InfoList(InfoCalledSamples), row)
		if err != nil {
			return nil, fmt.Errorf("called samples: %w", err)
		}
	}

	if m.verdict != nil {
		if text, ok := m.verdict(res.Tier, res); ok {
			res.Verdict = text
			rec.SetInfo(VerdictInfoKey, text)
		}
	}

	if ce := m.logger.Check(zap.DebugLevel, "reconciled variant"); ce != nil {
		ce.Write(
			zap.String("chrom", rec.Chrom),
			zap.Int64("pos", rec.Pos),
			zap.Int("qual", res.Quality),
			zap.Int("nREJECTS", nRejects),
			zap.Int("nNoCall", nNoCall),
			zap.Stringer("tier", res.Tier))
	}

	return res, nil
}

// reconstruct rebuilds the field string of every attributed no-call sample.
func (m *Merger) reconstruct(rec *vcf.Record, row *features.Row, res *Result) error {
	for _, ev := range res.NoCall.Evidence {
		field, err := Reconstruct(rec.Format(), ev.Sample, row)
		if err != nil {
			var mc *features.MissingColumnError
			if m.cfg.Policy == Lenient && errors.As(err, &mc) {
				m.logger.Warn("leaving no-call placeholder",
					zap.String("sample", ev.Sample),
					zap.Stringer("variant", rec.Key),
					zap.Error(err))
				res.NoCall.Skipped = append(res.NoCall.Skipped, ev.Sample)
				continue
			}
			return fmt.Errorf("reconstruct %s: %w", ev.Sample, err)
		}
		if err := rec.SetSample(ev.Sample, field); err != nil {
			return err
		}
		res.Reconstructed = append(res.Reconstructed, ev.Sample)
	}
	return nil
}

// infoCount reads an optional integer count; a missing key counts as zero.
func infoCount(rec *vcf.Record, key string) (int, error) {
	n, _, err := rec.InfoInt(key)
	return n, err
}
