package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
	"github.com/samber/lo"

	"github.com/ShahiRB/somaticseq/internal/consensus"
	"github.com/ShahiRB/somaticseq/internal/roster"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// Evidence categories.
const (
	CategoryReject = "reject"
	CategoryNoCall = "nocall"
	CategoryCalled = "called"
)

// SampleEvidence is one stored evidence row.
type SampleEvidence struct {
	Key      vcf.Key
	Category string
	consensus.Evidence
}

// categorized pairs each non-nil attribution of a result with its category.
func categorized(res *consensus.Result) map[string]*consensus.Attribution {
	m := make(map[string]*consensus.Attribution, 3)
	for cat, a := range map[string]*consensus.Attribution{
		CategoryReject: res.Rejected,
		CategoryNoCall: res.NoCall,
		CategoryCalled: res.Called,
	} {
		if a != nil {
			m[cat] = a
		}
	}
	return m
}

// WriteResults batch-inserts reconciliation results using the Appender API.
func (s *Store) WriteResults(results []*consensus.Result) error {
	if len(results) == 0 {
		return nil
	}

	var summaries, evidence, counts [][]driver.Value
	for _, res := range results {
		k := res.Key
		skipped := 0
		for _, a := range categorized(res) {
			skipped += len(a.Skipped)
		}
		summaries = append(summaries, []driver.Value{
			k.Chrom, k.Pos, k.Ref, k.Alt, res.Tier.String(), int32(res.Quality),
			int32(res.MQ0[0]), int32(res.MQ0[1]), int32(res.MQ0[2]),
			int32(len(res.Reconstructed)), int32(skipped), res.Verdict,
		})

		for cat, a := range categorized(res) {
			for _, ev := range a.Evidence {
				reasons := lo.Map(ev.Reasons, func(r consensus.Reason, _ int) string { return r.String() })
				evidence = append(evidence, []driver.Value{
					k.Chrom, k.Pos, k.Ref, k.Alt, cat, ev.Sample, ev.Aligner.String(),
					int32(ev.VarDepth), int32(ev.NormalVarDepth),
					ev.BaseQuality, ev.MappingQuality, ev.EditDistance,
					int32(ev.MQ0), int32(ev.PoorReads), int32(ev.OtherReads),
					strings.Join(reasons, ","),
				})
			}
			for _, r := range consensus.Reasons {
				if n := a.Counts.Get(r); n > 0 {
					counts = append(counts, []driver.Value{
						k.Chrom, k.Pos, k.Ref, k.Alt, cat, r.String(), int32(n),
					})
				}
			}
		}
	}

	for _, t := range []struct {
		table string
		rows  [][]driver.Value
	}{
		{"variant_summary", summaries},
		{"sample_evidence", evidence},
		{"reason_counts", counts},
	} {
		if err := s.appendRows(t.table, t.rows); err != nil {
			return err
		}
	}
	return nil
}

// appendRows appends rows to table through a single appender.
func (s *Store) appendRows(table string, rows [][]driver.Value) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	for _, row := range rows {
		if err := appender.AppendRow(row...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}

// EvidenceFor returns the stored evidence rows of one variant.
func (s *Store) EvidenceFor(k vcf.Key) ([]SampleEvidence, error) {
	rows, err := s.db.Query(`SELECT
		category, sample, aligner, var_depth, normal_var_depth,
		base_quality, mapping_quality, edit_distance,
		mq0, poor_reads, other_reads, reasons
		FROM sample_evidence
		WHERE chrom=? AND pos=? AND ref=? AND alt=?
		ORDER BY category, sample`,
		k.Chrom, k.Pos, k.Ref, k.Alt)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []SampleEvidence
	for rows.Next() {
		var (
			se      = SampleEvidence{Key: k}
			aligner string
			reasons string
		)
		if err := rows.Scan(
			&se.Category, &se.Sample, &aligner, &se.VarDepth, &se.NormalVarDepth,
			&se.BaseQuality, &se.MappingQuality, &se.EditDistance,
			&se.MQ0, &se.PoorReads, &se.OtherReads, &reasons,
		); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		se.Aligner = roster.ParseAligner(aligner)
		for _, name := range lo.Compact(strings.Split(reasons, ",")) {
			if r, ok := consensus.ParseReason(name); ok {
				se.Reasons = append(se.Reasons, r)
			}
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}

// ReasonTotals sums reason tallies over all variants, keyed by category and
// then reason name.
func (s *Store) ReasonTotals() (map[string]map[string]int, error) {
	rows, err := s.db.Query(`SELECT category, reason, CAST(SUM(count) AS BIGINT)
		FROM reason_counts
		GROUP BY category, reason`)
	if err != nil {
		return nil, fmt.Errorf("query reason totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]map[string]int)
	for rows.Next() {
		var cat, reason string
		var n int64
		if err := rows.Scan(&cat, &reason, &n); err != nil {
			return nil, fmt.Errorf("scan reason total: %w", err)
		}
		if totals[cat] == nil {
			totals[cat] = make(map[string]int)
		}
		totals[cat][reason] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reason totals: %w", err)
	}
	return totals, nil
}

// Recorder buffers results and writes them in batches. It satisfies
// consensus.Observer.
type Recorder struct {
	store   *Store
	batch   int
	pending []*consensus.Result
}

// NewRecorder creates a recorder that flushes every batch results.
func NewRecorder(s *Store, batch int) *Recorder {
	if batch <= 0 {
		batch = 1000
	}
	return &Recorder{store: s, batch: batch}
}

// Observe buffers a result, writing the batch when it is full.
func (r *Recorder) Observe(res *consensus.Result) error {
	r.pending = append(r.pending, res)
	if len(r.pending) >= r.batch {
		return r.Flush()
	}
	return nil
}

// Flush writes any buffered results.
func (r *Recorder) Flush() error {
	if err := r.store.WriteResults(r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
