package main

import (
	"fmt"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ShahiRB/somaticseq/internal/consensus"
	"github.com/ShahiRB/somaticseq/internal/duckdb"
	"github.com/ShahiRB/somaticseq/internal/features"
	"github.com/ShahiRB/somaticseq/internal/output"
	"github.com/ShahiRB/somaticseq/internal/roster"
	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// reconcileFlags maps viper keys to the reconcile flags that override them.
var reconcileFlags = map[string]string{
	"reconcile.pass_score":      "pass-score",
	"reconcile.reject_score":    "reject-score",
	"reconcile.num_callers":     "num-callers",
	"reconcile.missing_columns": "missing-columns",
}

type reconcileArgs struct {
	vcfIn  string
	tsvIn  string
	output string
	report string
}

func newReconcileCmd(newLogger func() (*zap.Logger, error)) *cobra.Command {
	var a reconcileArgs
	defaults := consensus.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge a combined VCF with its feature table",
		Long: `Co-iterate a combined multi-sample VCF and its feature table, which must list
the same variants in the same order. QUAL is recoded from the bwaMQ0,
bowtieMQ0 and novoMQ0 INFO counts; rejected and no-call samples are checked
against the evidence thresholds; no-call sample fields are rebuilt from the
feature table. Inputs may be plain or compressed; '-' reads stdin.`,
		Example: `  somaticseq reconcile -i combined.vcf.gz -t features.tsv.gz -o reconciled.vcf
  somaticseq reconcile -i combined.vcf -t features.tsv --missing-columns lenient
  somaticseq reconcile -i combined.vcf -t features.tsv -o out.vcf --report evidence.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			for key, name := range reconcileFlags {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return fmt.Errorf("binding --%s: %w", name, err)
				}
			}
			opts, err := loadOptions(v)
			if err != nil {
				return err
			}

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			return runReconcile(a, opts, logger)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.vcfIn, "vcf-in", "i", "", "Combined multi-sample VCF (required)")
	f.StringVarP(&a.tsvIn, "tsv-in", "t", "", "Per-variant feature table (required)")
	f.StringVarP(&a.output, "output", "o", "-", "Output VCF; compressed by extension")
	f.StringVar(&a.report, "report", "", "Write an evidence report to this DuckDB file")
	f.Float64("pass-score", defaults.PassScore, "Ensemble pass score (phred scaled)")
	f.Float64("reject-score", defaults.RejectScore, "Ensemble reject score (phred scaled)")
	f.Int("num-callers", defaults.NumCallers, "Minimum number of callers")
	f.String("missing-columns", defaults.Policy.String(), "Missing evidence columns: strict or lenient")
	_ = cmd.MarkFlagRequired("vcf-in")
	_ = cmd.MarkFlagRequired("tsv-in")

	return cmd
}

func runReconcile(a reconcileArgs, opts consensus.Options, logger *zap.Logger) (err error) {
	variants, err := vcf.NewParser(a.vcfIn)
	if err != nil {
		return err
	}
	defer variants.Close()

	rows, err := features.Open(a.tsvIn)
	if err != nil {
		return err
	}
	defer rows.Close()

	out, err := xopen.Wopen(a.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	cfg := consensus.NewConfig(variants.SampleNames(), opts)
	logRoster(logger, cfg.Roster)
	logger.Info("ensemble scores",
		zap.Float64("pass_score", opts.PassScore),
		zap.Float64("reject_score", opts.RejectScore),
		zap.Int("num_callers", opts.NumCallers),
		zap.Stringer("missing_columns", opts.Policy))

	m := consensus.NewMerger(cfg)
	m.SetLogger(logger)

	var recorder *duckdb.Recorder
	if a.report != "" {
		store, err := openReport(a)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = duckdb.NewRecorder(store, 0)
		m.AddObserver(recorder)
	}

	w := output.NewVCFWriter(out, variants.Header(), consensus.VerdictHeaderLine)
	if _, err := m.Run(variants, rows, w); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Flush(); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("wrote evidence report", zap.String("path", a.report))
	}
	return nil
}

// openReport opens the DuckDB report and records the input files it
// describes. Stdin inputs have no fingerprint.
func openReport(a reconcileArgs) (*duckdb.Store, error) {
	store, err := duckdb.Open(a.report)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}

	for role, path := range map[string]string{"vcf": a.vcfIn, "features": a.tsvIn} {
		if path == "-" {
			continue
		}
		fp, err := duckdb.StatFile(role, path)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := store.RecordInputs(fp); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func logRoster(logger *zap.Logger, r *roster.Roster) {
	for _, al := range roster.Aligners {
		_, pooled := r.PooledNormalIndex(al)
		logger.Debug("aligner samples",
			zap.Stringer("aligner", al),
			zap.Strings("tumors", r.Tumors(al)),
			zap.Bool("pooled_normal", pooled))
		if !pooled && len(r.Tumors(al)) > 0 {
			logger.Info("no pooled normal in header", zap.String("sample", al.PooledNormal()))
		}
	}
	logger.Info("classified samples",
		zap.Int("samples", len(r.Samples())),
		zap.Int("tumors", r.TumorCount()),
		zap.Strings("matched_normals", r.WithRole(roster.MatchedNormal)),
		zap.Strings("pooled_normals", r.WithRole(roster.PooledNormal)))
}
