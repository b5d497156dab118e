// Package main provides the somaticseq command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "somaticseq",
		Short: "Reconcile ensemble somatic calls with their alignment evidence",
		Long: `somaticseq merges a combined multi-sample VCF with its per-variant feature
table: QUAL is recoded from per-aligner MQ0 counts, rejected and no-call
samples are attributed to failing evidence, and no-call sample fields are
rebuilt from the feature table.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.somaticseq.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every reconciled record")

	newLogger := func() (*zap.Logger, error) {
		return buildLogger(verbose)
	}

	cmd.AddCommand(newReconcileCmd(newLogger))
	cmd.AddCommand(newUniquePositionsCmd(newLogger))
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// buildLogger creates a console logger on stderr.
func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}
