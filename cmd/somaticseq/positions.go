package main

import (
	"fmt"

	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShahiRB/somaticseq/internal/positions"
)

func newUniquePositionsCmd(newLogger func() (*zap.Logger, error)) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "unique-positions <vcf>...",
		Short: "Collect the distinct sites of several VCFs",
		Long: `Union the (CHROM, POS, REF, ALT) sites of the input VCFs into one sites-only
VCF. Multi-allelic ALT columns are split on ',' and '/'. Sites are written in
the order they are first seen.`,
		Example: `  somaticseq unique-positions -o sites.vcf mutect.vcf.gz varscan.vcf vardict.vcf`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			return runUniquePositions(args, outFile, logger)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "-", "Output VCF; compressed by extension")

	return cmd
}

func runUniquePositions(inputs []string, outFile string, logger *zap.Logger) (err error) {
	set := positions.NewSet()
	for _, path := range inputs {
		n, err := set.AddFile(path)
		if err != nil {
			return err
		}
		logger.Info("read call set", zap.String("path", path), zap.Int("records", n))
	}

	out, err := xopen.Wopen(outFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	if _, err := set.WriteTo(out); err != nil {
		return fmt.Errorf("writing sites: %w", err)
	}
	logger.Info("wrote unique sites", zap.Int("sites", set.Len()))
	return nil
}
