package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShahiRB/somaticseq/internal/vcf"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <vcf>",
		Short: "Check that every record of a VCF is structurally well formed",
		Long: `Check each data line against the #CHROM layout: the column count must match
the header and every sample field must carry between one and len(FORMAT)
colon-separated values. Stops at the first violation.`,
		Example: `  somaticseq validate reconciled.vcf
  somaticseq reconcile -i in.vcf -t in.tsv | somaticseq validate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := validateFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records OK\n", n)
			return nil
		},
	}
}

// validateFile returns the number of valid records, or the first error.
func validateFile(path string) (int, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	n := 0
	for {
		r, err := p.Next()
		if err != nil {
			return n, err
		}
		if r == nil {
			return n, nil
		}
		if err := vcf.ValidateRecord(r); err != nil {
			return n, fmt.Errorf("line %d: %w", p.LineNumber(), err)
		}
		n++
	}
}
