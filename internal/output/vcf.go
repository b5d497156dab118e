// Package output writes reconciled VCF records.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// VCFWriter writes the original header, with extra meta lines inserted
// before #CHROM, followed by records.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // original VCF header lines (## and #CHROM)
	extraLines  []string // meta lines to insert before #CHROM
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer, headerLines []string, extra ...string) *VCFWriter {
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
		extraLines:  extra,
	}
}

// WriteHeader writes the original VCF header lines with the extra meta
// lines inserted before #CHROM.
func (vw *VCFWriter) WriteHeader() error {
	inserted := false
	for _, line := range vw.headerLines {
		if !inserted && !strings.HasPrefix(line, "##") {
			if err := vw.writeExtra(); err != nil {
				return err
			}
			inserted = true
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if !inserted {
		return vw.writeExtra()
	}
	return nil
}

func (vw *VCFWriter) writeExtra() error {
	for _, line := range vw.extraLines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes one record.
func (vw *VCFWriter) Write(r *vcf.Record) error {
	if _, err := vw.w.WriteString(r.String()); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// Flush flushes buffered output.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}
