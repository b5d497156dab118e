package vcf

// RecordParser is the interface for sources of multi-sample VCF records.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Header returns the header lines, ending with the #CHROM line.
	Header() []string

	// Layout returns the column layout declared by the header.
	Layout() *Layout

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
