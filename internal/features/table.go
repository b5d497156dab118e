// Package features reads the per-variant alignment feature table that
// accompanies a combined multi-sample VCF.
package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// Positional header columns.
const (
	ColChrom = "CHROM"
	ColPos   = "POS"
	ColRef   = "REF"
	ColAlt   = "ALT"
)

// ColumnInfix joins a sample name and a metric name in a header column.
const ColumnInfix = "_bam_"

// Metric names as they appear after ColumnInfix.
const (
	AltFor         = "ALT_FOR"
	AltRev         = "ALT_REV"
	RefFor         = "REF_FOR"
	RefRev         = "REF_REV"
	Depth          = "DP"
	AltBQ          = "ALT_BQ"
	AltMQ          = "ALT_MQ"
	AltNM          = "ALT_NM"
	RefBQ          = "REF_BQ"
	RefMQ          = "REF_MQ"
	RefNM          = "REF_NM"
	MQ0            = "MQ0"
	PoorReads      = "Poor_Reads"
	OtherReads     = "Other_Reads"
	RefConcordant  = "REF_Concordant"
	RefDiscordant  = "REF_Discordant"
	AltConcordant  = "ALT_Concordant"
	AltDiscordant  = "ALT_Discordant"
	ConcordanceFET = "Concordance_FET"
	StrandBiasFET  = "StrandBias_FET"
	ZRanksumsBQ    = "Z_Ranksums_BQ"
	ZRanksumsMQ    = "Z_Ranksums_MQ"
)

// ColumnName returns the header column for a sample's metric.
func ColumnName(sample, metric string) string {
	return sample + ColumnInfix + metric
}

// Header maps column names to indices. It is built once from the header
// line and shared by every row.
type Header struct {
	names []string
	index map[string]int
	chrom int
	pos   int
	ref   int
	alt   int
}

// ParseHeader builds a Header from the tab-delimited header line.
func ParseHeader(line string) (*Header, error) {
	names := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	h := &Header{
		names: names,
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
	}

	for _, c := range []struct {
		name string
		dst  *int
	}{
		{ColChrom, &h.chrom},
		{ColPos, &h.pos},
		{ColRef, &h.ref},
		{ColAlt, &h.alt},
	} {
		i, ok := h.index[c.name]
		if !ok {
			return nil, &MissingColumnError{Column: c.name}
		}
		*c.dst = i
	}

	return h, nil
}

// Columns returns the header column names in order.
func (h *Header) Columns() []string { return h.names }

// Lookup returns the index of a column by its full name.
func (h *Header) Lookup(column string) (int, bool) {
	i, ok := h.index[column]
	return i, ok
}

// Index returns the column index of a sample's metric.
func (h *Header) Index(sample, metric string) (int, bool) {
	return h.Lookup(ColumnName(sample, metric))
}

// HasSample reports whether any column exists for the sample. The alternate
// forward read count is used as the sentinel metric.
func (h *Header) HasSample(sample string) bool {
	_, ok := h.Index(sample, AltFor)
	return ok
}

// Parse parses one data line.
func (h *Header) Parse(line string) (*Row, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < len(h.names) {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected %d columns, found %d", len(h.names), len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[h.pos], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid position: %s", fields[h.pos]),
		}
	}

	return &Row{
		Key: vcf.Key{
			Chrom: fields[h.chrom],
			Pos:   pos,
			Ref:   fields[h.ref],
			Alt:   fields[h.alt],
		},
		header: h,
		fields: fields,
	}, nil
}

// Row is one feature table line.
type Row struct {
	vcf.Key

	header *Header
	fields []string
}

// Header returns the header the row was parsed against.
func (r *Row) Header() *Header { return r.header }

// Get returns the raw value of a sample's metric.
func (r *Row) Get(sample, metric string) (string, error) {
	i, ok := r.header.Index(sample, metric)
	if !ok {
		return "", &MissingColumnError{Sample: sample, Metric: metric, Column: ColumnName(sample, metric)}
	}
	return r.fields[i], nil
}

// Int returns a sample's metric as an integer.
func (r *Row) Int(sample, metric string) (int, error) {
	raw, err := r.Get(sample, metric)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &NumericError{Column: ColumnName(sample, metric), Value: raw, Err: err}
	}
	return n, nil
}

// Float returns a sample's metric as a float. "nan" parses to NaN.
func (r *Row) Float(sample, metric string) (float64, error) {
	raw, err := r.Get(sample, metric)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &NumericError{Column: ColumnName(sample, metric), Value: raw, Err: err}
	}
	return f, nil
}

// MissingColumnError reports a column absent from the feature table header.
type MissingColumnError struct {
	Sample string
	Metric string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("feature table has no column %q", e.Column)
}

// NumericError reports a value that should be numeric but is not.
type NumericError struct {
	Column string
	Value  string
	Err    error
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("feature table column %s: %q is not numeric: %v", e.Column, e.Value, e.Err)
}

func (e *NumericError) Unwrap() error { return e.Err }

// ParseError represents an error during feature table parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("feature table parse error: %s", e.Message)
	}
	return fmt.Sprintf("feature table parse error at line %d: %s", e.Line, e.Message)
}
