// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/xopen"
)

// Parser reads multi-sample records from a VCF file.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	header     []string
	layout     *Layout
}

// NewParser creates a new VCF parser for the given file.
// Compressed input is detected by xopen; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	rd, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{reader: rd.Reader, closer: rd}
	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// readLine returns the next line without its terminator. io.EOF is only
// returned once no bytes remain.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			fields := strings.Split(line, "\t")
			var samples []string
			if len(fields) > PrefixColumns {
				samples = fields[PrefixColumns:]
			}
			p.layout = NewLayout(samples)
			return nil
		}

		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next record from the VCF file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.readLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if line == "" {
			continue
		}

		r, err := p.layout.Parse(line)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = p.lineNumber
			}
			return nil, err
		}
		return r, nil
	}
}

// Header returns the VCF header lines, ending with the #CHROM line.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
func (p *Parser) SampleNames() []string {
	return p.layout.Samples()
}

// Layout returns the column layout declared by the header.
func (p *Parser) Layout() *Layout {
	return p.layout
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("vcf parse error: %s", e.Message)
	}
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// NumericError reports an INFO value that should be numeric but is not.
type NumericError struct {
	Field string
	Value string
	Err   error
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("vcf: INFO %s=%q is not numeric: %v", e.Field, e.Value, e.Err)
}

func (e *NumericError) Unwrap() error { return e.Err }

// UnknownSampleError reports a sample name absent from the #CHROM header.
type UnknownSampleError struct {
	Sample string
}

func (e *UnknownSampleError) Error() string {
	return fmt.Sprintf("vcf: sample %q not in header", e.Sample)
}
