package features

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/xopen"
)

// Reader reads feature table rows after its single header line.
type Reader struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	header     *Header
}

// Open opens a feature table. Compressed input is detected by xopen.
func Open(path string) (*Reader, error) {
	rd, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}

	r := &Reader{reader: rd.Reader, closer: rd}
	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReader creates a feature table reader from an io.Reader.
func NewReader(rd io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Reader) parseHeader() error {
	line, err := r.readLine()
	if err == io.EOF {
		return &ParseError{Line: r.lineNumber, Message: "no header line found"}
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	h, err := ParseHeader(line)
	if err != nil {
		return fmt.Errorf("feature table header: %w", err)
	}
	r.header = h
	return nil
}

// Next reads the next row. Returns nil, nil at end of input.
func (r *Reader) Next() (*Row, error) {
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read feature line: %w", err)
		}
		if line == "" {
			continue
		}

		row, err := r.header.Parse(line)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = r.lineNumber
			}
			return nil, err
		}
		return row, nil
	}
}

// Header returns the parsed header.
func (r *Reader) Header() *Header { return r.header }

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int { return r.lineNumber }

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
