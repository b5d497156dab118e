// Package positions collects the distinct (chrom, pos, ref, alt) sites of
// several VCFs into a single sites-only VCF.
package positions

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/samber/lo"

	"github.com/ShahiRB/somaticseq/internal/vcf"
)

// Header is written ahead of the collected sites.
var Header = []string{
	"##fileformat=VCFv4.1",
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
}

var altSeparator = regexp.MustCompile(`[,/]`)

// SplitAlt splits an ALT column on commas and slashes. Empty alleles are
// dropped.
func SplitAlt(alt string) []string {
	return lo.Compact(altSeparator.Split(alt, -1))
}

// Set is an insertion-ordered set of sites.
type Set struct {
	seen  map[vcf.Key]struct{}
	order []vcf.Key
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{seen: make(map[vcf.Key]struct{})}
}

// Add inserts k and reports whether it was new.
func (s *Set) Add(k vcf.Key) bool {
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.order = append(s.order, k)
	return true
}

// AddRecord inserts one site per alternate allele of r.
func (s *Set) AddRecord(r *vcf.Record) {
	for _, alt := range SplitAlt(r.Alt) {
		s.Add(vcf.Key{Chrom: r.Chrom, Pos: r.Pos, Ref: r.Ref, Alt: alt})
	}
}

// AddParser drains p into the set and returns the number of records read.
func (s *Set) AddParser(p vcf.RecordParser) (int, error) {
	n := 0
	for {
		r, err := p.Next()
		if err != nil {
			return n, err
		}
		if r == nil {
			return n, nil
		}
		s.AddRecord(r)
		n++
	}
}

// AddFile reads every record of the VCF at path, plain or compressed.
func (s *Set) AddFile(path string) (int, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	n, err := s.AddParser(p)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// Len returns the number of distinct sites.
func (s *Set) Len() int { return len(s.order) }

// Keys returns the sites in first-seen order.
func (s *Set) Keys() []vcf.Key { return s.order }

// WriteTo writes the sites as a sites-only VCF.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, line := range Header {
		n, err := fmt.Fprintln(bw, line)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	for _, k := range s.order {
		n, err := fmt.Fprintf(bw, "%s\t%d\t.\t%s\t%s\t.\tPASS\t.\n", k.Chrom, k.Pos, k.Ref, k.Alt)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
