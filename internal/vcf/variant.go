package vcf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Fixed column positions of the VCF prefix.
const (
	ColChrom = iota
	ColPos
	ColID
	ColRef
	ColAlt
	ColQual
	ColFilter
	ColInfo
	ColFormat

	// PrefixColumns is the number of columns before the first sample column.
	PrefixColumns
)

// Key identifies a variant. Two streams describing the same site must agree
// on every field.
type Key struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d %s>%s", k.Chrom, k.Pos, k.Ref, k.Alt)
}

// Record is a single multi-sample VCF data line. Only QUAL, INFO and sample
// columns can be changed; everything else is reproduced verbatim.
type Record struct {
	Key

	fields []string
	layout *Layout
	info   *Info
	format []string
}

// Info holds INFO key/value pairs in their original order.
type Info struct {
	keys   []string
	values map[string]string
	flags  map[string]bool
}

// parseInfo parses the INFO field. Flag keys map to the empty string.
func parseInfo(raw string) *Info {
	info := &Info{
		values: make(map[string]string),
		flags:  make(map[string]bool),
	}
	if raw == "." || raw == "" {
		return info
	}

	for _, kv := range strings.Split(raw, ";") {
		k, v, hasValue := strings.Cut(kv, "=")
		info.Set(k, v)
		info.flags[k] = !hasValue
	}
	return info
}

// Set assigns a value, appending the key if it is new.
func (i *Info) Set(key, value string) {
	if _, seen := i.values[key]; !seen {
		i.keys = append(i.keys, key)
	}
	i.values[key] = value
	delete(i.flags, key)
}

// String renders the INFO column.
func (i *Info) String() string {
	if len(i.keys) == 0 {
		return "."
	}
	parts := make([]string, len(i.keys))
	for n, k := range i.keys {
		if i.flags[k] {
			parts[n] = k
		} else {
			parts[n] = k + "=" + i.values[k]
		}
	}
	return strings.Join(parts, ";")
}

// Get returns the raw value for key and whether it was present.
func (i *Info) Get(key string) (string, bool) {
	v, ok := i.values[key]
	return v, ok
}

// Keys returns the INFO keys in file order.
func (i *Info) Keys() []string {
	return i.keys
}

// Info looks up an INFO value. Missing keys report false.
func (r *Record) Info(key string) (string, bool) {
	return r.info.Get(key)
}

// InfoInt looks up an integer INFO value. A missing key reports false with
// a nil error; an unparseable value is a *NumericError.
func (r *Record) InfoInt(key string) (int, bool, error) {
	raw, ok := r.info.Get(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, &NumericError{Field: key, Value: raw, Err: err}
	}
	return n, true, nil
}

// SetInfo assigns an INFO value and rewrites the INFO column.
func (r *Record) SetInfo(key, value string) {
	r.info.Set(key, value)
	r.fields[ColInfo] = r.info.String()
}

// InfoList splits a comma-separated INFO value, dropping empty entries.
// Missing keys and "." yield nil.
func (r *Record) InfoList(key string) []string {
	raw, ok := r.info.Get(key)
	if !ok || raw == "." {
		return nil
	}
	return lo.Compact(strings.Split(raw, ","))
}

// ID returns the ID column.
func (r *Record) ID() string { return r.fields[ColID] }

// Qual returns the raw QUAL column.
func (r *Record) Qual() string { return r.fields[ColQual] }

// SetQual replaces the QUAL column.
func (r *Record) SetQual(q int) {
	r.fields[ColQual] = strconv.Itoa(q)
}

// Filter returns the FILTER column.
func (r *Record) Filter() string { return r.fields[ColFilter] }

// Format returns the declared per-sample schema tokens.
func (r *Record) Format() []string { return r.format }

// Sample returns the field string for the named sample.
func (r *Record) Sample(name string) (string, error) {
	col, ok := r.layout.Column(name)
	if !ok {
		return "", &UnknownSampleError{Sample: name}
	}
	return r.fields[col], nil
}

// SetSample replaces the field string for the named sample.
func (r *Record) SetSample(name, value string) error {
	col, ok := r.layout.Column(name)
	if !ok {
		return &UnknownSampleError{Sample: name}
	}
	r.fields[col] = value
	return nil
}

// Fields returns the record's columns. The slice is shared with the record.
func (r *Record) Fields() []string { return r.fields }

// String renders the record as a tab-delimited line without a newline.
func (r *Record) String() string {
	return strings.Join(r.fields, "\t")
}

// Layout describes the column layout declared by a #CHROM header line.
type Layout struct {
	samples []string
	columns map[string]int
}

// NewLayout builds a layout for the given ordered sample names.
func NewLayout(samples []string) *Layout {
	l := &Layout{
		samples: samples,
		columns: make(map[string]int, len(samples)),
	}
	for i, s := range samples {
		if _, dup := l.columns[s]; !dup {
			l.columns[s] = PrefixColumns + i
		}
	}
	return l
}

// Samples returns the sample names in header order.
func (l *Layout) Samples() []string { return l.samples }

// Width is the number of columns every data line must carry.
func (l *Layout) Width() int {
	if len(l.samples) == 0 {
		return ColFormat
	}
	return PrefixColumns + len(l.samples)
}

// Column returns the column index of a sample.
func (l *Layout) Column(sample string) (int, bool) {
	c, ok := l.columns[sample]
	return c, ok
}

// Parse parses one data line against the layout.
func (l *Layout) Parse(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < l.Width() {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected %d columns, found %d", l.Width(), len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[ColPos], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid position: %s", fields[ColPos]),
		}
	}

	r := &Record{
		Key: Key{
			Chrom: fields[ColChrom],
			Pos:   pos,
			Ref:   fields[ColRef],
			Alt:   fields[ColAlt],
		},
		fields: fields,
		layout: l,
		info:   parseInfo(fields[ColInfo]),
	}
	if len(fields) > ColFormat {
		r.format = strings.Split(fields[ColFormat], ":")
	}

	return r, nil
}
