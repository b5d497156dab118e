package consensus

import (
	"fmt"

	"github.com/ShahiRB/somaticseq/internal/roster"
)

// Policy decides what a missing evidence column does.
type Policy int

const (
	// Strict aborts the run on the first missing required column.
	Strict Policy = iota
	// Lenient skips the affected sample and keeps going.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy parses "strict" or "lenient".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown missing-column policy %q (want strict or lenient)", s)
}

// Default ensemble scores, phred scaled 0.7 and 0.1.
const (
	DefaultPassScore   = 5.228787452803376
	DefaultRejectScore = 0.4575749056067512
	DefaultNumCallers  = 3
)

// Options are the user-settable parts of a Config.
type Options struct {
	Thresholds Thresholds
	Policy     Policy

	// PassScore, RejectScore and NumCallers are accepted for compatibility
	// with the caller ensemble's command line; no decision reads them yet.
	PassScore   float64
	RejectScore float64
	NumCallers  int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Thresholds:  DefaultThresholds,
		Policy:      Strict,
		PassScore:   DefaultPassScore,
		RejectScore: DefaultRejectScore,
		NumCallers:  DefaultNumCallers,
	}
}

// Config is the immutable run configuration built once from the VCF header.
type Config struct {
	Options
	Roster *roster.Roster
}

// NewConfig classifies the header's samples and binds them to opts.
func NewConfig(samples []string, opts Options) *Config {
	return &Config{
		Options: opts,
		Roster:  roster.New(samples),
	}
}
