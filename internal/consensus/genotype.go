package consensus

import (
	"math"
	"strconv"
	"strings"

	"github.com/ShahiRB/somaticseq/internal/features"
)

// FORMAT tokens the reconstructor fills from evidence.
const (
	TokenGenotype = "GT"
	TokenCD4      = "CD4"
	TokenDP4      = "DP4"
	TokenMQ0      = "MQ0"
	TokenNumTools = "NUM_TOOLS"
	TokenVAF      = "VAF"
	TokenAltBQ    = "altBQ"
	TokenAltMQ    = "altMQ"
	TokenAltNM    = "altNM"
	TokenFetCD    = "fetCD"
	TokenFetSB    = "fetSB"
	TokenRefBQ    = "refBQ"
	TokenRefMQ    = "refMQ"
	TokenRefNM    = "refNM"
	TokenZBQ      = "zBQ"
	TokenZMQ      = "zMQ"
)

const (
	// HomRef is the genotype written for every reconstructed no-call.
	HomRef = "0/0"

	// Missing is the placeholder for a value that cannot be filled.
	Missing = "."
)

// statMetrics maps three-significant-digit FORMAT tokens to their columns.
var statMetrics = map[string]string{
	TokenAltBQ: features.AltBQ,
	TokenAltMQ: features.AltMQ,
	TokenAltNM: features.AltNM,
	TokenFetCD: features.ConcordanceFET,
	TokenFetSB: features.StrandBiasFET,
	TokenRefBQ: features.RefBQ,
	TokenRefMQ: features.RefMQ,
	TokenRefNM: features.RefNM,
	TokenZBQ:   features.ZRanksumsBQ,
	TokenZMQ:   features.ZRanksumsMQ,
}

var (
	cd4Metrics = []string{features.RefConcordant, features.RefDiscordant, features.AltConcordant, features.AltDiscordant}
	dp4Metrics = []string{features.RefFor, features.RefRev, features.AltFor, features.AltRev}
)

// FormatVAF formats (altFor+altRev)/depth to three significant digits.
// Zero depth yields "0".
func FormatVAF(altFor, altRev, depth int) string {
	if depth == 0 {
		return "0"
	}
	return formatSig3(float64(altFor+altRev) / float64(depth))
}

// FormatStat formats the raw value of a feature column to three significant
// digits. A textual "nan" becomes the missing placeholder.
func FormatStat(column, raw string) (string, error) {
	if strings.EqualFold(raw, "nan") {
		return Missing, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", &features.NumericError{Column: column, Value: raw, Err: err}
	}
	return formatSig3(f), nil
}

// formatSig3 renders f like printf's %.3g, with infinities as inf and -inf.
func formatSig3(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', 3, 64)
}

// Reconstruct builds a no-call sample's field string from its evidence,
// following the FORMAT token order. The genotype is always homozygous
// reference. DP, ALT_FOR and ALT_REV are required; every other column
// falls back to the missing placeholder when absent.
func Reconstruct(format []string, sample string, row *features.Row) (string, error) {
	altFor, err := row.Int(sample, features.AltFor)
	if err != nil {
		return "", err
	}
	altRev, err := row.Int(sample, features.AltRev)
	if err != nil {
		return "", err
	}
	depth, err := row.Int(sample, features.Depth)
	if err != nil {
		return "", err
	}

	values := make([]string, len(format))
	for i, tok := range format {
		switch tok {
		case TokenGenotype:
			values[i] = HomRef
		case TokenCD4:
			values[i] = joinRaw(row, sample, cd4Metrics)
		case TokenDP4:
			values[i] = joinRaw(row, sample, dp4Metrics)
		case TokenMQ0:
			values[i] = rawOrMissing(row, sample, features.MQ0)
		case TokenNumTools:
			values[i] = "0"
		case TokenVAF:
			values[i] = FormatVAF(altFor, altRev, depth)
		default:
			metric, ok := statMetrics[tok]
			if !ok {
				values[i] = Missing
				continue
			}
			raw, err := row.Get(sample, metric)
			if err != nil {
				values[i] = Missing
				continue
			}
			if values[i], err = FormatStat(features.ColumnName(sample, metric), raw); err != nil {
				return "", err
			}
		}
	}

	return strings.Join(values, ":"), nil
}

// joinRaw joins raw column values with commas, or returns the placeholder
// when any column is absent.
func joinRaw(row *features.Row, sample string, metrics []string) string {
	vals := make([]string, len(metrics))
	for i, m := range metrics {
		v, err := row.Get(sample, m)
		if err != nil {
			return Missing
		}
		vals[i] = v
	}
	return strings.Join(vals, ",")
}

func rawOrMissing(row *features.Row, sample, metric string) string {
	v, err := row.Get(sample, metric)
	if err != nil {
		return Missing
	}
	return v
}
