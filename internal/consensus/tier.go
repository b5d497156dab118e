package consensus

// Tier is the confidence label the caller ensemble put in FILTER.
type Tier int

const (
	TierUnknown Tier = iota
	AllPass
	Tier1
	Tier2A
	Tier2B
	Tier3A
	Tier3B
	Tier4A
	Tier4B
	Tier5A
	Tier5B
	Rejected
)

var tierNames = map[Tier]string{
	AllPass:  "AllPASS",
	Tier1:    "Tier1",
	Tier2A:   "Tier2A",
	Tier2B:   "Tier2B",
	Tier3A:   "Tier3A",
	Tier3B:   "Tier3B",
	Tier4A:   "Tier4A",
	Tier4B:   "Tier4B",
	Tier5A:   "Tier5A",
	Tier5B:   "Tier5B",
	Rejected: "REJECT",
}

var tiersByName = func() map[string]Tier {
	m := make(map[string]Tier, len(tierNames))
	for t, n := range tierNames {
		m[n] = t
	}
	return m
}()

func (t Tier) String() string {
	if n, ok := tierNames[t]; ok {
		return n
	}
	return "unknown"
}

// ClassifyTier maps a FILTER value to its tier. Anything outside the fixed
// set is TierUnknown.
func ClassifyTier(filter string) Tier {
	return tiersByName[filter]
}

// VerdictInfoKey is the INFO key declared for verdict text.
const VerdictInfoKey = "VERDICT"

// VerdictHeaderLine declares VerdictInfoKey in the output header.
const VerdictHeaderLine = `##INFO=<ID=VERDICT,Number=.,Type=String,Description="Reasons for PASS, LowQual, or REJECT">`

// VerdictFunc turns a record's tier and attribution into verdict text. No
// policy ships with the merger; when none is set, VERDICT is declared but
// never populated.
type VerdictFunc func(t Tier, res *Result) (string, bool)
