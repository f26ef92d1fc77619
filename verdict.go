package graft

/*
Verdict is the closed tri-state classification of how much a blackbox
model deserves trust according to its extracted surrogate. Each
verdict carries a display color, resolved through a lookup table.
*/
type Verdict int

const (
	// Trustworthy means the surrogate reproduces the blackbox
	// faithfully enough to vouch for it.
	Trustworthy Verdict = iota + 1
	// Inconclusive means the analysis neither vouches for nor
	// condemns the blackbox.
	Inconclusive
	// Untrustworthy means the surrogate evidences behavior the
	// blackbox should not be trusted with.
	Untrustworthy
)

type verdictDisplay struct {
	name  string
	color string
}

var verdictDisplays = map[Verdict]verdictDisplay{
	Trustworthy:   {"TRUSTWORTHY", "green"},
	Inconclusive:  {"INCONCLUSIVE", "yellow"},
	Untrustworthy: {"UNTRUSTWORTHY", "red"},
}

func (v Verdict) String() string {
	d, ok := verdictDisplays[v]
	if !ok {
		return "UNKNOWN"
	}
	return d.name
}

// Color returns the display color associated with the verdict.
func (v Verdict) Color() string {
	d, ok := verdictDisplays[v]
	if !ok {
		return ""
	}
	return d.color
}

/*
VerdictOf maps a fidelity score in [0, 1] to a Verdict: at least 0.8
is Trustworthy, at least 0.4 Inconclusive, anything lower
Untrustworthy.
*/
func VerdictOf(fidelity float64) Verdict {
	switch {
	case fidelity >= 0.8:
		return Trustworthy
	case fidelity >= 0.4:
		return Inconclusive
	default:
		return Untrustworthy
	}
}
