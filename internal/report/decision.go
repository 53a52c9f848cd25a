package report

import "strings"

// Decision is the canonical hiring recommendation. All inbound spellings
// are funneled through ParseDecision so downstream code never branches on
// raw strings.
type Decision int

const (
	DecisionUnknown Decision = iota
	DecisionStrongHire
	DecisionHire
	DecisionInterview
	DecisionConsider
	DecisionReject
	DecisionPass
)

// ParseDecision maps a scorer decision string to the canonical enum.
func ParseDecision(s string) Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strong_hire", "strong-hire":
		return DecisionStrongHire
	case "hire":
		return DecisionHire
	case "interview":
		return DecisionInterview
	case "consider", "maybe":
		return DecisionConsider
	case "reject", "no_hire", "no-hire":
		return DecisionReject
	case "pass":
		return DecisionPass
	default:
		return DecisionUnknown
	}
}

// String returns the wire value stored on records and events.
func (d Decision) String() string {
	switch d {
	case DecisionStrongHire:
		return "strong_hire"
	case DecisionHire:
		return "hire"
	case DecisionInterview:
		return "interview"
	case DecisionConsider:
		return "consider"
	case DecisionReject:
		return "reject"
	case DecisionPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Label returns the human-readable form used in rendered reports.
func (d Decision) Label() string {
	switch d {
	case DecisionStrongHire:
		return "Strong Hire"
	case DecisionHire:
		return "Hire"
	case DecisionInterview:
		return "Interview"
	case DecisionConsider:
		return "Consider"
	case DecisionReject:
		return "Reject"
	case DecisionPass:
		return "Pass"
	default:
		return "No Recommendation"
	}
}

// Favorable reports whether the decision leans toward advancing the candidate.
func (d Decision) Favorable() bool {
	switch d {
	case DecisionStrongHire, DecisionHire, DecisionInterview:
		return true
	default:
		return false
	}
}
