package report

import "testing"

func TestParseDecision(t *testing.T) {
	cases := []struct {
		in   string
		want Decision
	}{
		{"strong_hire", DecisionStrongHire},
		{"STRONG-HIRE", DecisionStrongHire},
		{"hire", DecisionHire},
		{"Interview", DecisionInterview},
		{"maybe", DecisionConsider},
		{"no_hire", DecisionReject},
		{"pass", DecisionPass},
		{"  hire  ", DecisionHire},
		{"gibberish", DecisionUnknown},
		{"", DecisionUnknown},
	}
	for _, tc := range cases {
		if got := ParseDecision(tc.in); got != tc.want {
			t.Errorf("ParseDecision(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecisionRoundTrip(t *testing.T) {
	all := []Decision{
		DecisionStrongHire, DecisionHire, DecisionInterview,
		DecisionConsider, DecisionReject, DecisionPass,
	}
	for _, d := range all {
		if got := ParseDecision(d.String()); got != d {
			t.Errorf("ParseDecision(%q) = %v, want %v", d.String(), got, d)
		}
	}
}

func TestDecisionFavorable(t *testing.T) {
	if !DecisionStrongHire.Favorable() || !DecisionInterview.Favorable() {
		t.Fatal("hire-leaning decisions must be favorable")
	}
	if DecisionReject.Favorable() || DecisionUnknown.Favorable() {
		t.Fatal("reject and unknown must not be favorable")
	}
}
