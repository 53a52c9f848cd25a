package report

import "testing"

func testContract() Contract {
	return Contract{
		MinBytes: 100 * 1024,
		MaxBytes: 5 * 1024 * 1024,
		MinPages: 2,
		MaxPages: 20,
	}
}

func TestContractValidate(t *testing.T) {
	c := testContract()

	cases := []struct {
		name    string
		size    int64
		pages   int
		wantErr bool
	}{
		{"undersized artifact rejected", 50_000, 5, true},
		{"well formed artifact accepted", 500_000, 5, false},
		{"oversized artifact rejected", 6 * 1024 * 1024, 5, true},
		{"single page rejected", 500_000, 1, true},
		{"too many pages rejected", 500_000, 21, true},
		{"boundary sizes accepted", 100 * 1024, 2, false},
		{"unpaginated skips page bounds", 500_000, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Validate(tc.size, tc.pages)
			if tc.wantErr && err == nil {
				t.Fatal("expected contract violation, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && KindOf(err) != KindContractViolation {
				t.Fatalf("kind = %s, want %s", KindOf(err), KindContractViolation)
			}
		})
	}
}

func TestContractViolationNotRetryable(t *testing.T) {
	err := testContract().Validate(10, 0)
	if err == nil {
		t.Fatal("expected violation")
	}
	if Retryable(err) {
		t.Fatal("contract violations must be terminal")
	}
}
