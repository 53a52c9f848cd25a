package report

import (
	"fmt"

	"reportforge/internal/config"
)

// Contract is the quality gate for analysis-report artifacts: bounds on the
// artifact byte size and, when the artifact is paginated, its page count.
type Contract struct {
	MinBytes int64
	MaxBytes int64
	MinPages int
	MaxPages int
}

// ContractFromConfig lifts the configured bounds into a Contract.
func ContractFromConfig(cfg config.ReportConfig) Contract {
	return Contract{
		MinBytes: cfg.MinArtifactBytes,
		MaxBytes: cfg.MaxArtifactBytes,
		MinPages: cfg.MinPageCount,
		MaxPages: cfg.MaxPageCount,
	}
}

// Validate checks an artifact against the gate. pages <= 0 means the
// artifact is unpaginated and the page bounds do not apply. A violation is
// a contract error, distinct from upstream or storage failures, and the
// artifact must not be persisted.
func (c Contract) Validate(size int64, pages int) error {
	if size < c.MinBytes {
		return NewError(KindContractViolation,
			fmt.Sprintf("artifact size %d below minimum %d bytes", size, c.MinBytes), nil)
	}
	if size > c.MaxBytes {
		return NewError(KindContractViolation,
			fmt.Sprintf("artifact size %d exceeds maximum %d bytes", size, c.MaxBytes), nil)
	}
	if pages > 0 {
		if pages < c.MinPages {
			return NewError(KindContractViolation,
				fmt.Sprintf("page count %d below minimum %d", pages, c.MinPages), nil)
		}
		if pages > c.MaxPages {
			return NewError(KindContractViolation,
				fmt.Sprintf("page count %d exceeds maximum %d", pages, c.MaxPages), nil)
		}
	}
	return nil
}
