package errcode

// Error code convention carried in outbound notification payloads:
// - 0:    no error
// - 4xxx: recoverable / advisory conditions (processing skipped or degraded)
// - 5xxx: terminal pipeline failures
const (
	OK                     = 0
	DuplicateSuppressed    = 4001
	InvalidEventData       = 4002
	InsufficientCandidates = 4003
	RecordNotFound         = 4004
	SystemError            = 5000
	ContractViolation      = 5001
	UpstreamGeneration     = 5002
	StorageFailure         = 5003
)
