package monitor

import "strings"

// Error categories used in the summary histogram.
const (
	CategoryTimeout       = "timeout"
	CategoryValidation    = "validation"
	CategoryNotFound      = "not_found"
	CategoryAuthorization = "authorization"
	CategoryNetwork       = "network"
	CategoryModelError    = "model_error"
	CategoryStorage       = "storage"
	CategoryOther         = "other"
)

// Keyword tables checked in order; the first category with a hit wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryTimeout, []string{"timeout", "timed out", "deadline exceeded", "budget exceeded"}},
	{CategoryValidation, []string{"validation", "invalid", "missing required", "malformed"}},
	{CategoryNotFound, []string{"not found", "nosuchkey", "no such", "does not exist"}},
	{CategoryAuthorization, []string{"unauthorized", "forbidden", "permission denied", "access denied", "authentication"}},
	{CategoryNetwork, []string{"network", "connection refused", "connection reset", "broken pipe", "dns", "eof"}},
	{CategoryModelError, []string{"gemini", "model", "generation", "content blocked", "safety"}},
	{CategoryStorage, []string{"storage", "bucket", "object", "minio", "database", "sql", "gorm"}},
}

// Categorize maps an error message to a coarse category by keyword matching.
func Categorize(errMsg string) string {
	lower := strings.ToLower(errMsg)
	if strings.TrimSpace(lower) == "" {
		return CategoryOther
	}
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return CategoryOther
}
