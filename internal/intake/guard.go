package intake

import (
	"strings"
	"sync"
)

// DedupKey derives the suppression key for a logical request.
func DedupKey(jobID, resumeID, reportType string) string {
	parts := []string{jobID, resumeID}
	if reportType != "" {
		parts = append(parts, reportType)
	}
	return strings.Join(parts, ":")
}

// Guard is the process-local active-key set preventing concurrent duplicate
// processing. Safe for concurrent use; state does not survive restarts and
// is not shared across instances.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard builds an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire atomically checks and inserts the key. Returns false when the
// key is already in flight.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.active[key]; exists {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

// Release removes the key regardless of processing outcome.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.active, key)
	g.mu.Unlock()
}

// ActiveCount returns the number of in-flight keys.
func (g *Guard) ActiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
