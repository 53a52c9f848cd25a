package intake

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestDedupKey(t *testing.T) {
	if got := DedupKey("job-1", "resume-1", "match-analysis"); got != "job-1:resume-1:match-analysis" {
		t.Fatalf("got %q", got)
	}
	if got := DedupKey("job-1", "resume-1", ""); got != "job-1:resume-1" {
		t.Fatalf("got %q", got)
	}
}

func TestGuardAcquireRelease(t *testing.T) {
	g := NewGuard()
	key := DedupKey("job-1", "resume-1", "match-analysis")

	if !g.TryAcquire(key) {
		t.Fatal("first acquire must succeed")
	}
	if g.TryAcquire(key) {
		t.Fatal("second acquire of an in-flight key must fail")
	}
	if g.ActiveCount() != 1 {
		t.Fatalf("active = %d, want 1", g.ActiveCount())
	}

	g.Release(key)
	if !g.TryAcquire(key) {
		t.Fatal("reacquire after release must succeed")
	}
}

func TestGuardConcurrentAcquireSingleWinner(t *testing.T) {
	g := NewGuard()
	key := DedupKey("job-1", "resume-1", "match-analysis")

	const goroutines = 64
	var (
		wg   sync.WaitGroup
		wins int64
	)
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire(key) {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestGuardIndependentKeys(t *testing.T) {
	g := NewGuard()
	if !g.TryAcquire(DedupKey("job-1", "resume-1", "match-analysis")) {
		t.Fatal("acquire failed")
	}
	if !g.TryAcquire(DedupKey("job-1", "resume-1", "candidate-summary")) {
		t.Fatal("a different report type must not be suppressed")
	}
	if !g.TryAcquire(DedupKey("job-1", "resume-2", "match-analysis")) {
		t.Fatal("a different resume must not be suppressed")
	}
}
