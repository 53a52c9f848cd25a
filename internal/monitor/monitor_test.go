package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	return New(30*time.Second, 30*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// closeSpan records one span with a fixed duration ending at end.
func closeSpan(t *testing.T, m *Monitor, end time.Time, duration time.Duration, success bool, errMsg string, meta SpanMetadata) {
	t.Helper()
	m.now = func() time.Time { return end.Add(-duration) }
	id := m.StartOperation("report_generation", meta)
	m.now = func() time.Time { return end }
	if span := m.EndOperation(id, success, errMsg, nil); span == nil {
		t.Fatal("EndOperation returned nil for a live span")
	}
}

func TestPerformanceSummaryAverages(t *testing.T) {
	m := newTestMonitor(t)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, ms := range []int{100, 200, 300} {
		closeSpan(t, m, end, time.Duration(ms)*time.Millisecond, true, "", SpanMetadata{ReportType: "match-analysis", OutputFormat: "markdown"})
	}

	sum := m.PerformanceSummary(end.Add(-time.Hour), end.Add(time.Hour))
	if sum.TotalOperations != 3 {
		t.Fatalf("total = %d, want 3", sum.TotalOperations)
	}
	if sum.SuccessRate != 1.0 {
		t.Fatalf("success rate = %v, want 1.0", sum.SuccessRate)
	}
	if sum.AverageDurationMs != 200 {
		t.Fatalf("average = %v, want 200", sum.AverageDurationMs)
	}
	if sum.MedianDurationMs != 200 {
		t.Fatalf("median = %v, want 200", sum.MedianDurationMs)
	}
	if g, ok := sum.ByReportType["match-analysis"]; !ok || g.Count != 3 {
		t.Fatalf("byReportType = %+v", sum.ByReportType)
	}
}

func TestPerformanceSummaryFailureRateAndCategories(t *testing.T) {
	m := newTestMonitor(t)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		closeSpan(t, m, end, 100*time.Millisecond, true, "", SpanMetadata{})
	}
	closeSpan(t, m, end, 100*time.Millisecond, false, "context deadline exceeded", SpanMetadata{})

	sum := m.PerformanceSummary(end.Add(-time.Hour), end.Add(time.Hour))
	if sum.SuccessRate != 0.75 {
		t.Fatalf("success rate = %v, want 0.75", sum.SuccessRate)
	}
	if sum.ErrorCategories[CategoryTimeout] != 1 {
		t.Fatalf("error categories = %+v", sum.ErrorCategories)
	}
}

func TestPerformanceSummaryRangeFilter(t *testing.T) {
	m := newTestMonitor(t)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	closeSpan(t, m, end, 100*time.Millisecond, true, "", SpanMetadata{})
	closeSpan(t, m, end.Add(-48*time.Hour), 100*time.Millisecond, true, "", SpanMetadata{})

	sum := m.PerformanceSummary(end.Add(-time.Hour), end.Add(time.Hour))
	if sum.TotalOperations != 1 {
		t.Fatalf("total = %d, want 1 (out-of-range span must be excluded)", sum.TotalOperations)
	}
}

func TestEndOperationUnknownID(t *testing.T) {
	m := newTestMonitor(t)
	if span := m.EndOperation("no-such-id", true, "", nil); span != nil {
		t.Fatalf("expected nil span, got %+v", span)
	}
}

func TestSystemHealthThresholds(t *testing.T) {
	cases := []struct {
		name       string
		total      int
		failed     int
		wantStatus string
	}{
		{"healthy at 100%", 100, 0, StatusHealthy},
		{"healthy at 99%", 100, 1, StatusHealthy},
		{"degraded at 90%", 100, 10, StatusDegraded},
		{"unhealthy at 70%", 100, 30, StatusUnhealthy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMonitor(t)
			end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			for i := 0; i < tc.total; i++ {
				closeSpan(t, m, end, 50*time.Millisecond, i >= tc.failed, "boom", SpanMetadata{})
			}
			m.now = func() time.Time { return end }
			health := m.SystemHealth()
			if health.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s (rate %v)", health.Status, tc.wantStatus, health.SuccessRate)
			}
		})
	}
}

func TestSystemHealthLatencyDegrades(t *testing.T) {
	m := newTestMonitor(t)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	closeSpan(t, m, end, 45*time.Second, true, "", SpanMetadata{})

	m.now = func() time.Time { return end }
	health := m.SystemHealth()
	if health.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded when latency exceeds budget", health.Status)
	}
}

func TestSystemHealthQualityDegrades(t *testing.T) {
	m := newTestMonitor(t)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return end }

	m.RecordQuality(QualityMetric{ReportID: 1, QualityScore: 3.0})
	health := m.SystemHealth()
	if health.Status != StatusDegraded {
		t.Fatalf("status = %s, want degraded on low quality", health.Status)
	}
	if health.AverageQuality != 3.0 {
		t.Fatalf("average quality = %v, want 3.0", health.AverageQuality)
	}
}

func TestSystemHealthActiveOpsAdvisoryOnly(t *testing.T) {
	m := newTestMonitor(t)
	for i := 0; i < 11; i++ {
		m.StartOperation("report_generation", SpanMetadata{})
	}

	health := m.SystemHealth()
	if health.Status != StatusHealthy {
		t.Fatalf("status = %s, concurrency pressure must stay advisory", health.Status)
	}
	if len(health.Alerts) == 0 {
		t.Fatal("expected an advisory alert for >10 active operations")
	}
	if health.ActiveOperations != 11 {
		t.Fatalf("active = %d, want 11", health.ActiveOperations)
	}
}

func TestSweepEvictsOldEntries(t *testing.T) {
	m := newTestMonitor(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	closeSpan(t, m, now.Add(-31*24*time.Hour), 100*time.Millisecond, true, "", SpanMetadata{})
	closeSpan(t, m, now.Add(-time.Hour), 100*time.Millisecond, true, "", SpanMetadata{})

	m.now = func() time.Time { return now.Add(-31 * 24 * time.Hour) }
	m.RecordQuality(QualityMetric{ReportID: 1, QualityScore: 4.5})
	m.now = func() time.Time { return now }
	m.RecordQuality(QualityMetric{ReportID: 2, QualityScore: 4.5})

	removedSpans, removedQuality := m.Sweep()
	if removedSpans != 1 || removedQuality != 1 {
		t.Fatalf("removed = (%d, %d), want (1, 1)", removedSpans, removedQuality)
	}

	sum := m.PerformanceSummary(now.Add(-40*24*time.Hour), now)
	if sum.TotalOperations != 1 {
		t.Fatalf("total after sweep = %d, want 1", sum.TotalOperations)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{300, 100, 200}); got != 200 {
		t.Fatalf("odd median = %v, want 200", got)
	}
	if got := median([]float64{100, 200, 300, 400}); got != 250 {
		t.Fatalf("even median = %v, want 250", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %v, want 0", got)
	}
}
