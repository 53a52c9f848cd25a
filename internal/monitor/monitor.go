package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SpanMetadata carries optional dimensions attached to an operation span.
type SpanMetadata struct {
	ReportType   string  `json:"reportType,omitempty"`
	JobID        string  `json:"jobId,omitempty"`
	ResumeID     string  `json:"resumeId,omitempty"`
	OutputFormat string  `json:"outputFormat,omitempty"`
	ModelID      string  `json:"modelId,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	FileSize     int64   `json:"fileSize,omitempty"`
}

// Span records one observed pipeline operation.
type Span struct {
	ID            string        `json:"id"`
	OperationName string        `json:"operationName"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      time.Duration `json:"duration"`
	Success       bool          `json:"success"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	Metadata      SpanMetadata  `json:"metadata"`
}

// CriteriaScores are the five 0-5 quality assessment dimensions.
type CriteriaScores struct {
	Completeness  float64 `json:"completeness"`
	Accuracy      float64 `json:"accuracy"`
	Relevance     float64 `json:"relevance"`
	Clarity       float64 `json:"clarity"`
	Actionability float64 `json:"actionability"`
}

// QualityMetric is one reviewer rating of a generated report.
type QualityMetric struct {
	ReportID         uint           `json:"reportId"`
	QualityScore     float64        `json:"qualityScore"`
	Criteria         CriteriaScores `json:"criteriaScores"`
	ReviewerFeedback string         `json:"reviewerFeedback,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Health status levels, ordered by severity.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Health is the result of a trailing-hour health evaluation.
type Health struct {
	Status            string    `json:"status"`
	SuccessRate       float64   `json:"successRate"`
	AverageDurationMs float64   `json:"averageDurationMs"`
	AverageQuality    float64   `json:"averageQuality"`
	QualitySamples    int       `json:"qualitySamples"`
	ActiveOperations  int       `json:"activeOperations"`
	Alerts            []string  `json:"alerts,omitempty"`
	EvaluatedAt       time.Time `json:"evaluatedAt"`
}

// TrendBucket is a per-day aggregate used for time-series reporting.
type TrendBucket struct {
	Day         string  `json:"day"`
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
	SuccessRate float64 `json:"successRate"`
}

// GroupStats aggregates spans sharing one dimension value.
type GroupStats struct {
	Count             int     `json:"count"`
	SuccessRate       float64 `json:"successRate"`
	AverageDurationMs float64 `json:"averageDurationMs"`
}

// Summary aggregates closed spans over a date range.
type Summary struct {
	TotalOperations   int                   `json:"totalOperations"`
	SuccessRate       float64               `json:"successRate"`
	AverageDurationMs float64               `json:"averageGenerationTime"`
	MedianDurationMs  float64               `json:"medianGenerationTime"`
	ByReportType      map[string]GroupStats `json:"byReportType"`
	ByOutputFormat    map[string]GroupStats `json:"byOutputFormat"`
	ErrorCategories   map[string]int        `json:"errorCategories"`
	DailyPerformance  []TrendBucket         `json:"dailyPerformance"`
	DailyQuality      []TrendBucket         `json:"dailyQuality"`
}

// Monitor is the in-process performance and quality monitoring engine.
// All state is process-local; it does not survive restarts and is not
// shared across instances.
type Monitor struct {
	mu      sync.Mutex
	active  map[string]*Span
	spans   []*Span // closed spans, append-ordered by end time
	quality []QualityMetric

	budget    time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a Monitor. budget is the generation time budget used by the
// latency health rule; retention bounds the span/quality history.
func New(budget, retention time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		active:    make(map[string]*Span),
		budget:    budget,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// StartOperation opens a span and returns its operation id.
func (m *Monitor) StartOperation(name string, meta SpanMetadata) string {
	span := &Span{
		ID:            uuid.NewString(),
		OperationName: name,
		StartTime:     m.now(),
		Metadata:      meta,
	}

	m.mu.Lock()
	m.active[span.ID] = span
	m.mu.Unlock()

	return span.ID
}

// EndOperation closes a span. Unknown or already-closed ids return nil
// rather than failing the caller.
func (m *Monitor) EndOperation(id string, success bool, errMsg string, extra *SpanMetadata) *Span {
	m.mu.Lock()
	defer m.mu.Unlock()

	span, ok := m.active[id]
	if !ok {
		return nil
	}
	delete(m.active, id)

	span.EndTime = m.now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	span.Success = success
	span.ErrorMessage = errMsg
	if extra != nil {
		mergeMetadata(&span.Metadata, *extra)
	}

	m.spans = append(m.spans, span)
	return span
}

// RecordQuality appends a reviewer quality sample.
func (m *Monitor) RecordQuality(q QualityMetric) {
	if q.Timestamp.IsZero() {
		q.Timestamp = m.now()
	}
	m.mu.Lock()
	m.quality = append(m.quality, q)
	m.mu.Unlock()
}

// ActiveOperations returns the number of currently open spans.
func (m *Monitor) ActiveOperations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// PerformanceSummary aggregates spans and quality samples whose end time
// falls within [from, to].
func (m *Monitor) PerformanceSummary(from, to time.Time) Summary {
	m.mu.Lock()
	spans := make([]*Span, 0, len(m.spans))
	for _, s := range m.spans {
		if s.EndTime.Before(from) || s.EndTime.After(to) {
			continue
		}
		spans = append(spans, s)
	}
	quality := make([]QualityMetric, 0, len(m.quality))
	for _, q := range m.quality {
		if q.Timestamp.Before(from) || q.Timestamp.After(to) {
			continue
		}
		quality = append(quality, q)
	}
	m.mu.Unlock()

	summary := Summary{
		TotalOperations: len(spans),
		ByReportType:    map[string]GroupStats{},
		ByOutputFormat:  map[string]GroupStats{},
		ErrorCategories: map[string]int{},
	}
	if len(spans) == 0 {
		summary.DailyQuality = qualityTrend(quality)
		return summary
	}

	durations := make([]float64, 0, len(spans))
	succeeded := 0
	for _, s := range spans {
		durations = append(durations, float64(s.Duration.Milliseconds()))
		if s.Success {
			succeeded++
		} else {
			summary.ErrorCategories[Categorize(s.ErrorMessage)]++
		}
	}

	summary.SuccessRate = float64(succeeded) / float64(len(spans))
	summary.AverageDurationMs = mean(durations)
	summary.MedianDurationMs = median(durations)
	summary.ByReportType = groupBy(spans, func(s *Span) string { return s.Metadata.ReportType })
	summary.ByOutputFormat = groupBy(spans, func(s *Span) string { return s.Metadata.OutputFormat })
	summary.DailyPerformance = performanceTrend(spans)
	summary.DailyQuality = qualityTrend(quality)
	return summary
}

// SystemHealth evaluates the trailing hour. Multiple simultaneous
// conditions escalate to the worst status.
func (m *Monitor) SystemHealth() Health {
	now := m.now()
	cutoff := now.Add(-time.Hour)

	m.mu.Lock()
	var (
		total, succeeded int
		durations        []float64
		qualitySum       float64
		qualityCount     int
	)
	for _, s := range m.spans {
		if s.EndTime.Before(cutoff) {
			continue
		}
		total++
		if s.Success {
			succeeded++
		}
		durations = append(durations, float64(s.Duration.Milliseconds()))
	}
	for _, q := range m.quality {
		if q.Timestamp.Before(cutoff) {
			continue
		}
		qualitySum += q.QualityScore
		qualityCount++
	}
	activeOps := len(m.active)
	m.mu.Unlock()

	health := Health{
		Status:           StatusHealthy,
		SuccessRate:      1.0,
		ActiveOperations: activeOps,
		QualitySamples:   qualityCount,
		EvaluatedAt:      now,
	}

	if total > 0 {
		health.SuccessRate = float64(succeeded) / float64(total)
		health.AverageDurationMs = mean(durations)

		switch {
		case health.SuccessRate < 0.80:
			health.escalate(StatusUnhealthy, "success rate below 80%")
		case health.SuccessRate < 0.95:
			health.escalate(StatusDegraded, "success rate below 95%")
		}

		if health.AverageDurationMs > float64(m.budget.Milliseconds()) {
			health.escalate(StatusDegraded, "average latency exceeds generation budget")
		}
	}

	if qualityCount > 0 {
		health.AverageQuality = qualitySum / float64(qualityCount)
		if health.AverageQuality < 4.0 {
			health.escalate(StatusDegraded, "average quality score below 4.0")
		}
	}

	// Advisory only: concurrency pressure alerts but does not change status.
	if activeOps > 10 {
		health.Alerts = append(health.Alerts, "more than 10 concurrently active operations")
	}

	return health
}

// escalate raises the status to at least level, never lowering it.
func (h *Health) escalate(level, reason string) {
	if severity(level) > severity(h.Status) {
		h.Status = level
	}
	h.Alerts = append(h.Alerts, reason)
}

func severity(status string) int {
	switch status {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Sweep evicts spans and quality samples older than the retention window.
// Both lists are append-ordered by time, so eviction is a prefix trim.
func (m *Monitor) Sweep() (removedSpans, removedQuality int) {
	cutoff := m.now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	firstSpan := 0
	for firstSpan < len(m.spans) && m.spans[firstSpan].EndTime.Before(cutoff) {
		firstSpan++
	}
	removedSpans = firstSpan
	m.spans = append([]*Span(nil), m.spans[firstSpan:]...)

	firstQuality := 0
	for firstQuality < len(m.quality) && m.quality[firstQuality].Timestamp.Before(cutoff) {
		firstQuality++
	}
	removedQuality = firstQuality
	m.quality = append([]QualityMetric(nil), m.quality[firstQuality:]...)

	return removedSpans, removedQuality
}

// RunRetentionLoop sweeps on every tick until the context is cancelled.
func (m *Monitor) RunRetentionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spans, quality := m.Sweep()
			if spans > 0 || quality > 0 {
				m.logger.Info("retention sweep completed",
					slog.Int("spans_removed", spans),
					slog.Int("quality_removed", quality),
				)
			}
		}
	}
}

func mergeMetadata(dst *SpanMetadata, extra SpanMetadata) {
	if extra.ReportType != "" {
		dst.ReportType = extra.ReportType
	}
	if extra.JobID != "" {
		dst.JobID = extra.JobID
	}
	if extra.ResumeID != "" {
		dst.ResumeID = extra.ResumeID
	}
	if extra.OutputFormat != "" {
		dst.OutputFormat = extra.OutputFormat
	}
	if extra.ModelID != "" {
		dst.ModelID = extra.ModelID
	}
	if extra.Confidence != 0 {
		dst.Confidence = extra.Confidence
	}
	if extra.FileSize != 0 {
		dst.FileSize = extra.FileSize
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func groupBy(spans []*Span, key func(*Span) string) map[string]GroupStats {
	type acc struct {
		count     int
		succeeded int
		duration  float64
	}
	groups := map[string]*acc{}
	for _, s := range spans {
		k := key(s)
		if k == "" {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
		}
		g.count++
		if s.Success {
			g.succeeded++
		}
		g.duration += float64(s.Duration.Milliseconds())
	}

	out := make(map[string]GroupStats, len(groups))
	for k, g := range groups {
		out[k] = GroupStats{
			Count:             g.count,
			SuccessRate:       float64(g.succeeded) / float64(g.count),
			AverageDurationMs: g.duration / float64(g.count),
		}
	}
	return out
}

func performanceTrend(spans []*Span) []TrendBucket {
	type acc struct {
		count     int
		succeeded int
		duration  float64
	}
	days := map[string]*acc{}
	for _, s := range spans {
		day := s.EndTime.UTC().Format("2006-01-02")
		g, ok := days[day]
		if !ok {
			g = &acc{}
			days[day] = g
		}
		g.count++
		if s.Success {
			g.succeeded++
		}
		g.duration += float64(s.Duration.Milliseconds())
	}
	return sortedBuckets(days, func(g *acc) (int, float64, float64) {
		return g.count, g.duration / float64(g.count), float64(g.succeeded) / float64(g.count)
	})
}

func qualityTrend(samples []QualityMetric) []TrendBucket {
	type acc struct {
		count int
		score float64
	}
	days := map[string]*acc{}
	for _, q := range samples {
		day := q.Timestamp.UTC().Format("2006-01-02")
		g, ok := days[day]
		if !ok {
			g = &acc{}
			days[day] = g
		}
		g.count++
		g.score += q.QualityScore
	}
	return sortedBuckets(days, func(g *acc) (int, float64, float64) {
		return g.count, g.score / float64(g.count), 0
	})
}

func sortedBuckets[T any](days map[string]*T, stats func(*T) (int, float64, float64)) []TrendBucket {
	buckets := make([]TrendBucket, 0, len(days))
	for day, g := range days {
		count, avg, rate := stats(g)
		buckets = append(buckets, TrendBucket{Day: day, Count: count, Average: avg, SuccessRate: rate})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Day < buckets[j].Day })
	return buckets
}
