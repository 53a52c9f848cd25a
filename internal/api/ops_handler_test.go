package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reportforge/internal/database"
	"reportforge/internal/monitor"
	"reportforge/internal/report"
)

type fakeArtifactStore struct {
	verifyOK  bool
	verifyErr error
}

func (f *fakeArtifactStore) VerifyIntegrity(_ context.Context, _ string) (bool, error) {
	return f.verifyOK, f.verifyErr
}

func (f *fakeArtifactStore) GeneratePresignedURL(_ context.Context, objectKey string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://minio.local/reports/%s?expires=%d", objectKey, int(expiry.Seconds())), nil
}

func newTestRouter(t *testing.T, mon *monitor.Monitor, blobs ArtifactStore) (*gin.Engine, *report.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := report.NewStore(db)

	h := NewOpsHandler(mon, store, blobs)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/v1/performance", h.Performance)
	router.GET("/v1/analytics", h.Analytics)
	router.POST("/v1/reports/:id/quality", h.RecordQuality)
	router.GET("/v1/reports/:id/artifact", h.Artifact)
	return router, store
}

func newTestMonitor() *monitor.Monitor {
	return monitor.New(30*time.Second, 30*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHealthEndpointHealthy(t *testing.T) {
	mon := newTestMonitor()
	id := mon.StartOperation("report_generation", monitor.SpanMetadata{})
	mon.EndOperation(id, true, "", nil)

	router, _ := newTestRouter(t, mon, &fakeArtifactStore{verifyOK: true})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var health monitor.Health
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != monitor.StatusHealthy {
		t.Fatalf("health = %s", health.Status)
	}
}

func TestHealthEndpointUnhealthyAnswers503(t *testing.T) {
	mon := newTestMonitor()
	for i := 0; i < 5; i++ {
		id := mon.StartOperation("report_generation", monitor.SpanMetadata{})
		mon.EndOperation(id, false, "model overloaded", nil)
	}

	router, _ := newTestRouter(t, mon, &fakeArtifactStore{verifyOK: true})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	mon := newTestMonitor()
	id := mon.StartOperation("report_generation", monitor.SpanMetadata{ReportType: "match-analysis"})
	mon.EndOperation(id, true, "", nil)

	router, _ := newTestRouter(t, mon, &fakeArtifactStore{verifyOK: true})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/performance", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var summary monitor.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TotalOperations != 1 {
		t.Fatalf("total = %d, want 1", summary.TotalOperations)
	}
}

func TestPerformanceEndpointRejectsBadRange(t *testing.T) {
	router, _ := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/performance?from=yesterday", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unparsable from", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/v1/performance?from=2026-03-10T12:00:00Z&to=2026-03-09T12:00:00Z", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for inverted range", w.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	router, store := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	rec := &database.ReportRecord{
		JobID:      "job-1",
		ResumeID:   "resume-1",
		ReportType: "match-analysis",
		Status:     database.StatusCompleted,
		Confidence: 0.9,
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/analytics?jobId=job-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var analytics report.Analytics
	if err := json.Unmarshal(w.Body.Bytes(), &analytics); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if analytics.Total != 1 || analytics.ByStatus[database.StatusCompleted] != 1 {
		t.Fatalf("analytics = %+v", analytics)
	}
}

func TestRecordQualityEndpoint(t *testing.T) {
	mon := newTestMonitor()
	router, _ := newTestRouter(t, mon, &fakeArtifactStore{verifyOK: true})

	body := strings.NewReader(`{
		"qualityScore": 4.5,
		"completeness": 5,
		"accuracy": 4,
		"relevance": 5,
		"clarity": 4,
		"actionability": 4.5,
		"reviewerFeedback": "solid report"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/7/quality", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	// The sample must be visible to the health evaluation immediately.
	health := mon.SystemHealth()
	if health.QualitySamples != 1 {
		t.Fatalf("quality samples = %d, want 1", health.QualitySamples)
	}
	if health.AverageQuality != 4.5 {
		t.Fatalf("average quality = %v, want 4.5", health.AverageQuality)
	}
}

func TestRecordQualityEndpointRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/not-a-number/quality",
		strings.NewReader(`{"qualityScore": 4}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad id", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/reports/7/quality",
		strings.NewReader(`{"qualityScore": 9}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for out-of-range score", w.Code)
	}
}

func TestArtifactEndpoint(t *testing.T) {
	router, store := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	rec := &database.ReportRecord{
		JobID:        "job-1",
		ResumeID:     "resume-1",
		ReportType:   "match-analysis",
		Status:       database.StatusCompleted,
		BlobLocation: "reports/job-1/resume-1/a.md",
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/reports/%d/artifact", rec.ID), nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL              string `json:"url"`
		ExpiresInSeconds int    `json:"expiresInSeconds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.URL, rec.BlobLocation) {
		t.Fatalf("url = %q, want blob location embedded", resp.URL)
	}
	if resp.ExpiresInSeconds != 900 {
		t.Fatalf("expiry = %d, want 900", resp.ExpiresInSeconds)
	}
}

func TestArtifactEndpointMissingReport(t *testing.T) {
	router, _ := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reports/999/artifact", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestArtifactEndpointIntegrityFailure(t *testing.T) {
	router, store := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: false})

	rec := &database.ReportRecord{
		JobID:        "job-1",
		ResumeID:     "resume-1",
		ReportType:   "match-analysis",
		Status:       database.StatusCompleted,
		BlobLocation: "reports/job-1/resume-1/a.md",
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/reports/%d/artifact", rec.ID), nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 for corrupted artifact", w.Code)
	}
}

func TestArtifactEndpointWithoutBlob(t *testing.T) {
	router, store := newTestRouter(t, newTestMonitor(), &fakeArtifactStore{verifyOK: true})

	rec := &database.ReportRecord{
		JobID:      "job-1",
		ResumeID:   "resume-1",
		ReportType: "match-analysis",
		Status:     database.StatusFailed,
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/reports/%d/artifact", rec.ID), nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 for missing artifact", w.Code)
	}
}

func TestArtifactEndpointStoreUnavailable(t *testing.T) {
	blobs := &fakeArtifactStore{verifyErr: fmt.Errorf("stat object: connection refused")}
	router, store := newTestRouter(t, newTestMonitor(), blobs)

	rec := &database.ReportRecord{
		JobID:        "job-1",
		ResumeID:     "resume-1",
		ReportType:   "match-analysis",
		Status:       database.StatusCompleted,
		BlobLocation: "reports/job-1/resume-1/a.md",
	}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/reports/%d/artifact", rec.ID), nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 when the blob store is unreachable", w.Code)
	}
}
