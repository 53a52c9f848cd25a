package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reportforge/internal/api/middleware"
	"reportforge/internal/database"
	"reportforge/internal/monitor"
	"reportforge/internal/report"
)

// Presigned artifact links stay valid long enough for a reviewer to follow
// them, not long enough to circulate.
const presignTTL = 15 * time.Minute

// ArtifactStore is the ops surface's view of blob storage.
type ArtifactStore interface {
	VerifyIntegrity(ctx context.Context, objectKey string) (bool, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// OpsHandler exposes the monitoring engine over the ops listener.
type OpsHandler struct {
	mon   *monitor.Monitor
	store *report.Store
	blobs ArtifactStore
}

// NewOpsHandler wires the ops endpoints.
func NewOpsHandler(mon *monitor.Monitor, store *report.Store, blobs ArtifactStore) *OpsHandler {
	return &OpsHandler{mon: mon, store: store, blobs: blobs}
}

// Health reports the trailing-hour system health. Unhealthy answers 503 so
// load balancer checks can act on it.
func (h *OpsHandler) Health(c *gin.Context) {
	health := h.mon.SystemHealth()
	status := http.StatusOK
	if health.Status == monitor.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// Performance returns the aggregated summary for a date range
// (?from=RFC3339&to=RFC3339, defaulting to the trailing 24 hours).
func (h *OpsHandler) Performance(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		Error(c, http.StatusBadRequest, "date range is inverted")
		return
	}

	c.JSON(http.StatusOK, h.mon.PerformanceSummary(from, to))
}

type qualityReviewRequest struct {
	QualityScore     float64 `json:"qualityScore" binding:"required"`
	Completeness     float64 `json:"completeness"`
	Accuracy         float64 `json:"accuracy"`
	Relevance        float64 `json:"relevance"`
	Clarity          float64 `json:"clarity"`
	Actionability    float64 `json:"actionability"`
	ReviewerFeedback string  `json:"reviewerFeedback"`
}

// RecordQuality accepts a reviewer rating for a generated report, persists
// it and mirrors it into the monitoring engine so the health evaluation
// sees fresh samples.
func (h *OpsHandler) RecordQuality(c *gin.Context) {
	reportID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid report id")
		return
	}

	var req qualityReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid quality review payload")
		return
	}
	for _, score := range []float64{req.QualityScore, req.Completeness, req.Accuracy, req.Relevance, req.Clarity, req.Actionability} {
		if score < 0 || score > 5 {
			Error(c, http.StatusBadRequest, "scores must be within [0, 5]")
			return
		}
	}

	now := time.Now().UTC()
	review := &database.QualityReview{
		ReportID:         uint(reportID),
		QualityScore:     req.QualityScore,
		Completeness:     req.Completeness,
		Accuracy:         req.Accuracy,
		Relevance:        req.Relevance,
		Clarity:          req.Clarity,
		Actionability:    req.Actionability,
		ReviewerFeedback: req.ReviewerFeedback,
		ReviewedAt:       now,
	}
	if err := h.store.CreateQualityReview(c.Request.Context(), review); err != nil {
		Error(c, http.StatusInternalServerError, "persist quality review failed")
		return
	}

	h.mon.RecordQuality(monitor.QualityMetric{
		ReportID:     uint(reportID),
		QualityScore: req.QualityScore,
		Criteria: monitor.CriteriaScores{
			Completeness:  req.Completeness,
			Accuracy:      req.Accuracy,
			Relevance:     req.Relevance,
			Clarity:       req.Clarity,
			Actionability: req.Actionability,
		},
		ReviewerFeedback: req.ReviewerFeedback,
		Timestamp:        now,
	})

	c.JSON(http.StatusCreated, gin.H{"reviewId": review.ID})
}

// Artifact checks a stored report artifact against its recorded content
// hash and answers a time-limited download link for it.
func (h *OpsHandler) Artifact(c *gin.Context) {
	log := middleware.LoggerFromContext(c)

	reportID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid report id")
		return
	}

	rec, err := h.store.FindByID(c.Request.Context(), uint(reportID))
	if err != nil {
		if report.KindOf(err) == report.KindRecordNotFound {
			Error(c, http.StatusNotFound, "report not found")
			return
		}
		Error(c, http.StatusInternalServerError, "load report failed")
		return
	}
	if rec.BlobLocation == "" {
		Error(c, http.StatusConflict, "report has no stored artifact")
		return
	}

	ok, err := h.blobs.VerifyIntegrity(c.Request.Context(), rec.BlobLocation)
	if err != nil {
		log.Error("artifact integrity check failed", slog.Any("error", err))
		Error(c, http.StatusBadGateway, "artifact store unavailable")
		return
	}
	if !ok {
		log.Warn("artifact failed integrity verification",
			slog.Uint64("report_id", reportID),
			slog.String("blob_location", rec.BlobLocation),
		)
		Error(c, http.StatusConflict, "artifact failed integrity verification")
		return
	}

	link, err := h.blobs.GeneratePresignedURL(c.Request.Context(), rec.BlobLocation, presignTTL)
	if err != nil {
		log.Error("presign artifact failed", slog.Any("error", err))
		Error(c, http.StatusInternalServerError, "presign artifact failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":              link,
		"expiresInSeconds": int(presignTTL.Seconds()),
	})
}

// Analytics returns stored-report aggregates, optionally filtered by
// ?jobId=&reportType=&since=RFC3339.
func (h *OpsHandler) Analytics(c *gin.Context) {
	filters := report.AnalyticsFilters{
		JobID:      c.Query("jobId"),
		ReportType: c.Query("reportType"),
	}
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		filters.Since = parsed
	}

	analytics, err := h.store.ComputeAnalytics(c.Request.Context(), filters)
	if err != nil {
		Error(c, http.StatusInternalServerError, "analytics aggregation failed")
		return
	}
	c.JSON(http.StatusOK, analytics)
}
