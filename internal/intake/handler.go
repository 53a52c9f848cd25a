package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"reportforge/internal/database"
	"reportforge/internal/errcode"
	"reportforge/internal/events"
	"reportforge/internal/report"
)

// ReportGenerator is the handler's view of the assembly pipeline.
type ReportGenerator interface {
	Generate(ctx context.Context, req report.Request, regenerate bool) (*database.ReportRecord, error)
}

// Handler validates inbound events, suppresses concurrent duplicates and
// dispatches to the pipeline, emitting outbound events on the way out.
type Handler struct {
	pipeline  ReportGenerator
	guard     *Guard
	publisher events.Publisher
	logger    *slog.Logger
}

// NewHandler wires the intake handler.
func NewHandler(pipeline ReportGenerator, guard *Guard, publisher events.Publisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:  pipeline,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleMatchScored consumes a MatchScored event.
func (h *Handler) HandleMatchScored(ctx context.Context, t *asynq.Task) error {
	correlationID := uuid.NewString()
	log := h.logger.With(slog.String("correlation_id", correlationID))

	var event events.MatchScored
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		log.Error("unmarshal match scored payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal match scored payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := validateMatchScored(event, correlationID); err != nil {
		log.Warn("invalid match scored event, dropping", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	reportType := events.ReportTypeMatchAnalysis
	requestedBy := ""
	if event.Metadata != nil {
		if event.Metadata.ReportType != "" {
			reportType = event.Metadata.ReportType
		}
		requestedBy = event.Metadata.RequestedBy
	}

	req := report.Request{
		JobID:         event.JobID,
		ResumeID:      event.ResumeID,
		ReportType:    reportType,
		RequestedBy:   requestedBy,
		CorrelationID: correlationID,
		Score:         event.Score,
		JobData:       event.JobData,
		ResumeData:    event.ResumeData,
	}
	return h.dispatch(ctx, log, req, false)
}

// HandleReportRequested consumes an explicit generation request.
func (h *Handler) HandleReportRequested(ctx context.Context, t *asynq.Task) error {
	correlationID := uuid.NewString()
	log := h.logger.With(slog.String("correlation_id", correlationID))

	var event events.ReportGenerationRequested
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		log.Error("unmarshal report request payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal report request payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := validateReportRequested(event, correlationID); err != nil {
		log.Warn("invalid report request event, dropping", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	req := report.Request{
		JobID:         event.JobID,
		ResumeID:      event.ResumeID,
		ReportType:    event.ReportType,
		RequestedBy:   event.RequestedBy,
		CorrelationID: correlationID,
	}
	return h.dispatch(ctx, log, req, true)
}

// dispatch guards the request by dedup key, runs the pipeline and publishes
// the outcome. Duplicates in flight are dropped without error so the bus
// does not redeliver them.
func (h *Handler) dispatch(ctx context.Context, log *slog.Logger, req report.Request, regenerate bool) error {
	log = log.With(
		slog.String("job_id", req.JobID),
		slog.String("resume_id", req.ResumeID),
		slog.String("report_type", req.ReportType),
	)

	key := DedupKey(req.JobID, req.ResumeID, req.ReportType)
	if !h.guard.TryAcquire(key) {
		log.Warn("duplicate event while processing in flight, dropping",
			slog.String("dedup_key", key),
			slog.Int("code", errcode.DuplicateSuppressed),
		)
		return nil
	}
	defer h.guard.Release(key)

	rec, err := h.pipeline.Generate(ctx, req, regenerate)
	if err != nil {
		failed := events.ReportGenerationFailed{
			JobID:      req.JobID,
			ResumeID:   req.ResumeID,
			ReportType: req.ReportType,
			Error:      err.Error(),
			ErrorCode:  report.KindOf(err).Code(),
			RetryCount: 0, // redelivery is owned by the bus
			Timestamp:  time.Now().UTC(),
		}
		if pubErr := h.publisher.PublishFailed(ctx, failed); pubErr != nil {
			log.Error("publish failure event failed", slog.Any("error", pubErr))
		}
		if !report.Retryable(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	generated := events.ReportGenerated{
		JobID:            req.JobID,
		ResumeID:         req.ResumeID,
		ReportID:         rec.ID,
		ReportType:       req.ReportType,
		BlobLocation:     rec.BlobLocation,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: rec.ProcessingTimeMs,
	}
	if pubErr := h.publisher.PublishGenerated(ctx, generated); pubErr != nil {
		log.Error("publish completion event failed", slog.Any("error", pubErr))
		return pubErr
	}

	log.Info("report event processed", slog.Uint64("report_id", uint64(rec.ID)))
	return nil
}

func validateMatchScored(event events.MatchScored, correlationID string) error {
	var missing []string
	if strings.TrimSpace(event.JobID) == "" {
		missing = append(missing, "jobId")
	}
	if strings.TrimSpace(event.ResumeID) == "" {
		missing = append(missing, "resumeId")
	}
	if event.Score == nil {
		missing = append(missing, "scoreDto")
	}
	if len(missing) == 0 {
		return nil
	}
	return report.NewError(report.KindInvalidEvent,
		fmt.Sprintf("missing required fields %s (correlation %s)", strings.Join(missing, ", "), correlationID), nil)
}

func validateReportRequested(event events.ReportGenerationRequested, correlationID string) error {
	var missing []string
	if strings.TrimSpace(event.JobID) == "" {
		missing = append(missing, "jobId")
	}
	if strings.TrimSpace(event.ResumeID) == "" {
		missing = append(missing, "resumeId")
	}
	switch event.ReportType {
	case events.ReportTypeMatchAnalysis, events.ReportTypeCandidateSummary, events.ReportTypeFullReport:
	case "":
		missing = append(missing, "reportType")
	default:
		return report.NewError(report.KindInvalidEvent,
			fmt.Sprintf("unknown report type %q (correlation %s)", event.ReportType, correlationID), nil)
	}
	if len(missing) == 0 {
		return nil
	}
	return report.NewError(report.KindInvalidEvent,
		fmt.Sprintf("missing required fields %s (correlation %s)", strings.Join(missing, ", "), correlationID), nil)
}
