package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"reportforge/internal/database"
	"reportforge/internal/events"
	"reportforge/internal/generator"
	"reportforge/internal/monitor"
	"reportforge/internal/render"
	"reportforge/internal/storage"
)

// MetadataStore is the pipeline's view of report persistence.
type MetadataStore interface {
	Create(ctx context.Context, rec *database.ReportRecord) error
	Update(ctx context.Context, id uint, patch map[string]any) error
	FindByKey(ctx context.Context, jobID, resumeID, reportType string) (*database.ReportRecord, error)
	FindCompletedByJob(ctx context.Context, jobID string, limit int) ([]database.ReportRecord, error)
}

// BlobStore is the pipeline's view of artifact storage.
type BlobStore interface {
	Save(ctx context.Context, objectName string, data []byte, contentType string, metadata map[string]string) (*storage.BlobInfo, error)
	Delete(ctx context.Context, objectName string) error
}

// Pipeline orchestrates report assembly: content generation, artifact
// rendering, blob persistence and metadata updates, with an advisory
// elapsed-time budget check between stages.
type Pipeline struct {
	store    MetadataStore
	blobs    BlobStore
	gen      generator.ContentGenerator
	pdf      render.PDFRenderer
	mon      *monitor.Monitor
	contract Contract
	budget   time.Duration
	batchCap int
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(
	store MetadataStore,
	blobs BlobStore,
	gen generator.ContentGenerator,
	pdf render.PDFRenderer,
	mon *monitor.Monitor,
	contract Contract,
	budget time.Duration,
	batchConcurrency int,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if batchConcurrency <= 0 {
		batchConcurrency = 3
	}
	return &Pipeline{
		store:    store,
		blobs:    blobs,
		gen:      gen,
		pdf:      pdf,
		mon:      mon,
		contract: contract,
		budget:   budget,
		batchCap: batchConcurrency,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate runs the full pipeline for one request. The record moves
// pending -> processing -> completed|failed; no transition is skipped. A
// record already in a terminal state is returned as-is unless the request
// asks for regeneration.
func (p *Pipeline) Generate(ctx context.Context, req Request, regenerate bool) (*database.ReportRecord, error) {
	if req.ReportType == "" {
		req.ReportType = events.ReportTypeMatchAnalysis
	}
	if req.OutputFormat == "" {
		req.OutputFormat = render.FormatMarkdown
	}

	log := p.logger.With(
		slog.String("correlation_id", req.CorrelationID),
		slog.String("job_id", req.JobID),
		slog.String("resume_id", req.ResumeID),
		slog.String("report_type", req.ReportType),
	)

	started := p.now()
	opID := p.mon.StartOperation("report_generation", monitor.SpanMetadata{
		ReportType:   req.ReportType,
		JobID:        req.JobID,
		ResumeID:     req.ResumeID,
		OutputFormat: req.OutputFormat,
		ModelID:      p.gen.ModelID(),
	})

	rec, err := p.activateRecord(ctx, req, regenerate)
	if err != nil {
		p.mon.EndOperation(opID, false, err.Error(), nil)
		return nil, err
	}
	if rec.Status == database.StatusCompleted {
		// Terminal record, no regeneration requested: idempotent no-op.
		p.mon.EndOperation(opID, true, "", nil)
		log.Info("report already completed, skipping")
		return rec, nil
	}

	blob, err := p.assemble(ctx, req, rec, started)
	if err != nil {
		elapsed := p.now().Sub(started).Milliseconds()
		if updateErr := p.store.Update(ctx, rec.ID, map[string]any{
			"status":             database.StatusFailed,
			"error_message":      err.Error(),
			"processing_time_ms": elapsed,
		}); updateErr != nil {
			log.Error("mark report failed", slog.Any("error", updateErr))
		}
		p.mon.EndOperation(opID, false, err.Error(), nil)
		log.Error("report generation failed",
			slog.String("error_kind", string(KindOf(err))),
			slog.Any("error", err),
		)
		return nil, err
	}

	rec.Status = database.StatusCompleted
	rec.BlobLocation = blob.Location

	p.mon.EndOperation(opID, true, "", &monitor.SpanMetadata{
		Confidence: rec.Confidence,
		FileSize:   blob.Size,
	})
	log.Info("report generation completed",
		slog.String("blob_location", blob.Location),
		slog.Int64("processing_time_ms", rec.ProcessingTimeMs),
		slog.Int64("artifact_bytes", blob.Size),
	)
	return rec, nil
}

// activateRecord creates (or reuses) the metadata record and atomically
// enters the processing state.
func (p *Pipeline) activateRecord(ctx context.Context, req Request, regenerate bool) (*database.ReportRecord, error) {
	rec, err := p.store.FindByKey(ctx, req.JobID, req.ResumeID, req.ReportType)
	switch {
	case err == nil:
		// Terminal completed records are not re-entered by the same event;
		// failed records are retried on redelivery.
		if !regenerate && rec.Status == database.StatusCompleted {
			return rec, nil
		}
	case KindOf(err) == KindRecordNotFound:
		rec = &database.ReportRecord{
			JobID:      req.JobID,
			ResumeID:   req.ResumeID,
			ReportType: req.ReportType,
			Status:     database.StatusPending,
		}
		if err := p.store.Create(ctx, rec); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := p.store.Update(ctx, rec.ID, map[string]any{
		"status":        database.StatusProcessing,
		"error_message": "",
	}); err != nil {
		return nil, err
	}
	rec.Status = database.StatusProcessing
	return rec, nil
}

// assemble runs stages 1-5: context build, generation, rendering, blob
// write, metadata write. Each stage boundary re-checks the elapsed budget.
func (p *Pipeline) assemble(ctx context.Context, req Request, rec *database.ReportRecord, started time.Time) (*storage.BlobInfo, error) {
	prompt := buildPrompt(req)
	if err := p.checkBudget(started); err != nil {
		return nil, err
	}

	// The generator call gets a deadline equal to the remaining budget;
	// blob and metadata writes are short and stay uncancelled.
	genCtx, cancel := context.WithDeadline(ctx, started.Add(p.budget))
	narrative, err := p.gen.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		return nil, NewError(KindUpstreamGeneration, "content generator", err)
	}
	if err := p.checkBudget(started); err != nil {
		return nil, err
	}

	generatedAt := p.now()
	vars := buildVars(req, narrative, generatedAt)
	data, mimeType, pages, err := p.renderArtifact(ctx, req, vars)
	if err != nil {
		return nil, err
	}

	// Quality gate applies to the paginated analysis-report artifact, where
	// the byte and page bounds describe a printable document. Markdown and
	// json renditions of the same content sit well below the print size
	// floor and are not gated.
	if req.ReportType == events.ReportTypeMatchAnalysis && req.OutputFormat == render.FormatPDF {
		if err := p.contract.Validate(int64(len(data)), pages); err != nil {
			return nil, err
		}
	}
	if err := p.checkBudget(started); err != nil {
		return nil, err
	}

	generatedBy := req.RequestedBy
	if generatedBy == "" {
		generatedBy = "reportforge"
	}

	objectName := fmt.Sprintf("reports/%s/%s/%s%s", req.JobID, req.ResumeID, uuid.NewString(), extensionFor(req.OutputFormat))
	blob, err := p.blobs.Save(ctx, objectName, data, mimeType, map[string]string{
		"Report-Type":  req.ReportType,
		"Job-Id":       req.JobID,
		"Resume-Id":    req.ResumeID,
		"Generated-By": generatedBy,
		"Encoding":     "utf-8",
	})
	if err != nil {
		return nil, NewError(KindStorage, "persist report artifact", err)
	}
	if err := p.checkBudget(started); err != nil {
		p.discardBlob(ctx, objectName)
		return nil, err
	}

	// elapsed is computed once here so the stored row, the returned record
	// and the published event all carry the same number.
	elapsed := p.now().Sub(started).Milliseconds()
	patch := map[string]any{
		"status":             database.StatusCompleted,
		"blob_location":      blob.Location,
		"summary":            ExecutiveSummary(narrative, req.Score),
		"generated_by":       generatedBy,
		"model_id":           p.gen.ModelID(),
		"generated_at":       generatedAt,
		"processing_time_ms": elapsed,
	}
	if req.Score != nil {
		breakdown, err := marshalJSONColumn(req.Score.Breakdown)
		if err != nil {
			return nil, err
		}
		skills, err := marshalJSONColumn(req.Score.MatchingSkills)
		if err != nil {
			return nil, err
		}
		patch["score_breakdown"] = breakdown
		patch["skills_analysis"] = skills
		patch["recommendation"] = ParseDecision(req.Score.Recommendations.Decision).String()
		patch["confidence"] = req.Score.AnalysisConfidence
		rec.Confidence = req.Score.AnalysisConfidence
	}
	if err := p.store.Update(ctx, rec.ID, patch); err != nil {
		p.discardBlob(ctx, objectName)
		return nil, err
	}
	rec.ProcessingTimeMs = elapsed

	return blob, nil
}

// discardBlob removes an artifact whose metadata never reached the store so
// aborted runs do not leave orphaned objects behind.
func (p *Pipeline) discardBlob(ctx context.Context, objectName string) {
	if err := p.blobs.Delete(ctx, objectName); err != nil {
		p.logger.Warn("discard orphaned artifact failed",
			slog.String("object", objectName),
			slog.Any("error", err),
		)
	}
}

// renderArtifact produces the artifact bytes for the requested output
// format. pages is 0 for unpaginated formats.
func (p *Pipeline) renderArtifact(ctx context.Context, req Request, vars map[string]any) (data []byte, mimeType string, pages int, err error) {
	templateName := templateFor(req.ReportType)
	title := fmt.Sprintf("Candidate Match Report: %s / %s", req.JobID, req.ResumeID)

	switch req.OutputFormat {
	case render.FormatMarkdown:
		md, err := render.Markdown(templateName, vars)
		if err != nil {
			return nil, "", 0, NewError(KindInternal, "render markdown", err)
		}
		return []byte(md), "text/markdown", 0, nil
	case render.FormatHTML:
		html, err := render.HTML(templateName, title, vars)
		if err != nil {
			return nil, "", 0, NewError(KindInternal, "render html", err)
		}
		return []byte(html), "text/html", 0, nil
	case render.FormatJSON:
		data, err := render.JSON(vars)
		if err != nil {
			return nil, "", 0, NewError(KindInternal, "render json", err)
		}
		return data, "application/json", 0, nil
	case render.FormatPDF:
		html, err := render.HTML(templateName, title, vars)
		if err != nil {
			return nil, "", 0, NewError(KindInternal, "render html", err)
		}
		pdfBytes, pageCount, err := p.pdf.RenderPDF(ctx, html)
		if err != nil {
			return nil, "", 0, NewError(KindUpstreamGeneration, "pdf renderer", err)
		}
		return pdfBytes, "application/pdf", pageCount, nil
	default:
		return nil, "", 0, NewError(KindInvalidEvent, fmt.Sprintf("unsupported output format %q", req.OutputFormat), nil)
	}
}

func (p *Pipeline) checkBudget(started time.Time) error {
	if elapsed := p.now().Sub(started); elapsed > p.budget {
		return NewError(KindContractViolation,
			fmt.Sprintf("generation budget exceeded after %s", elapsed.Round(time.Millisecond)), nil)
	}
	return nil
}

func extensionFor(format string) string {
	switch format {
	case render.FormatHTML:
		return ".html"
	case render.FormatJSON:
		return ".json"
	case render.FormatPDF:
		return ".pdf"
	default:
		return ".md"
	}
}

func marshalJSONColumn(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, NewError(KindInternal, "marshal json column", err)
	}
	return datatypes.JSON(data), nil
}
