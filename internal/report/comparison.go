package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reportforge/internal/render"
	"reportforge/internal/storage"
)

// GenerateComparison produces a cross-candidate comparison artifact for a
// job from already-completed individual reports. Precondition failures
// (fewer than two completed reports) surface directly to the caller and do
// not touch any record status.
func (p *Pipeline) GenerateComparison(ctx context.Context, jobID string, limit int) (*storage.BlobInfo, error) {
	records, err := p.store.FindCompletedByJob(ctx, jobID, limit)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, NewError(KindInsufficientCandidates,
			fmt.Sprintf("job %s has %d completed reports, need at least 2", jobID, len(records)), nil)
	}

	var sb strings.Builder
	sb.WriteString("Write a comparative analysis of the following scored candidates in markdown.\n")
	fmt.Fprintf(&sb, "Job: %s. Candidates: %d.\n", jobID, len(records))
	candidates := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		fmt.Fprintf(&sb, "- Candidate %s: recommendation %s, confidence %.2f. Summary: %s\n",
			rec.ResumeID, rec.Recommendation, rec.Confidence, rec.Summary)
		candidates = append(candidates, map[string]any{
			"resumeId":     rec.ResumeID,
			"overallScore": fmt.Sprintf("%.0f", rec.Confidence*100),
			"decision":     ParseDecision(rec.Recommendation).Label(),
		})
	}
	sb.WriteString("Rank the candidates and explain the trade-offs.\n")

	narrative, err := p.gen.Generate(ctx, sb.String())
	if err != nil {
		return nil, NewError(KindUpstreamGeneration, "content generator", err)
	}

	md, err := render.Markdown(render.TemplateComparison, map[string]any{
		"jobId":          jobID,
		"candidateCount": len(records),
		"generatedAt":    p.now().UTC().Format(time.RFC3339),
		"candidates":     candidates,
		"narrative":      narrative,
	})
	if err != nil {
		return nil, NewError(KindInternal, "render comparison", err)
	}

	objectName := fmt.Sprintf("reports/%s/comparison/%s.md", jobID, uuid.NewString())
	blob, err := p.blobs.Save(ctx, objectName, []byte(md), "text/markdown", map[string]string{
		"Report-Type": "comparison",
		"Job-Id":      jobID,
	})
	if err != nil {
		return nil, NewError(KindStorage, "persist comparison artifact", err)
	}
	return blob, nil
}

// GenerateInterviewGuide produces an interview preparation artifact for one
// candidate from their completed report. A missing report is a
// RecordNotFound precondition error; record status is never modified.
func (p *Pipeline) GenerateInterviewGuide(ctx context.Context, jobID, resumeID, reportType string) (*storage.BlobInfo, error) {
	rec, err := p.store.FindByKey(ctx, jobID, resumeID, reportType)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Write an interview guide in markdown for candidate %s applying to job %s. "+
			"Recommendation so far: %s (confidence %.2f). Report summary: %s\n"+
			"Suggest focused interview questions that validate strengths and probe concerns.",
		resumeID, jobID, ParseDecision(rec.Recommendation).Label(), rec.Confidence, rec.Summary,
	)
	narrative, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, NewError(KindUpstreamGeneration, "content generator", err)
	}

	md, err := render.Markdown(render.TemplateInterviewGuide, map[string]any{
		"jobId":       jobID,
		"resumeId":    resumeID,
		"generatedAt": p.now().UTC().Format(time.RFC3339),
		"narrative":   narrative,
	})
	if err != nil {
		return nil, NewError(KindInternal, "render interview guide", err)
	}

	objectName := fmt.Sprintf("reports/%s/%s/interview-guide-%s.md", jobID, resumeID, uuid.NewString())
	blob, err := p.blobs.Save(ctx, objectName, []byte(md), "text/markdown", map[string]string{
		"Report-Type": "interview-guide",
		"Job-Id":      jobID,
		"Resume-Id":   resumeID,
	})
	if err != nil {
		return nil, NewError(KindStorage, "persist interview guide artifact", err)
	}
	return blob, nil
}
