package report

import (
	"fmt"
	"strings"
	"time"

	"reportforge/internal/events"
	"reportforge/internal/render"
)

// Request describes one report generation.
type Request struct {
	JobID         string
	ResumeID      string
	ReportType    string
	OutputFormat  string
	RequestedBy   string
	CorrelationID string
	Score         *events.ScoreDTO
	JobData       map[string]any
	ResumeData    map[string]any
}

const summaryMaxLen = 500

// buildPrompt assembles the generation context handed to the content
// generator. Missing job/resume payloads degrade gracefully: the prompt is
// built from whatever data is present.
func buildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("Write a structured candidate match analysis report in markdown.\n")
	fmt.Fprintf(&sb, "Report type: %s. Job: %s. Candidate: %s.\n", req.ReportType, req.JobID, req.ResumeID)

	if s := req.Score; s != nil {
		fmt.Fprintf(&sb, "Overall match score: %.1f%% (skills %.1f, experience %.1f, education %.1f).\n",
			s.OverallScore, s.SkillsScore, s.ExperienceScore, s.EducationScore)
		fmt.Fprintf(&sb, "Breakdown: skills match %.1f%%, experience match %.1f%%, education match %.1f%%, overall fit %.1f%%.\n",
			s.Breakdown.SkillsMatch, s.Breakdown.ExperienceMatch, s.Breakdown.EducationMatch, s.Breakdown.OverallFit)

		decision := ParseDecision(s.Recommendations.Decision)
		fmt.Fprintf(&sb, "Recommendation: %s. Reasoning: %s\n", decision.Label(), s.Recommendations.Reasoning)
		if len(s.Recommendations.Strengths) > 0 {
			fmt.Fprintf(&sb, "Strengths: %s.\n", strings.Join(s.Recommendations.Strengths, "; "))
		}
		if len(s.Recommendations.Concerns) > 0 {
			fmt.Fprintf(&sb, "Concerns: %s.\n", strings.Join(s.Recommendations.Concerns, "; "))
		}
		if len(s.MatchingSkills) > 0 {
			sb.WriteString("Skill matches:\n")
			for _, skill := range s.MatchingSkills {
				fmt.Fprintf(&sb, "- %s (%s, %.1f%%): %s\n", skill.Skill, skill.MatchType, skill.MatchScore, skill.Explanation)
			}
		}
	}

	if title, ok := req.JobData["title"]; ok {
		fmt.Fprintf(&sb, "Job title: %v.\n", title)
	}
	if desc, ok := req.JobData["description"]; ok {
		fmt.Fprintf(&sb, "Job description: %v\n", desc)
	}
	if name, ok := req.ResumeData["name"]; ok {
		fmt.Fprintf(&sb, "Candidate name: %v.\n", name)
	}
	if summary, ok := req.ResumeData["summary"]; ok {
		fmt.Fprintf(&sb, "Candidate summary: %v\n", summary)
	}

	sb.WriteString("Cover the score breakdown, skill fit, notable strengths, concerns, and a hiring recommendation.\n")
	return sb.String()
}

// buildVars produces the template variable bag for the individual report.
func buildVars(req Request, narrative string, generatedAt time.Time) map[string]any {
	vars := map[string]any{
		"jobId":       req.JobID,
		"resumeId":    req.ResumeID,
		"reportType":  req.ReportType,
		"generatedAt": generatedAt.UTC().Format(time.RFC3339),
		"narrative":   narrative,
	}

	s := req.Score
	if s == nil {
		return vars
	}

	vars["overallScore"] = fmt.Sprintf("%.1f", s.OverallScore)
	vars["confidence"] = fmt.Sprintf("%.2f", s.AnalysisConfidence)
	vars["decision"] = ParseDecision(s.Recommendations.Decision).Label()
	vars["summary"] = ExecutiveSummary(narrative, s)
	vars["breakdown"] = map[string]any{
		"skillsMatch":     fmt.Sprintf("%.1f", s.Breakdown.SkillsMatch),
		"experienceMatch": fmt.Sprintf("%.1f", s.Breakdown.ExperienceMatch),
		"educationMatch":  fmt.Sprintf("%.1f", s.Breakdown.EducationMatch),
		"overallFit":      fmt.Sprintf("%.1f", s.Breakdown.OverallFit),
	}

	skills := make([]map[string]any, 0, len(s.MatchingSkills))
	for _, skill := range s.MatchingSkills {
		skills = append(skills, map[string]any{
			"skill":       skill.Skill,
			"matchScore":  fmt.Sprintf("%.1f", skill.MatchScore),
			"matchType":   skill.MatchType,
			"explanation": skill.Explanation,
		})
	}
	vars["matchingSkills"] = skills
	vars["strengths"] = s.Recommendations.Strengths
	vars["concerns"] = s.Recommendations.Concerns
	vars["suggestions"] = s.Recommendations.Suggestions

	return vars
}

// templateFor maps a report type to its rendering template. All single
// candidate variants share the individual template; comparison and interview
// guide runs pick their templates explicitly.
func templateFor(string) string {
	return render.TemplateIndividual
}

// ExecutiveSummary derives the record's summary string: the narrative's
// leading text when long enough to stand alone, otherwise a synthesized
// sentence referencing score, decision, top strengths and leading concern.
func ExecutiveSummary(narrative string, score *events.ScoreDTO) string {
	trimmed := strings.TrimSpace(narrative)
	if len(trimmed) >= summaryMaxLen {
		cut := trimmed[:summaryMaxLen]
		if idx := strings.LastIndexByte(cut, ' '); idx > summaryMaxLen/2 {
			cut = cut[:idx]
		}
		return cut + "..."
	}
	if trimmed != "" && score == nil {
		return trimmed
	}
	if score == nil {
		return ""
	}

	decision := ParseDecision(score.Recommendations.Decision)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate scored %.0f%% overall; recommendation: %s.", score.OverallScore, decision.Label())
	if n := len(score.Recommendations.Strengths); n > 0 {
		top := score.Recommendations.Strengths
		if n > 2 {
			top = top[:2]
		}
		fmt.Fprintf(&sb, " Key strengths: %s.", strings.Join(top, ", "))
	}
	if len(score.Recommendations.Concerns) > 0 {
		fmt.Fprintf(&sb, " Main concern: %s.", score.Recommendations.Concerns[0])
	}
	return sb.String()
}
