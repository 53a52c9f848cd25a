package report

import (
	"strings"
	"testing"
	"time"

	"reportforge/internal/events"
)

func testScore() *events.ScoreDTO {
	return &events.ScoreDTO{
		OverallScore:    87.5,
		SkillsScore:     90,
		ExperienceScore: 85,
		EducationScore:  80,
		Breakdown: events.ScoreBreakdown{
			SkillsMatch:     90,
			ExperienceMatch: 85,
			EducationMatch:  80,
			OverallFit:      87.5,
		},
		MatchingSkills: []events.MatchingSkill{
			{Skill: "Go", MatchScore: 95, MatchType: "exact", Explanation: "five years of production Go"},
		},
		Recommendations: events.Recommendations{
			Decision:    "hire",
			Reasoning:   "strong technical match",
			Strengths:   []string{"distributed systems", "Go", "mentoring"},
			Concerns:    []string{"no frontend experience"},
			Suggestions: []string{"pair with a frontend engineer"},
		},
		AnalysisConfidence: 0.92,
	}
}

func TestBuildPromptIncludesScoreDetail(t *testing.T) {
	prompt := buildPrompt(Request{
		JobID:      "job-1",
		ResumeID:   "resume-1",
		ReportType: events.ReportTypeMatchAnalysis,
		Score:      testScore(),
		JobData:    map[string]any{"title": "Backend Engineer"},
		ResumeData: map[string]any{"name": "Ada"},
	})

	for _, want := range []string{"87.5%", "Hire", "distributed systems", "no frontend experience", "Go", "Backend Engineer", "Ada"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptDegradesWithoutPayloads(t *testing.T) {
	prompt := buildPrompt(Request{JobID: "job-1", ResumeID: "resume-1"})
	if !strings.Contains(prompt, "job-1") || !strings.Contains(prompt, "resume-1") {
		t.Fatalf("prompt must still identify the pair:\n%s", prompt)
	}
	if strings.Contains(prompt, "Overall match score") {
		t.Fatal("score section must be omitted when scoreDto is absent")
	}
}

func TestBuildVars(t *testing.T) {
	vars := buildVars(Request{
		JobID:    "job-1",
		ResumeID: "resume-1",
		Score:    testScore(),
	}, "the narrative", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	if vars["overallScore"] != "87.5" {
		t.Fatalf("overallScore = %v", vars["overallScore"])
	}
	if vars["decision"] != "Hire" {
		t.Fatalf("decision = %v", vars["decision"])
	}
	breakdown, ok := vars["breakdown"].(map[string]any)
	if !ok || breakdown["skillsMatch"] != "90.0" {
		t.Fatalf("breakdown = %v", vars["breakdown"])
	}
	skills, ok := vars["matchingSkills"].([]map[string]any)
	if !ok || len(skills) != 1 || skills[0]["skill"] != "Go" {
		t.Fatalf("matchingSkills = %v", vars["matchingSkills"])
	}
}

func TestExecutiveSummaryTruncatesLongNarrative(t *testing.T) {
	narrative := strings.Repeat("analysis of the candidate profile ", 40)
	sum := ExecutiveSummary(narrative, testScore())

	if len(sum) > summaryMaxLen+3 {
		t.Fatalf("summary too long: %d chars", len(sum))
	}
	if !strings.HasSuffix(sum, "...") {
		t.Fatalf("truncated summary must end with ellipsis: %q", sum)
	}
	if strings.HasSuffix(strings.TrimSuffix(sum, "..."), " ") {
		t.Fatalf("summary must cut on a word boundary: %q", sum)
	}
}

func TestExecutiveSummarySynthesizesWhenShort(t *testing.T) {
	sum := ExecutiveSummary("too short", testScore())

	for _, want := range []string{"88%", "Hire", "distributed systems", "no frontend experience"} {
		if !strings.Contains(sum, want) {
			t.Errorf("synthesized summary missing %q: %q", want, sum)
		}
	}
	if strings.Contains(sum, "mentoring") {
		t.Errorf("only the top two strengths belong in the summary: %q", sum)
	}
}

func TestExecutiveSummaryWithoutScore(t *testing.T) {
	if got := ExecutiveSummary("short narrative", nil); got != "short narrative" {
		t.Fatalf("got %q", got)
	}
	if got := ExecutiveSummary("", nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
