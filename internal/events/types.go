package events

import "time"

// Report variants a request may ask for.
const (
	ReportTypeMatchAnalysis    = "match-analysis"
	ReportTypeCandidateSummary = "candidate-summary"
	ReportTypeFullReport       = "full-report"
)

// ScoreBreakdown carries the per-dimension match percentages.
type ScoreBreakdown struct {
	SkillsMatch     float64 `json:"skillsMatch"`
	ExperienceMatch float64 `json:"experienceMatch"`
	EducationMatch  float64 `json:"educationMatch"`
	OverallFit      float64 `json:"overallFit"`
}

// MatchingSkill describes how one skill of the candidate matched the job.
type MatchingSkill struct {
	Skill       string  `json:"skill"`
	MatchScore  float64 `json:"matchScore"`
	MatchType   string  `json:"matchType"` // exact|partial|related|missing
	Explanation string  `json:"explanation"`
}

// Recommendations is the scorer's hiring advice block.
type Recommendations struct {
	Decision    string   `json:"decision"`
	Reasoning   string   `json:"reasoning"`
	Strengths   []string `json:"strengths"`
	Concerns    []string `json:"concerns"`
	Suggestions []string `json:"suggestions"`
}

// ScoreDTO is the scorer's full output for one (job, resume) pair.
type ScoreDTO struct {
	OverallScore       float64         `json:"overallScore"`
	SkillsScore        float64         `json:"skillsScore"`
	ExperienceScore    float64         `json:"experienceScore"`
	EducationScore     float64         `json:"educationScore"`
	Breakdown          ScoreBreakdown  `json:"breakdown"`
	MatchingSkills     []MatchingSkill `json:"matchingSkills"`
	Recommendations    Recommendations `json:"recommendations"`
	AnalysisConfidence float64         `json:"analysisConfidence"`
	ProcessingTimeMs   int64           `json:"processingTimeMs"`
	ScoredAt           time.Time       `json:"scoredAt"`
}

// EventMetadata carries optional request provenance on inbound events.
type EventMetadata struct {
	RequestedBy string    `json:"requestedBy,omitempty"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
	ReportType  string    `json:"reportType,omitempty"`
}

// MatchScored is the primary inbound event: a candidate has been scored
// against a job and a report should be assembled.
type MatchScored struct {
	JobID      string          `json:"jobId"`
	ResumeID   string          `json:"resumeId"`
	Score      *ScoreDTO       `json:"scoreDto"`
	JobData    map[string]any  `json:"jobData,omitempty"`
	ResumeData map[string]any  `json:"resumeData,omitempty"`
	Metadata   *EventMetadata  `json:"metadata,omitempty"`
}

// ReportGenerationRequested asks for an ad hoc (re)generation of a report.
type ReportGenerationRequested struct {
	JobID       string    `json:"jobId"`
	ResumeID    string    `json:"resumeId"`
	ReportType  string    `json:"reportType"`
	RequestedBy string    `json:"requestedBy,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReportGenerated is published downstream after a successful run.
type ReportGenerated struct {
	JobID            string    `json:"jobId"`
	ResumeID         string    `json:"resumeId"`
	ReportID         uint      `json:"reportId"`
	ReportType       string    `json:"reportType"`
	BlobLocation     string    `json:"blobLocation"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
}

// ReportGenerationFailed is published downstream after a terminal failure.
// ErrorCode follows the errcode convention (4xxx recoverable, 5xxx system).
// RetryCount is always 0; redelivery is owned by the bus, not tracked here.
type ReportGenerationFailed struct {
	JobID      string    `json:"jobId"`
	ResumeID   string    `json:"resumeId"`
	ReportType string    `json:"reportType"`
	Error      string    `json:"error"`
	ErrorCode  int       `json:"errorCode"`
	RetryCount int       `json:"retryCount"`
	Timestamp  time.Time `json:"timestamp"`
}
