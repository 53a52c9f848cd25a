package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Report lifecycle states. Terminal states are never re-entered by the
// same event; transitions go pending -> processing -> completed|failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ReportRecord is the metadata row describing one generated analysis report.
// Unique per (job, resume, report type); the blob itself lives in object storage.
type ReportRecord struct {
	gorm.Model
	JobID            string         `gorm:"size:64;uniqueIndex:idx_job_resume_type"`
	ResumeID         string         `gorm:"size:64;uniqueIndex:idx_job_resume_type"`
	ReportType       string         `gorm:"size:32;uniqueIndex:idx_job_resume_type"`
	ScoreBreakdown   datatypes.JSON `gorm:"type:jsonb"`
	SkillsAnalysis   datatypes.JSON `gorm:"type:jsonb"`
	Recommendation   string         `gorm:"size:32"`
	Summary          string         `gorm:"size:1024"`
	Confidence       float64
	ProcessingTimeMs int64
	Status           string `gorm:"size:32;index"`
	ErrorMessage     string `gorm:"size:1024"`
	GeneratedBy      string `gorm:"size:128"`
	ModelID          string `gorm:"size:128"`
	BlobLocation     string `gorm:"size:512"`
	GeneratedAt      time.Time
}

// QualityReview stores a reviewer's 0-5 rating of a generated report along
// the five assessment criteria. Correlated with ReportRecord by ReportID.
type QualityReview struct {
	gorm.Model
	ReportID         uint `gorm:"index"`
	QualityScore     float64
	Completeness     float64
	Accuracy         float64
	Relevance        float64
	Clarity          float64
	Actionability    float64
	ReviewerFeedback string `gorm:"size:2048"`
	ReviewedAt       time.Time
}
