package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"reportforge/internal/database"
)

// Store persists report metadata in PostgreSQL through GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an existing GORM handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new report record.
func (s *Store) Create(ctx context.Context, rec *database.ReportRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return NewError(KindStorage, "create report record", err)
	}
	return nil
}

// Update applies a patch to a record by primary key.
func (s *Store) Update(ctx context.Context, id uint, patch map[string]any) error {
	err := s.db.WithContext(ctx).
		Model(&database.ReportRecord{}).
		Where("id = ?", id).
		Updates(patch).Error
	if err != nil {
		return NewError(KindStorage, fmt.Sprintf("update report record %d", id), err)
	}
	return nil
}

// FindByID loads a record by primary key.
func (s *Store) FindByID(ctx context.Context, id uint) (*database.ReportRecord, error) {
	var rec database.ReportRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(KindRecordNotFound, fmt.Sprintf("report %d", id), err)
	}
	if err != nil {
		return nil, NewError(KindStorage, "query report record", err)
	}
	return &rec, nil
}

// FindByKey loads the record for a (job, resume, report type) triple.
func (s *Store) FindByKey(ctx context.Context, jobID, resumeID, reportType string) (*database.ReportRecord, error) {
	var rec database.ReportRecord
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND resume_id = ? AND report_type = ?", jobID, resumeID, reportType).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewError(KindRecordNotFound, fmt.Sprintf("report for job %s resume %s", jobID, resumeID), err)
	}
	if err != nil {
		return nil, NewError(KindStorage, "query report record", err)
	}
	return &rec, nil
}

// FindCompletedByJob lists completed records for a job, newest first.
func (s *Store) FindCompletedByJob(ctx context.Context, jobID string, limit int) ([]database.ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []database.ReportRecord
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND status = ?", jobID, database.StatusCompleted).
		Order("generated_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, NewError(KindStorage, "list completed reports", err)
	}
	return recs, nil
}

// CreateQualityReview persists a reviewer rating.
func (s *Store) CreateQualityReview(ctx context.Context, review *database.QualityReview) error {
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return NewError(KindStorage, "create quality review", err)
	}
	return nil
}

// AnalyticsFilters narrows the Analytics aggregation.
type AnalyticsFilters struct {
	JobID      string
	ReportType string
	Since      time.Time
}

// Analytics summarizes stored records.
type Analytics struct {
	Total               int64            `json:"total"`
	ByStatus            map[string]int64 `json:"byStatus"`
	ByReportType        map[string]int64 `json:"byReportType"`
	AvgConfidence       float64          `json:"avgConfidence"`
	AvgProcessingTimeMs float64          `json:"avgProcessingTimeMs"`
}

// ComputeAnalytics aggregates record counts and averages under the filters.
func (s *Store) ComputeAnalytics(ctx context.Context, filters AnalyticsFilters) (*Analytics, error) {
	base := s.db.WithContext(ctx).Model(&database.ReportRecord{})
	if filters.JobID != "" {
		base = base.Where("job_id = ?", filters.JobID)
	}
	if filters.ReportType != "" {
		base = base.Where("report_type = ?", filters.ReportType)
	}
	if !filters.Since.IsZero() {
		base = base.Where("created_at >= ?", filters.Since)
	}

	out := &Analytics{
		ByStatus:     map[string]int64{},
		ByReportType: map[string]int64{},
	}

	type statusRow struct {
		Status string
		N      int64
	}
	var statusRows []statusRow
	if err := base.Session(&gorm.Session{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, NewError(KindStorage, "aggregate by status", err)
	}
	for _, row := range statusRows {
		out.ByStatus[row.Status] = row.N
		out.Total += row.N
	}

	type typeRow struct {
		ReportType string
		N          int64
	}
	var typeRows []typeRow
	if err := base.Session(&gorm.Session{}).
		Select("report_type, count(*) as n").
		Group("report_type").
		Scan(&typeRows).Error; err != nil {
		return nil, NewError(KindStorage, "aggregate by report type", err)
	}
	for _, row := range typeRows {
		out.ByReportType[row.ReportType] = row.N
	}

	type avgRow struct {
		AvgConfidence float64
		AvgProcessing float64
	}
	var avg avgRow
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", database.StatusCompleted).
		Select("coalesce(avg(confidence), 0) as avg_confidence, coalesce(avg(processing_time_ms), 0) as avg_processing").
		Scan(&avg).Error; err != nil {
		return nil, NewError(KindStorage, "aggregate averages", err)
	}
	out.AvgConfidence = avg.AvgConfidence
	out.AvgProcessingTimeMs = avg.AvgProcessing

	return out, nil
}
