package dto

import (
	"time"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// MonitoringRecordRequest is one record in a report body.
type MonitoringRecordRequest struct {
	ServerID          int64  `json:"server_id"`
	MonitoringContent string `json:"monitoring_content"`
}

// ReportRequest is the body of report create and update. report_date is ignored on update.
type ReportRequest struct {
	ReportDate        string                    `json:"report_date"`
	Problem           *string                   `json:"problem"`
	Plan              *string                   `json:"plan"`
	MonitoringRecords []MonitoringRecordRequest `json:"monitoring_records"`
}

// CommentCreateRequest payload.
type CommentCreateRequest struct {
	TargetField string `json:"target_field"`
	CommentText string `json:"comment_text"`
}

// CommentUpdateRequest payload.
type CommentUpdateRequest struct {
	CommentText string `json:"comment_text"`
}

// ReportSummary is a list entry.
type ReportSummary struct {
	ReportID        int64     `json:"report_id"`
	UserID          int64     `json:"user_id"`
	UserName        string    `json:"user_name"`
	ReportDate      string    `json:"report_date"`
	MonitoringCount int       `json:"monitoring_count"`
	CommentCount    int       `json:"comment_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
	Limit       int `json:"limit"`
}

// ReportListResponse wraps a page of summaries.
type ReportListResponse struct {
	Reports    []ReportSummary `json:"reports"`
	Pagination Pagination      `json:"pagination"`
}

// MonitoringRecordResponse is a record as returned to clients.
type MonitoringRecordResponse struct {
	RecordID          int64     `json:"record_id"`
	ServerID          int64     `json:"server_id"`
	ServerName        string    `json:"server_name"`
	MonitoringContent string    `json:"monitoring_content"`
	CreatedAt         time.Time `json:"created_at"`
}

// CommentResponse is a comment as returned to clients.
type CommentResponse struct {
	CommentID   int64     `json:"comment_id"`
	ReportID    int64     `json:"report_id"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	TargetField string    `json:"target_field"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportResponse is a full report.
type ReportResponse struct {
	ReportID          int64                      `json:"report_id"`
	UserID            int64                      `json:"user_id"`
	UserName          string                     `json:"user_name"`
	ReportDate        string                     `json:"report_date"`
	Problem           *string                    `json:"problem"`
	Plan              *string                    `json:"plan"`
	MonitoringRecords []MonitoringRecordResponse `json:"monitoring_records"`
	Comments          []CommentResponse          `json:"comments"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// NewReportResponse maps a domain report.
func NewReportResponse(r *domain.DailyReport) ReportResponse {
	records := make([]MonitoringRecordResponse, 0, len(r.MonitoringRecords))
	for _, rec := range r.MonitoringRecords {
		records = append(records, MonitoringRecordResponse{
			RecordID:          rec.ID,
			ServerID:          rec.ServerID,
			ServerName:        rec.ServerName,
			MonitoringContent: rec.Content,
			CreatedAt:         rec.CreatedAt,
		})
	}
	comments := make([]CommentResponse, 0, len(r.Comments))
	for i := range r.Comments {
		comments = append(comments, NewCommentResponse(&r.Comments[i]))
	}
	return ReportResponse{
		ReportID:          r.ID,
		UserID:            r.OwnerID,
		UserName:          r.OwnerName,
		ReportDate:        r.ReportDate.Format(domain.ReportDateLayout),
		Problem:           r.Problem,
		Plan:              r.Plan,
		MonitoringRecords: records,
		Comments:          comments,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// NewReportSummary maps a listed report.
func NewReportSummary(r *domain.DailyReport) ReportSummary {
	return ReportSummary{
		ReportID:        r.ID,
		UserID:          r.OwnerID,
		UserName:        r.OwnerName,
		ReportDate:      r.ReportDate.Format(domain.ReportDateLayout),
		MonitoringCount: r.MonitoringCount,
		CommentCount:    r.CommentCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		CommentID:   c.ID,
		ReportID:    c.ReportID,
		UserID:      c.OwnerID,
		UserName:    c.OwnerName,
		TargetField: string(c.TargetField),
		CommentText: c.Text,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
