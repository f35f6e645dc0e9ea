package domain

import "time"

// ReportDateLayout is the wire format for report dates.
const ReportDateLayout = "2006-01-02"

// DailyReport is a staff member's monitoring summary for one day.
type DailyReport struct {
	ID                int64
	OwnerID           int64
	OwnerName         string
	ReportDate        time.Time
	Problem           *string
	Plan              *string
	MonitoringRecords []MonitoringRecord
	Comments          []Comment
	MonitoringCount   int
	CommentCount      int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MonitoringRecord captures what was observed on a single server.
type MonitoringRecord struct {
	ID         int64
	ReportID   int64
	ServerID   int64
	ServerName string
	Content    string
	CreatedAt  time.Time
}
