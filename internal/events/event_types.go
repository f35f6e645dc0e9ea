package events

import (
	"time"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated  EventType = "report_created"
	EventCommentAdded   EventType = "comment_added"
	EventCommentDeleted EventType = "comment_deleted"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ReportID  int64     `json:"report_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	ReportDate      string `json:"report_date"`
	MonitoringCount int    `json:"monitoring_count"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   int64                `json:"comment_id"`
	ReportOwner int64                `json:"report_owner_id"`
	TargetField domain.CommentTarget `json:"target_field"`
	TextPreview string               `json:"text_preview"`
}

// CommentDeletedPayload payload.
type CommentDeletedPayload struct {
	CommentID int64 `json:"comment_id"`
}
