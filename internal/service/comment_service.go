package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/events"
	"github.com/spec-kit/monitor-report/internal/policy"
	"github.com/spec-kit/monitor-report/internal/repository"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

const commentPreviewRunes = 80

// CommentService coordinates manager comments on reports.
type CommentService struct {
	comments   repository.CommentRepository
	reports    repository.ReportRepository
	policy     *policy.Policy
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles requirements for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	ReportRepo  repository.ReportRepository
	Policy      *policy.Policy
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService builds the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments:   deps.CommentRepo,
		reports:    deps.ReportRepo,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create adds a comment on a report field.
func (s *CommentService) Create(ctx context.Context, identity *domain.Identity, reportID int64, target, text string) (*domain.Comment, error) {
	if err := s.policy.CheckCommentCreate(ctx, identity, reportID); err != nil {
		return nil, mapRepoError(err)
	}
	field, err := domain.ParseCommentTarget(target)
	if err != nil {
		return nil, apperrors.NewValidationError("target_field must be PROBLEM or PLAN", map[string]any{"field": "target_field"})
	}
	text, err = validateCommentText(text)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ReportID:    reportID,
		OwnerID:     identity.SubjectID,
		TargetField: field,
		Text:        text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapRepoError(err)
	}

	// Without the owner the notification would fall through to the managers channel.
	reportOwner, err := s.reports.OwnerOf(ctx, reportID)
	if err != nil {
		s.logger.Warn("comment_added not published: report owner lookup failed",
			zap.Int64("report_id", reportID),
			zap.Int64("comment_id", comment.ID),
			zap.Error(err))
		return s.reload(ctx, comment)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		ReportID: reportID,
		Actor:    actorOf(identity),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			ReportOwner: reportOwner,
			TargetField: field,
			TextPreview: preview(text),
		},
	})
	return s.reload(ctx, comment)
}

// Update replaces the text of an owned comment.
func (s *CommentService) Update(ctx context.Context, identity *domain.Identity, id int64, text string) (*domain.Comment, error) {
	if err := s.policy.CheckComment(ctx, identity, policy.ActionCommentUpdate, id); err != nil {
		return nil, mapRepoError(err)
	}
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{ID: id, Text: text}
	if err := s.comments.UpdateText(ctx, comment); err != nil {
		return nil, notFoundOr(err, "comment", id)
	}
	return s.reload(ctx, comment)
}

// Delete removes an owned comment.
func (s *CommentService) Delete(ctx context.Context, identity *domain.Identity, id int64) error {
	if err := s.policy.CheckComment(ctx, identity, policy.ActionCommentDelete, id); err != nil {
		return mapRepoError(err)
	}
	existing, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "comment", id)
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "comment", id)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentDeleted,
		ReportID: existing.ReportID,
		Actor:    actorOf(identity),
		Payload:  events.CommentDeletedPayload{CommentID: id},
	})
	return nil
}

func (s *CommentService) reload(ctx context.Context, written *domain.Comment) (*domain.Comment, error) {
	stored, err := s.comments.GetByID(ctx, written.ID)
	if err != nil {
		return nil, notFoundOr(err, "comment", written.ID)
	}
	return stored, nil
}

func validateCommentText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperrors.NewValidationError("comment_text is required", map[string]any{"field": "comment_text"})
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxCommentLength {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("comment_text must not exceed %d characters", domain.MaxCommentLength),
			map[string]any{"field": "comment_text"})
	}
	return trimmed, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= commentPreviewRunes {
		return text
	}
	return string([]rune(text)[:commentPreviewRunes]) + "..."
}
