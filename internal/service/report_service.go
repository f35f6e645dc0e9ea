package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/events"
	"github.com/spec-kit/monitor-report/internal/policy"
	"github.com/spec-kit/monitor-report/internal/repository"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReportService coordinates daily report workflows.
type ReportService struct {
	reports    repository.ReportRepository
	servers    repository.ServerRepository
	policy     *policy.Policy
	dispatcher events.Dispatcher
}

// ReportDependencies bundles requirements for the report service.
type ReportDependencies struct {
	ReportRepo repository.ReportRepository
	ServerRepo repository.ServerRepository
	Policy     *policy.Policy
	Dispatcher events.Dispatcher
}

// RecordInput is one monitoring record of a report.
type RecordInput struct {
	ServerID int64
	Content  string
}

// ReportInput describes a report body. ReportDate is ignored on update.
type ReportInput struct {
	ReportDate string
	Problem    *string
	Plan       *string
	Records    []RecordInput
}

// ReportListInput describes listing filters.
type ReportListInput struct {
	UserID    *int64
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// ReportPage is one page of report summaries.
type ReportPage struct {
	Reports    []domain.DailyReport
	Page       int
	Limit      int
	TotalCount int
	TotalPages int
}

// NewReportService builds the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		reports:    deps.ReportRepo,
		servers:    deps.ServerRepo,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
	}
}

// Create files a report owned by the caller.
func (s *ReportService) Create(ctx context.Context, identity *domain.Identity, input ReportInput) (*domain.DailyReport, error) {
	if err := s.policy.Check(identity, policy.ActionReportCreate); err != nil {
		return nil, err
	}
	date, err := parseDate("report_date", input.ReportDate)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, apperrors.NewValidationError("report_date is required", map[string]any{"field": "report_date"})
	}
	records, err := s.validateRecords(ctx, input.Records)
	if err != nil {
		return nil, err
	}

	report := &domain.DailyReport{
		OwnerID:           identity.SubjectID,
		ReportDate:        *date,
		Problem:           optionalText(input.Problem),
		Plan:              optionalText(input.Plan),
		MonitoringRecords: records,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, mapRepoError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventReportCreated,
		ReportID: report.ID,
		Actor:    actorOf(identity),
		Payload: events.ReportCreatedPayload{
			ReportDate:      report.ReportDate.Format(domain.ReportDateLayout),
			MonitoringCount: len(report.MonitoringRecords),
		},
	})
	return s.reload(ctx, report)
}

// Get returns a report with its records and comments.
func (s *ReportService) Get(ctx context.Context, identity *domain.Identity, id int64) (*domain.DailyReport, error) {
	if err := s.policy.CheckReport(ctx, identity, policy.ActionReportRead, id); err != nil {
		return nil, mapRepoError(err)
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "report", id)
	}
	return report, nil
}

// Update replaces the problem, plan and monitoring records of an owned report.
func (s *ReportService) Update(ctx context.Context, identity *domain.Identity, id int64, input ReportInput) (*domain.DailyReport, error) {
	if err := s.policy.CheckReport(ctx, identity, policy.ActionReportUpdate, id); err != nil {
		return nil, mapRepoError(err)
	}
	records, err := s.validateRecords(ctx, input.Records)
	if err != nil {
		return nil, err
	}

	report := &domain.DailyReport{
		ID:                id,
		OwnerID:           identity.SubjectID,
		Problem:           optionalText(input.Problem),
		Plan:              optionalText(input.Plan),
		MonitoringRecords: records,
	}
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, notFoundOr(err, "report", id)
	}
	return s.reload(ctx, report)
}

// Delete removes an owned report with its records and comments.
func (s *ReportService) Delete(ctx context.Context, identity *domain.Identity, id int64) error {
	if err := s.policy.CheckReport(ctx, identity, policy.ActionReportDelete, id); err != nil {
		return mapRepoError(err)
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return notFoundOr(err, "report", id)
	}
	return nil
}

// List returns report summaries visible to the caller.
func (s *ReportService) List(ctx context.Context, identity *domain.Identity, input ReportListInput) (*ReportPage, error) {
	owner, err := s.policy.ReportListScope(identity, input.UserID)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", input.EndDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, apperrors.NewValidationError("start_date must not be after end_date", nil)
	}

	page, limit := normalizePage(input.Page, input.Limit)
	reports, total, err := s.reports.List(ctx, repository.ReportFilter{
		OwnerID:   owner,
		StartDate: start,
		EndDate:   end,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if reports == nil {
		reports = []domain.DailyReport{}
	}
	return &ReportPage{
		Reports:    reports,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// reload fetches the stored form of a just-written report.
func (s *ReportService) reload(ctx context.Context, written *domain.DailyReport) (*domain.DailyReport, error) {
	stored, err := s.reports.GetByID(ctx, written.ID)
	if err != nil {
		return nil, notFoundOr(err, "report", written.ID)
	}
	return stored, nil
}

func (s *ReportService) validateRecords(ctx context.Context, inputs []RecordInput) ([]domain.MonitoringRecord, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("at least one monitoring record is required",
			map[string]any{"field": "monitoring_records"})
	}

	records := make([]domain.MonitoringRecord, 0, len(inputs))
	ids := make([]int64, 0, len(inputs))
	for i, in := range inputs {
		if in.ServerID <= 0 {
			return nil, apperrors.NewValidationError("server_id must be a positive integer",
				map[string]any{"field": fmt.Sprintf("monitoring_records[%d].server_id", i)})
		}
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return nil, apperrors.NewValidationError("monitoring content is required",
				map[string]any{"field": fmt.Sprintf("monitoring_records[%d].monitoring_content", i)})
		}
		records = append(records, domain.MonitoringRecord{ServerID: in.ServerID, Content: content})
		ids = append(ids, in.ServerID)
	}

	missing, err := s.servers.MissingIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("server(s) not found: %s", joinIDs(missing)),
			map[string]any{"missing_server_ids": missing})
	}
	return records, nil
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.ReportDateLayout, value)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be in YYYY-MM-DD format", map[string]any{"field": field})
	}
	return &t, nil
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

func notFoundOr(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return mapRepoError(err)
}

// mapRepoError passes DomainErrors through and hides everything else behind INTERNAL_ERROR.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.Code(err) != "" {
		return err
	}
	return apperrors.NewInternalError(err)
}

func actorOf(identity *domain.Identity) events.Actor {
	return events.Actor{UserID: identity.SubjectID, Role: identity.Role}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
