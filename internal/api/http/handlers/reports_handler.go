package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/api/dto"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/service"
)

// ReportsHandler exposes daily report endpoints.
type ReportsHandler struct {
	reports  *service.ReportService
	comments *service.CommentService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, comments *service.CommentService) *ReportsHandler {
	return &ReportsHandler{reports: reports, comments: comments}
}

// List handles GET /api/reports.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	userID, err := optionalQueryID(c, "user_id")
	if err != nil {
		return err
	}

	page, err := h.reports.List(c.UserContext(), auth.IdentityFromContext(c), service.ReportListInput{
		UserID:    userID,
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 20),
	})
	if err != nil {
		return err
	}

	summaries := make([]dto.ReportSummary, 0, len(page.Reports))
	for i := range page.Reports {
		summaries = append(summaries, dto.NewReportSummary(&page.Reports[i]))
	}
	return c.JSON(fiber.Map{
		"data": dto.ReportListResponse{
			Reports: summaries,
			Pagination: dto.Pagination{
				CurrentPage: page.Page,
				TotalPages:  page.TotalPages,
				TotalCount:  page.TotalCount,
				Limit:       page.Limit,
			},
		},
	})
}

// Create handles POST /api/reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Create(c.UserContext(), auth.IdentityFromContext(c), reportInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Get handles GET /api/reports/:id.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "report")
	if err != nil {
		return err
	}
	report, err := h.reports.Get(c.UserContext(), auth.IdentityFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Update handles PUT /api/reports/:id.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "report")
	if err != nil {
		return err
	}
	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Update(c.UserContext(), auth.IdentityFromContext(c), id, reportInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Delete handles DELETE /api/reports/:id.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "report")
	if err != nil {
		return err
	}
	if err := h.reports.Delete(c.UserContext(), auth.IdentityFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateComment handles POST /api/reports/:id/comments.
func (h *ReportsHandler) CreateComment(c *fiber.Ctx) error {
	id, err := pathID(c, "report")
	if err != nil {
		return err
	}
	var req dto.CommentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.UserContext(), auth.IdentityFromContext(c), id, req.TargetField, req.CommentText)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

func reportInput(req dto.ReportRequest) service.ReportInput {
	records := make([]service.RecordInput, 0, len(req.MonitoringRecords))
	for _, rec := range req.MonitoringRecords {
		records = append(records, service.RecordInput{ServerID: rec.ServerID, Content: rec.MonitoringContent})
	}
	return service.ReportInput{
		ReportDate: req.ReportDate,
		Problem:    req.Problem,
		Plan:       req.Plan,
		Records:    records,
	}
}
