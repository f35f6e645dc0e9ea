package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/api/dto"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/service"
)

// CommentsHandler exposes comment edit and removal.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// Update handles PUT /api/comments/:id.
func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}
	var req dto.CommentUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Update(c.UserContext(), auth.IdentityFromContext(c), id, req.CommentText)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// Delete handles DELETE /api/comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}
	if err := h.comments.Delete(c.UserContext(), auth.IdentityFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
