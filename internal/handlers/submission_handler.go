package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

type draftRequest struct {
	Body          string `json:"body"`
	AttachmentKey string `json:"attachment_key"`
}

func (h *SubmissionHandler) SaveDraft(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	var req draftRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	sub, err := h.submissionService.SaveDraft(workID, userID, req.Body, req.AttachmentKey)
	if err != nil {
		return httpx.BadRequest(c, "save_draft_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}

func (h *SubmissionHandler) TurnIn(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	sub, err := h.submissionService.TurnIn(workID, userID)
	if err != nil {
		return httpx.BadRequest(c, "turn_in_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}

func (h *SubmissionHandler) Unsubmit(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	sub, err := h.submissionService.Unsubmit(workID, userID)
	if err != nil {
		return httpx.BadRequest(c, "unsubmit_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}

type returnRequest struct {
	Grade *int `json:"grade"`
}

func (h *SubmissionHandler) Return(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	submissionID, err := c.ParamsInt("submissionID")
	if err != nil || submissionID <= 0 {
		return httpx.BadRequest(c, "invalid_submission_id", "Invalid submission ID")
	}

	var req returnRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	sub, err := h.submissionService.Return(uint(submissionID), userID, req.Grade)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "return_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}

func (h *SubmissionHandler) GetOwn(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	sub, err := h.submissionService.GetOwn(workID, userID)
	if err != nil {
		return httpx.NotFound(c, "submission_not_found", "Submission not found")
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}

func (h *SubmissionHandler) ListForClasswork(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	subs, err := h.submissionService.ListForClasswork(workID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "list_submissions_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submissions": subs,
	})
}

func (h *SubmissionHandler) ListForStudent(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	subs, err := h.submissionService.ListForStudent(userID)
	if err != nil {
		return httpx.Internal(c, "list_submissions_failed")
	}

	return c.JSON(fiber.Map{
		"submissions": subs,
	})
}

func submissionContext(c *fiber.Ctx) (uint, uint, error) {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return 0, 0, httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	workID, err := c.ParamsInt("workID")
	if err != nil || workID <= 0 {
		return 0, 0, httpx.BadRequest(c, "invalid_classwork_id", "Invalid classwork ID")
	}

	return userID, uint(workID), nil
}
