package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) UploadClassworkAttachment(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Invalid file upload")
	}
	defer f.Close()

	work, err := h.attachmentService.AttachToClasswork(
		c.Context(), workID, userID,
		fileHeader.Filename, f, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		if errors.Is(err, service.ErrStorageNotConfigured) {
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "attach_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"classwork": work,
	})
}

func (h *AttachmentHandler) UploadSubmissionAttachment(c *fiber.Ctx) error {
	userID, workID, err := submissionContext(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Invalid file upload")
	}
	defer f.Close()

	sub, err := h.attachmentService.AttachToSubmission(
		c.Context(), workID, userID,
		fileHeader.Filename, f, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		if errors.Is(err, service.ErrStorageNotConfigured) {
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		return httpx.BadRequest(c, "attach_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"submission": sub,
	})
}
