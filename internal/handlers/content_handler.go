package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func (h *ContentHandler) CreateClasswork(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateClassworkInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if classID, err := c.ParamsInt("id"); err == nil && classID > 0 {
		input.ClassID = uint(classID)
	}

	work, err := h.contentService.CreateClasswork(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "create_classwork_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"classwork": work,
	})
}

func (h *ContentHandler) UpdateClasswork(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	workID, err := c.ParamsInt("workID")
	if err != nil || workID <= 0 {
		return httpx.BadRequest(c, "invalid_classwork_id", "Invalid classwork ID")
	}

	var input service.UpdateClassworkInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	work, err := h.contentService.UpdateClasswork(uint(workID), userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "update_classwork_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"classwork": work,
	})
}

func (h *ContentHandler) DeleteClasswork(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	workID, err := c.ParamsInt("workID")
	if err != nil || workID <= 0 {
		return httpx.BadRequest(c, "invalid_classwork_id", "Invalid classwork ID")
	}

	if err := h.contentService.DeleteClasswork(uint(workID), userID); err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "delete_classwork_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Classwork deleted"})
}

func (h *ContentHandler) GetClasswork(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	workID, err := c.ParamsInt("workID")
	if err != nil || workID <= 0 {
		return httpx.BadRequest(c, "invalid_classwork_id", "Invalid classwork ID")
	}

	work, err := h.contentService.GetClasswork(uint(workID), userID)
	if err != nil {
		return httpx.NotFound(c, "classwork_not_found", "Classwork not found")
	}

	return c.JSON(fiber.Map{
		"classwork": work,
	})
}

func (h *ContentHandler) ListClasswork(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	works, err := h.contentService.ListClasswork(uint(classID), userID)
	if err != nil {
		return httpx.Forbidden(c, "not_class_member", "Not a member of this class")
	}

	return c.JSON(fiber.Map{
		"classwork": works,
	})
}

func (h *ContentHandler) CreateAnnouncement(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateAnnouncementInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if classID, err := c.ParamsInt("id"); err == nil && classID > 0 {
		input.ClassID = uint(classID)
	}

	announcement, err := h.contentService.CreateAnnouncement(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "create_announcement_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"announcement": announcement,
	})
}

func (h *ContentHandler) DeleteAnnouncement(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	announcementID, err := c.ParamsInt("announcementID")
	if err != nil || announcementID <= 0 {
		return httpx.BadRequest(c, "invalid_announcement_id", "Invalid announcement ID")
	}

	if err := h.contentService.DeleteAnnouncement(uint(announcementID), userID); err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "delete_announcement_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Announcement deleted"})
}

func (h *ContentHandler) ListAnnouncements(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	announcements, err := h.contentService.ListAnnouncements(uint(classID), userID)
	if err != nil {
		return httpx.Forbidden(c, "not_class_member", "Not a member of this class")
	}

	return c.JSON(fiber.Map{
		"announcements": announcements,
	})
}
