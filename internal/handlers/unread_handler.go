package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type UnreadHandler struct {
	unreadService *service.UnreadService
}

func NewUnreadHandler(unreadService *service.UnreadService) *UnreadHandler {
	return &UnreadHandler{unreadService: unreadService}
}

func (h *UnreadHandler) GetCounts(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	snapshot, err := h.unreadService.Get(userID)
	if err != nil {
		return httpx.Internal(c, "unread_counts_failed")
	}

	return c.JSON(fiber.Map{
		"unread": snapshot,
	})
}

type markItemReadRequest struct {
	ItemID uint   `json:"item_id"`
	Kind   string `json:"kind"`
}

func (h *UnreadHandler) MarkItemRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req markItemReadRequest
	if err := c.BodyParser(&req); err != nil || req.ItemID == 0 {
		return httpx.BadRequest(c, "invalid_request_body", "item_id and kind are required")
	}

	kind := models.ContentKind(req.Kind)
	if kind != models.KindClasswork && kind != models.KindAnnouncement {
		return httpx.BadRequest(c, "invalid_kind", "Unknown content kind")
	}

	snapshot, err := h.unreadService.MarkItemRead(userID, req.ItemID, kind)
	if err != nil {
		return httpx.Internal(c, "mark_read_failed")
	}

	return c.JSON(fiber.Map{
		"unread": snapshot,
	})
}

type markClassReadRequest struct {
	Kind string `json:"kind"`
}

func (h *UnreadHandler) MarkClassRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	var req markClassReadRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	kind := models.ContentKind(req.Kind)
	if kind != models.KindClasswork && kind != models.KindAnnouncement {
		return httpx.BadRequest(c, "invalid_kind", "Unknown content kind")
	}

	snapshot, err := h.unreadService.MarkClassRead(userID, uint(classID), kind)
	if err != nil {
		return httpx.Internal(c, "mark_read_failed")
	}

	return c.JSON(fiber.Map{
		"unread": snapshot,
	})
}
