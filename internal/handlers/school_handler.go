package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type SchoolHandler struct {
	schoolService *service.SchoolService
}

func NewSchoolHandler(schoolService *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{schoolService: schoolService}
}

func (h *SchoolHandler) CreateSchool(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SchoolInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	school, err := h.schoolService.CreateSchool(userID, input)
	if err != nil {
		return httpx.BadRequest(c, "create_school_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"school": school,
	})
}

func (h *SchoolHandler) GetSchool(c *fiber.Ctx) error {
	schoolID, err := c.ParamsInt("id")
	if err != nil || schoolID <= 0 {
		return httpx.BadRequest(c, "invalid_school_id", "Invalid school ID")
	}

	school, err := h.schoolService.GetSchool(uint(schoolID))
	if err != nil {
		return httpx.NotFound(c, "school_not_found", "School not found")
	}

	return c.JSON(fiber.Map{
		"school": school,
	})
}

func (h *SchoolHandler) ListSchools(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	schools, err := h.schoolService.ListSchools(limit)
	if err != nil {
		return httpx.Internal(c, "list_schools_failed")
	}

	return c.JSON(fiber.Map{
		"schools": schools,
	})
}

func (h *SchoolHandler) UpdateSchool(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	schoolID, err := c.ParamsInt("id")
	if err != nil || schoolID <= 0 {
		return httpx.BadRequest(c, "invalid_school_id", "Invalid school ID")
	}

	var input service.SchoolInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	school, err := h.schoolService.UpdateSchool(uint(schoolID), userID, input)
	if err != nil {
		return httpx.BadRequest(c, "update_school_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"school": school,
	})
}
