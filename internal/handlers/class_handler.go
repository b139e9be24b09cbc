package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type ClassHandler struct {
	classService *service.ClassService
}

func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateClassInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	class, err := h.classService.CreateClass(userID, input)
	if err != nil {
		return httpx.BadRequest(c, "create_class_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"class": class,
	})
}

func (h *ClassHandler) MyClasses(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classes, err := h.classService.GetUserClasses(userID)
	if err != nil {
		return httpx.Internal(c, "list_classes_failed")
	}

	return c.JSON(fiber.Map{
		"classes": classes,
	})
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	_, classID, err := h.memberContext(c)
	if err != nil {
		return err
	}

	class, err := h.classService.GetClass(classID)
	if err != nil {
		return httpx.NotFound(c, "class_not_found", "Class not found")
	}

	return c.JSON(fiber.Map{
		"class": class,
	})
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *ClassHandler) JoinByCode(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req joinRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return httpx.BadRequest(c, "missing_code", "Join code is required")
	}

	class, err := h.classService.JoinByCode(req.Code, userID)
	if err != nil {
		return httpx.BadRequest(c, "join_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"class": class,
	})
}

type addStudentRequest struct {
	Username string `json:"username"`
}

func (h *ClassHandler) AddStudent(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	var req addStudentRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return httpx.BadRequest(c, "missing_username", "Username is required")
	}

	user, err := h.classService.AddStudent(uint(classID), userID, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "add_student_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user.ToResponse(),
	})
}

func (h *ClassHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}
	memberID, err := c.ParamsInt("userID")
	if err != nil || memberID <= 0 {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user ID")
	}

	if err := h.classService.RemoveMember(uint(classID), userID, uint(memberID)); err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "remove_member_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Member removed"})
}

func (h *ClassHandler) LeaveClass(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	if err := h.classService.LeaveClass(uint(classID), userID); err != nil {
		return httpx.BadRequest(c, "leave_class_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Left class"})
}

func (h *ClassHandler) GetMembers(c *fiber.Ctx) error {
	_, classID, err := h.memberContext(c)
	if err != nil {
		return err
	}

	members, err := h.classService.GetMembers(classID)
	if err != nil {
		return httpx.Internal(c, "list_members_failed")
	}

	return c.JSON(fiber.Map{
		"members": members,
	})
}

func (h *ClassHandler) RegenerateJoinCode(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	class, err := h.classService.RegenerateJoinCode(uint(classID), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "regenerate_code_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"join_code": class.JoinCode,
	})
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

func (h *ClassHandler) ArchiveClass(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	var req archiveRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	class, err := h.classService.ArchiveClass(uint(classID), userID, req.Archived)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "archive_class_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"class": class,
	})
}

type inviteRequest struct {
	Emails []string `json:"emails"`
}

func (h *ClassHandler) InviteByEmail(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil || len(req.Emails) == 0 {
		return httpx.BadRequest(c, "missing_emails", "At least one email is required")
	}

	if err := h.classService.InviteByEmail(uint(classID), userID, req.Emails); err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "invite_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Invitations sent"})
}

type topicRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (h *ClassHandler) CreateTopic(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	topic, err := h.classService.CreateTopic(uint(classID), userID, req.Name, req.Position)
	if err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "create_topic_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"topic": topic,
	})
}

func (h *ClassHandler) ListTopics(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	topics, err := h.classService.ListTopics(uint(classID), userID)
	if err != nil {
		return httpx.Forbidden(c, "not_class_member", "Not a member of this class")
	}

	return c.JSON(fiber.Map{
		"topics": topics,
	})
}

func (h *ClassHandler) DeleteTopic(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	topicID, err := c.ParamsInt("topicID")
	if err != nil || topicID <= 0 {
		return httpx.BadRequest(c, "invalid_topic_id", "Invalid topic ID")
	}

	if err := h.classService.DeleteTopic(uint(topicID), userID); err != nil {
		if errors.Is(err, service.ErrNotClassTeacher) {
			return httpx.Forbidden(c, "not_class_teacher", "Only class teachers can do this")
		}
		return httpx.BadRequest(c, "delete_topic_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Topic deleted"})
}

// memberContext resolves the authenticated user and class ID from the
// request and rejects non-members.
func (h *ClassHandler) memberContext(c *fiber.Ctx) (uint, uint, error) {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return 0, 0, httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	classID, err := c.ParamsInt("id")
	if err != nil || classID <= 0 {
		return 0, 0, httpx.BadRequest(c, "invalid_class_id", "Invalid class ID")
	}

	isMember, err := h.classService.IsMember(uint(classID), userID)
	if err != nil || !isMember {
		return 0, 0, httpx.Forbidden(c, "not_class_member", "Not a member of this class")
	}

	return userID, uint(classID), nil
}
