package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classboardhq/classboard-backend/internal/cache"
	"github.com/classboardhq/classboard-backend/internal/httpx"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
	inboxCache  *cache.InboxCache
}

func NewChatHandler(chatService *service.ChatService, inboxCache *cache.InboxCache) *ChatHandler {
	return &ChatHandler{chatService: chatService, inboxCache: inboxCache}
}

type openDirectRequest struct {
	PeerID uint `json:"peer_id"`
}

func (h *ChatHandler) OpenDirect(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req openDirectRequest
	if err := c.BodyParser(&req); err != nil || req.PeerID == 0 {
		return httpx.BadRequest(c, "missing_peer_id", "peer_id is required")
	}

	conv, err := h.chatService.OpenDirect(userID, req.PeerID)
	if err != nil {
		if errors.Is(err, service.ErrSelfConversation) {
			return httpx.BadRequest(c, "self_conversation", "Cannot open a conversation with yourself")
		}
		return httpx.BadRequest(c, "open_conversation_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"conversation": conv,
	})
}

type createGroupRequest struct {
	Title     string `json:"title"`
	MemberIDs []uint `json:"member_ids"`
}

func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	conv, err := h.chatService.CreateGroup(userID, req.Title, req.MemberIDs)
	if err != nil {
		return httpx.BadRequest(c, "create_group_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation": conv,
	})
}

// Inbox returns the conversation list with per-conversation unread counts.
// The rendered payload is cached briefly; it is invalidated on send and on
// read-mark so clients polling the inbox do not hammer the window query.
func (h *ChatHandler) Inbox(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if cached, ok := h.inboxCache.Get(userID); ok {
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	inbox, err := h.chatService.ListConversations(userID, limit)
	if err != nil {
		return httpx.Internal(c, "list_conversations_failed")
	}

	payload, err := json.Marshal(inbox)
	if err != nil {
		return httpx.Internal(c, "list_conversations_failed")
	}
	_ = h.inboxCache.Set(userID, payload)

	c.Set("Content-Type", "application/json")
	return c.Send(payload)
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	userID, convID, err := conversationContext(c)
	if err != nil {
		return err
	}

	conv, err := h.chatService.GetConversation(convID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "not_participant", "Not a participant in this conversation")
		}
		return httpx.NotFound(c, "conversation_not_found", "Conversation not found")
	}

	return c.JSON(fiber.Map{
		"conversation": conv,
	})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, convID, err := conversationContext(c)
	if err != nil {
		return err
	}

	cursor := uint(c.QueryInt("before", 0))
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := h.chatService.GetMessages(convID, userID, cursor, limit)
	if err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "not_participant", "Not a participant in this conversation")
		}
		return httpx.Internal(c, "list_messages_failed")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}

type sendMessageRequest struct {
	ClientID string `json:"client_id"`
	Body     string `json:"body"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, convID, err := conversationContext(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	msg, err := h.chatService.Send(convID, userID, req.ClientID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotParticipant):
			return httpx.Forbidden(c, "not_participant", "Not a participant in this conversation")
		case errors.Is(err, service.ErrEmptyMessage):
			return httpx.BadRequest(c, "empty_message", "Message body is required")
		case errors.Is(err, service.ErrMessageTooLong):
			return httpx.BadRequest(c, "message_too_long", "Message body is too long")
		default:
			return httpx.BadRequest(c, "send_failed", err.Error())
		}
	}

	_ = h.inboxCache.Invalidate(userID)
	if others, err := h.chatService.OtherParticipantIDs(convID, userID); err == nil {
		for _, id := range others {
			_ = h.inboxCache.Invalidate(id)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": msg,
	})
}

type markReadRequest struct {
	ReadAt *time.Time `json:"read_at"`
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, convID, err := conversationContext(c)
	if err != nil {
		return err
	}

	var req markReadRequest
	_ = c.BodyParser(&req)
	readAt := time.Now()
	if req.ReadAt != nil {
		readAt = *req.ReadAt
	}

	if err := h.chatService.MarkRead(convID, userID, readAt); err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			return httpx.Forbidden(c, "not_participant", "Not a participant in this conversation")
		}
		return httpx.Internal(c, "mark_read_failed")
	}

	_ = h.inboxCache.Invalidate(userID)

	return c.JSON(fiber.Map{"message": "Marked read"})
}

func conversationContext(c *fiber.Ctx) (uint, uint, error) {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return 0, 0, httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	convID, err := c.ParamsInt("id")
	if err != nil || convID <= 0 {
		return 0, 0, httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation ID")
	}

	return userID, uint(convID), nil
}
