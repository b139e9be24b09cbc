package handlers

import (
	"log"
	"os"

	"github.com/gofiber/websocket/v2"

	"github.com/classboardhq/classboard-backend/internal/cache"
	"github.com/classboardhq/classboard-backend/internal/handlers/ws"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/service"
)

type WebSocketHandler struct {
	chatService   *service.ChatService
	unreadService *service.UnreadService
	userService   *service.UserService
	hub           *realtime.Hub
	bridge        *realtime.Bridge
	presenceCache *cache.PresenceCache
}

func NewWebSocketHandler(
	chatService *service.ChatService,
	unreadService *service.UnreadService,
	userService *service.UserService,
	hub *realtime.Hub,
	bridge *realtime.Bridge,
	presenceCache *cache.PresenceCache,
) *WebSocketHandler {
	return &WebSocketHandler{
		chatService:   chatService,
		unreadService: unreadService,
		userService:   userService,
		hub:           hub,
		bridge:        bridge,
		presenceCache: presenceCache,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	h.hub.Register(userID, c, supportsGzip)

	if h.bridge != nil {
		if err := h.bridge.Attach(userID); err != nil {
			log.Printf("Failed to attach notification bridge for user %d: %v", userID, err)
		}
	}

	// Update user status to online
	go func() {
		if h.presenceCache != nil {
			if err := h.presenceCache.SetUserOnline(userID); err != nil {
				log.Printf("Failed to set user %d online in cache: %v", userID, err)
			}
		}
		if err := h.userService.SetUserOnline(userID); err != nil {
			log.Printf("Failed to set user %d online in DB: %v", userID, err)
		}
	}()

	// Flush pending frames after successful connection
	go func() {
		if err := h.hub.FlushPending(userID); err != nil {
			log.Printf("Failed to flush pending frames for user %d: %v", userID, err)
		}
	}()

	defer func() {
		if h.bridge != nil {
			h.bridge.Detach(userID)
		}
		h.hub.Unregister(userID)
		// Update user status to offline
		go func() {
			if h.presenceCache != nil {
				if err := h.presenceCache.SetUserOffline(userID); err != nil {
					log.Printf("Failed to set user %d offline in cache: %v", userID, err)
				}
			}
			if err := h.userService.SetUserOffline(userID); err != nil {
				log.Printf("Failed to set user %d offline in DB: %v", userID, err)
			}
		}()
	}()

	log.Printf("User %d connected via WebSocket", userID)

	ctx := &ws.MessageContext{
		UserID:        userID,
		Hub:           h.hub,
		Bridge:        h.bridge,
		ChatService:   h.chatService,
		UnreadService: h.unreadService,
		UserService:   h.userService,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d frame_type=%d size=%d", userID, messageType, len(messageBytes))
		}

		// Decompress if binary message (gzip compressed)
		if messageType == websocket.BinaryMessage {
			decompressed, err := realtime.DecompressFrame(messageBytes)
			if err != nil {
				log.Printf("Error decompressing message from user %d: %v", userID, err)
				ctx.ReplyError("decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ctx.ReplyError("invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			ctx.ReplyError("processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
