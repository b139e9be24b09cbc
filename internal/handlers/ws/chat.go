package ws

import "time"

// MessageChatSend carries one outgoing chat message. The client supplies
// its own UUID so resends after a reconnect do not duplicate.
type MessageChatSend struct {
	ConversationID uint   `json:"conversation_id"`
	ClientID       string `json:"client_id"`
	Body           string `json:"body"`
}

func (msg *MessageChatSend) GetType() string {
	return "chat_send"
}

func (msg *MessageChatSend) Process(ctx *MessageContext) error {
	saved, err := ctx.ChatService.Send(msg.ConversationID, ctx.UserID, msg.ClientID, msg.Body)
	if err != nil {
		return err
	}

	// Ack back to the sender so the client can reconcile its local echo.
	return ctx.Reply(map[string]interface{}{
		"type":            "ack",
		"client_id":       saved.ClientID,
		"message_id":      saved.ID,
		"conversation_id": saved.ConversationID,
		"created_at":      saved.CreatedAt.Format(time.RFC3339Nano),
	})
}

// MessageTyping is a transient typing indicator, relayed to the other
// participants and never persisted.
type MessageTyping struct {
	ConversationID uint `json:"conversation_id"`
	IsTyping       bool `json:"is_typing"`
}

func (msg *MessageTyping) GetType() string {
	return "typing"
}

func (msg *MessageTyping) Process(ctx *MessageContext) error {
	others, err := ctx.ChatService.OtherParticipantIDs(msg.ConversationID, ctx.UserID)
	if err != nil {
		return err
	}

	frame := map[string]interface{}{
		"type":            "typing",
		"conversation_id": msg.ConversationID,
		"user_id":         ctx.UserID,
		"is_typing":       msg.IsTyping,
	}
	// Only live connections matter; typing is meaningless later.
	for _, id := range others {
		if ctx.Hub.IsOnline(id) {
			_ = ctx.Hub.Push(id, frame)
		}
	}
	return nil
}
