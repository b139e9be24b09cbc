package ws

import (
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
)

// MessageConversationRead advances the reader's high-water mark in a
// conversation. A stale timestamp is absorbed server-side.
type MessageConversationRead struct {
	ConversationID uint       `json:"conversation_id"`
	ReadAt         *time.Time `json:"read_at"`
}

func (msg *MessageConversationRead) GetType() string {
	return "conversation_read"
}

func (msg *MessageConversationRead) Process(ctx *MessageContext) error {
	readAt := time.Now()
	if msg.ReadAt != nil {
		readAt = *msg.ReadAt
	}
	return ctx.ChatService.MarkRead(msg.ConversationID, ctx.UserID, readAt)
}

// MessageContentRead marks one classwork or announcement item as read and
// returns the refreshed counters.
type MessageContentRead struct {
	ItemID uint   `json:"item_id"`
	Kind   string `json:"kind"`
}

func (msg *MessageContentRead) GetType() string {
	return "content_read"
}

func (msg *MessageContentRead) Process(ctx *MessageContext) error {
	kind := models.ContentKind(msg.Kind)
	if kind != models.KindClasswork && kind != models.KindAnnouncement {
		return ctx.ReplyError("invalid_kind", "Unknown content kind", msg.Kind)
	}

	snap, err := ctx.UnreadService.MarkItemRead(ctx.UserID, msg.ItemID, kind)
	if err != nil {
		return err
	}

	return ctx.Reply(map[string]interface{}{
		"type":     "unread_counts",
		"snapshot": snap,
	})
}

// MessageUnreadSync requests the current unread snapshot, typically right
// after connecting.
type MessageUnreadSync struct {
}

func (msg *MessageUnreadSync) GetType() string {
	return "unread_sync"
}

func (msg *MessageUnreadSync) Process(ctx *MessageContext) error {
	snap, err := ctx.UnreadService.Get(ctx.UserID)
	if err != nil {
		return err
	}
	return ctx.Reply(map[string]interface{}{
		"type":     "unread_counts",
		"snapshot": snap,
	})
}
