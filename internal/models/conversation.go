package models

import (
	"time"

	"gorm.io/gorm"
)

type Conversation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Title is empty for direct conversations; the client renders the
	// peer's name instead.
	Title     string `gorm:"size:100" json:"title"`
	IsGroup   bool   `gorm:"default:false" json:"is_group"`
	CreatorID uint   `gorm:"not null" json:"creator_id"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants"`
}

type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
	// LastReadAt is the high-water mark for unread counting; nil means
	// the participant has never opened the conversation.
	LastReadAt *time.Time `json:"last_read_at"`

	User         User         `gorm:"foreignKey:UserID" json:"user"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`
}

type ChatMessage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ClientID is a client-generated UUID used to deduplicate resends.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender;not null" json:"client_id"`

	ConversationID uint   `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint   `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Body           string `gorm:"type:text;not null" json:"body"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender"`
}

type ChatMessageResponse struct {
	ID             uint         `json:"id"`
	ClientID       string       `json:"client_id"`
	ConversationID uint         `json:"conversation_id"`
	SenderID       uint         `json:"sender_id"`
	Sender         UserResponse `json:"sender"`
	Body           string       `json:"body"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (m *ChatMessage) ToResponse() ChatMessageResponse {
	return ChatMessageResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Sender:         m.Sender.ToResponse(),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}
