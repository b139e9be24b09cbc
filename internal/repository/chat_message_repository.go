package repository

import (
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type ChatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *ChatMessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.Preload("Sender").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *ChatMessageRepository) FindByClientID(clientID string, senderID uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.Where("client_id = ? AND sender_id = ?", clientID, senderID).
		Preload("Sender").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByConversation pages backwards through a conversation. A zero cursor
// means "newest"; otherwise only messages older than the cursor are returned.
// Results come back in chronological order.
func (r *ChatMessageRepository) ListByConversation(convID uint, cursor uint, limit int) ([]models.ChatMessage, error) {
	q := r.db.Preload("Sender").Where("conversation_id = ?", convID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var messages []models.ChatMessage
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *ChatMessageRepository) CountUnread(convID, userID uint, since *time.Time) (int64, error) {
	q := r.db.Model(&models.ChatMessage{}).
		Where("conversation_id = ? AND sender_id <> ?", convID, userID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

var _ = gorm.ErrRecordNotFound
