package models

import (
	"time"

	"gorm.io/gorm"
)

// PendingNotification is a realtime frame queued for a user who was offline
// when the event fired. Delivered on reconnect or by the retry worker.
type PendingNotification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"not null;index:idx_pending_user_priority" json:"user_id"`

	// Event classification ("notification", "chat_message", ...).
	Kind string `gorm:"type:varchar(30);not null" json:"kind"`

	// Delivery tracking
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastAttempt *time.Time `json:"last_attempt"`
	NextRetry   *time.Time `gorm:"index" json:"next_retry"`

	// Priority for delivery ordering (announcements outrank chat).
	Priority int `gorm:"default:0;index:idx_pending_user_priority" json:"priority"`

	// Serialized frame, sent as-is on delivery.
	Payload string `gorm:"type:text" json:"payload"`
}
