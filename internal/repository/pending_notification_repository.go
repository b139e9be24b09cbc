package repository

import (
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type PendingNotificationRepository struct {
	db *gorm.DB
}

func NewPendingNotificationRepository(db *gorm.DB) *PendingNotificationRepository {
	return &PendingNotificationRepository{db: db}
}

// Enqueue adds a frame to the offline queue for a user
func (r *PendingNotificationRepository) Enqueue(userID uint, kind string, payload string, priority int) error {
	pending := &models.PendingNotification{
		UserID:   userID,
		Kind:     kind,
		Payload:  payload,
		Priority: priority,
		Attempts: 0,
	}
	return r.db.Create(pending).Error
}

// GetPendingForUser retrieves queued frames for a user, ordered by priority and creation time
func (r *PendingNotificationRepository) GetPendingForUser(userID uint, limit int) ([]models.PendingNotification, error) {
	var pending []models.PendingNotification
	err := r.db.Where("user_id = ?", userID).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

// GetRetryable gets frames ready for retry (next_retry <= now)
func (r *PendingNotificationRepository) GetRetryable(limit int) ([]models.PendingNotification, error) {
	var pending []models.PendingNotification
	now := time.Now()
	err := r.db.Where("next_retry IS NOT NULL AND next_retry <= ?", now).
		Order("priority DESC, next_retry ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

// MarkAttempted updates the attempt count and next retry time
func (r *PendingNotificationRepository) MarkAttempted(id uint, attempts int, nextRetry *time.Time) error {
	now := time.Now()
	updates := map[string]interface{}{
		"attempts":     attempts,
		"last_attempt": now,
		"next_retry":   nextRetry,
	}
	return r.db.Model(&models.PendingNotification{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a queued frame (after successful delivery)
func (r *PendingNotificationRepository) Delete(id uint) error {
	return r.db.Delete(&models.PendingNotification{}, id).Error
}

// DeleteBatch removes multiple queued frames
func (r *PendingNotificationRepository) DeleteBatch(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Delete(&models.PendingNotification{}, ids).Error
}

// CountPendingForUser returns the number of queued frames for a user
func (r *PendingNotificationRepository) CountPendingForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PendingNotification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CleanupOld removes queued frames older than the specified duration
func (r *PendingNotificationRepository) CleanupOld(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return r.db.Where("created_at < ?", cutoff).Delete(&models.PendingNotification{}).Error
}
