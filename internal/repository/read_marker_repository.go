package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type ReadMarkerRepository struct {
	db *gorm.DB
}

func NewReadMarkerRepository(db *gorm.DB) *ReadMarkerRepository {
	return &ReadMarkerRepository{db: db}
}

// Upsert is idempotent: marking an already-read item is a no-op.
func (r *ReadMarkerRepository) Upsert(userID, itemID uint, kind models.ContentKind) error {
	return r.db.Exec(`
		INSERT INTO read_markers (user_id, item_id, kind, created_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (user_id, item_id, kind) DO NOTHING
	`, userID, itemID, kind).Error
}

func (r *ReadMarkerRepository) ListItemIDs(userID uint, kind models.ContentKind) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ReadMarker{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Pluck("item_id", &ids).Error
	return ids, err
}

func (r *ReadMarkerRepository) DeleteForItem(itemID uint, kind models.ContentKind) error {
	return r.db.Where("item_id = ? AND kind = ?", itemID, kind).Delete(&models.ReadMarker{}).Error
}
