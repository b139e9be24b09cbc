package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(a *models.Announcement) error {
	return r.db.Create(a).Error
}

func (r *AnnouncementRepository) FindByID(id uint) (*models.Announcement, error) {
	var a models.Announcement
	if err := r.db.Preload("Author").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) Update(a *models.Announcement) error {
	return r.db.Save(a).Error
}

func (r *AnnouncementRepository) Delete(id uint) error {
	return r.db.Delete(&models.Announcement{}, id).Error
}

func (r *AnnouncementRepository) ListByClass(classID uint) ([]models.Announcement, error) {
	var list []models.Announcement
	err := r.db.Where("class_id = ?", classID).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *AnnouncementRepository) ListRefsByClasses(classIDs []uint) ([]ContentRef, error) {
	if len(classIDs) == 0 {
		return []ContentRef{}, nil
	}
	var refs []ContentRef
	err := r.db.Model(&models.Announcement{}).
		Select("id, class_id").
		Where("class_id IN ?", classIDs).
		Scan(&refs).Error
	return refs, err
}
