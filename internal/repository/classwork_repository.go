package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type ClassworkRepository struct {
	db *gorm.DB
}

func NewClassworkRepository(db *gorm.DB) *ClassworkRepository {
	return &ClassworkRepository{db: db}
}

func (r *ClassworkRepository) Create(work *models.Classwork) error {
	return r.db.Create(work).Error
}

func (r *ClassworkRepository) FindByID(id uint) (*models.Classwork, error) {
	var work models.Classwork
	if err := r.db.Preload("Author").First(&work, id).Error; err != nil {
		return nil, err
	}
	return &work, nil
}

func (r *ClassworkRepository) Update(work *models.Classwork) error {
	return r.db.Save(work).Error
}

func (r *ClassworkRepository) Delete(id uint) error {
	return r.db.Delete(&models.Classwork{}, id).Error
}

func (r *ClassworkRepository) ListByClass(classID uint) ([]models.Classwork, error) {
	var works []models.Classwork
	err := r.db.Where("class_id = ?", classID).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&works).Error
	return works, err
}

func (r *ClassworkRepository) ListByTopic(topicID uint) ([]models.Classwork, error) {
	var works []models.Classwork
	err := r.db.Where("topic_id = ?", topicID).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&works).Error
	return works, err
}

func (r *ClassworkRepository) ListRefsByClasses(classIDs []uint) ([]ContentRef, error) {
	if len(classIDs) == 0 {
		return []ContentRef{}, nil
	}
	var refs []ContentRef
	err := r.db.Model(&models.Classwork{}).
		Select("id, class_id").
		Where("class_id IN ?", classIDs).
		Scan(&refs).Error
	return refs, err
}
