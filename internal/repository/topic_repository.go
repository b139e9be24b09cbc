package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Create(topic *models.Topic) error {
	return r.db.Create(topic).Error
}

func (r *TopicRepository) FindByID(id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepository) Update(topic *models.Topic) error {
	return r.db.Save(topic).Error
}

func (r *TopicRepository) Delete(id uint) error {
	return r.db.Delete(&models.Topic{}, id).Error
}

func (r *TopicRepository) ListByClass(classID uint) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.Where("class_id = ?", classID).
		Order("position ASC, id ASC").
		Find(&topics).Error
	return topics, err
}
