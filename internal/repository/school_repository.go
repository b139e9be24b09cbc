package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type SchoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (r *SchoolRepository) Create(school *models.School) error {
	return r.db.Create(school).Error
}

func (r *SchoolRepository) FindByID(id uint) (*models.School, error) {
	var school models.School
	if err := r.db.First(&school, id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *SchoolRepository) FindByDomain(domain string) (*models.School, error) {
	var school models.School
	if err := r.db.Where("LOWER(domain) = LOWER(?)", domain).First(&school).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *SchoolRepository) Update(school *models.School) error {
	return r.db.Save(school).Error
}

func (r *SchoolRepository) List(limit int) ([]models.School, error) {
	var schools []models.School
	if limit <= 0 {
		limit = 100
	}
	err := r.db.Order("name ASC").Limit(limit).Find(&schools).Error
	return schools, err
}
