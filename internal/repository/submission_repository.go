package repository

import (
	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(s *models.Submission) error {
	return r.db.Create(s).Error
}

func (r *SubmissionRepository) FindByID(id uint) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.Preload("Student").First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) FindByClassworkAndStudent(classworkID, studentID uint) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.Where("classwork_id = ? AND student_id = ?", classworkID, studentID).
		Preload("Student").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) Update(s *models.Submission) error {
	return r.db.Save(s).Error
}

func (r *SubmissionRepository) ListByClasswork(classworkID uint) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.Where("classwork_id = ?", classworkID).
		Preload("Student").
		Order("updated_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) ListByStudent(studentID uint) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&subs).Error
	return subs, err
}
